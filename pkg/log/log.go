package log

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"
)

// osExit is a variable for os.Exit to make it mockable in tests
var osExit = os.Exit

// LogLevel define log level
type LogLevel int

const (
	// DEBUG remote command output, uploads, skipped entries
	DEBUG LogLevel = iota
	// INFO remote commands and step transitions
	INFO
	// WARNING recoverable oddities, e.g. a missing frontend package
	WARNING
	// ERROR error level, always show
	ERROR
	// FATAL fatal level, always show and exit program
	FATAL
)

var (
	verbose           bool
	// quiet hides progress output and INFO messages
	quiet             bool
	level             LogLevel  = INFO
	colorEnabled                = true
	stackTraceEnabled bool
	output            io.Writer = os.Stdout
)

// EnvStackTrace controls whether Fatal prints a stack trace
const EnvStackTrace = "OHMYDEPLOY_STACK_TRACE"

func init() {
	stackTraceEnv := os.Getenv(EnvStackTrace)
	stackTraceEnabled = stackTraceEnv == "1" || stackTraceEnv == "true" || stackTraceEnv == "yes"
}

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorPurple = "\033[35m"
)

// SetVerbose enables DEBUG output
func SetVerbose(v bool) {
	verbose = v
	if v {
		level = DEBUG
	}
}

// IsVerbose return if verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// SetQuiet hides progress and INFO output; warnings and errors are still printed
func SetQuiet(q bool) {
	quiet = q
	if q && level < WARNING {
		level = WARNING
	}
}

// IsQuiet returns if quiet mode is enabled
func IsQuiet() bool {
	return quiet
}

// SetLevel set log level
func SetLevel(l LogLevel) {
	level = l
}

// GetLevel get current log level
func GetLevel() LogLevel {
	return level
}

// SetOutput redirects log lines, it returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	prev := output
	output = w
	return prev
}

// EnableColor enables color output
func EnableColor(enabled bool) {
	colorEnabled = enabled
}

// IsColorEnabled returns if color output is enabled
func IsColorEnabled() bool {
	return colorEnabled
}

// EnableStackTrace enables or disables stack trace on fatal errors
func EnableStackTrace(enabled bool) {
	stackTraceEnabled = enabled
}

// IsStackTraceEnabled returns if stack trace is enabled
func IsStackTraceEnabled() bool {
	return stackTraceEnabled
}

func getLevelColor(l LogLevel) string {
	if !colorEnabled {
		return ""
	}

	switch l {
	case DEBUG:
		return ColorCyan
	case INFO:
		return ColorGreen
	case WARNING:
		return ColorYellow
	case ERROR:
		return ColorRed
	case FATAL:
		return ColorPurple
	default:
		return ""
	}
}

func getLevelPrefix(prefix string, l LogLevel) string {
	if !colorEnabled {
		return prefix
	}
	return getLevelColor(l) + prefix + ColorReset
}

const timeFormat = "2006/01/02 15:04:05"

func write(prefix string, l LogLevel, msg string) {
	if l < level {
		return
	}
	timeStr := time.Now().Format(timeFormat)
	fmt.Fprintf(output, "[%s] %s: %s\n", timeStr, getLevelPrefix(prefix, l), msg)
}

// Info output normal info log
func Info(args ...any) {
	write("INFO", INFO, fmt.Sprint(args...))
}

// Infof output formatted normal info log
func Infof(format string, args ...any) {
	write("INFO", INFO, fmt.Sprintf(format, args...))
}

// Warning output warning log
func Warning(args ...any) {
	write("WARN", WARNING, fmt.Sprint(args...))
}

// Warningf output formatted warning log
func Warningf(format string, args ...any) {
	write("WARN", WARNING, fmt.Sprintf(format, args...))
}

// Error output error log
func Error(args ...any) {
	write("ERROR", ERROR, fmt.Sprint(args...))
}

// Errorf output formatted error log
func Errorf(format string, args ...any) {
	write("ERROR", ERROR, fmt.Sprintf(format, args...))
}

// Fatal output fatal log and exit program
func Fatal(args ...any) {
	write("FATAL", FATAL, fmt.Sprint(args...))
	exitWithTrace()
}

// Fatalf output formatted fatal log and exit program
func Fatalf(format string, args ...any) {
	write("FATAL", FATAL, fmt.Sprintf(format, args...))
	exitWithTrace()
}

func exitWithTrace() {
	if stackTraceEnabled {
		fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
	} else {
		fmt.Fprintf(os.Stderr, "For detailed stack trace, set %s=1\n", EnvStackTrace)
	}
	osExit(1)
}

// Debug output debug log (only effective in verbose mode)
func Debug(args ...any) {
	write("DEBUG", DEBUG, fmt.Sprint(args...))
}

// Debugf output formatted debug log (only effective in verbose mode)
func Debugf(format string, args ...any) {
	write("DEBUG", DEBUG, fmt.Sprintf(format, args...))
}
