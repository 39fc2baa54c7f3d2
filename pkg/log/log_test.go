package log

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

// captureOutput redirects log output into a buffer and restores all global settings afterwards
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOutput := SetOutput(&buf)
	prevVerbose, prevQuiet, prevLevel, prevColor := verbose, quiet, level, colorEnabled
	t.Cleanup(func() {
		SetOutput(prevOutput)
		verbose, quiet, level, colorEnabled = prevVerbose, prevQuiet, prevLevel, prevColor
	})
	verbose, quiet, level = false, false, INFO
	return &buf
}

func TestLogLevels(t *testing.T) {
	buf := captureOutput(t)

	Info("This is an info")
	Infof("This is an info with %s", "format")
	Debug("This should not be printed")
	Debugf("This should not be printed with %s", "format")
	Warningf("This is a warning with %s", "format")
	Error("This is an error")
	Errorf("This is an error with %s", "format")

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("IsVerbose should return true after SetVerbose(true)")
	}
	if GetLevel() != DEBUG {
		t.Errorf("Level should be DEBUG when verbose is true, got %v", GetLevel())
	}
	Debug("This should be printed in verbose mode")

	output := buf.String()
	for _, want := range []string{
		"This is an info",
		"This is an info with format",
		"This is a warning with format",
		"This is an error",
		"This is an error with format",
		"This should be printed in verbose mode",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(output, "This should not be printed") {
		t.Error("Debug log should not be printed when verbose is false")
	}
}

func TestQuietMode(t *testing.T) {
	buf := captureOutput(t)

	SetQuiet(true)
	if !IsQuiet() {
		t.Fatal("IsQuiet should return true after SetQuiet(true)")
	}
	Info("hidden info")
	ProgressInfof("hidden progress %d", 1)
	Warning("visible warning")
	Error("visible error")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("quiet mode printed info output: %q", output)
	}
	if !strings.Contains(output, "visible warning") || !strings.Contains(output, "visible error") {
		t.Errorf("quiet mode must keep warnings and errors: %q", output)
	}
}

func TestLogLevel(t *testing.T) {
	captureOutput(t)

	SetLevel(ERROR)
	if GetLevel() != ERROR {
		t.Errorf("Level should be ERROR, got %v", GetLevel())
	}

	// verbose overrides the level
	SetVerbose(true)
	if GetLevel() != DEBUG {
		t.Errorf("Level should be DEBUG when verbose is true, got %v", GetLevel())
	}

	SetLevel(ERROR)
	if GetLevel() != ERROR {
		t.Errorf("Level should be ERROR, got %v", GetLevel())
	}
}

func TestFatalStackTrace(t *testing.T) {
	buf := captureOutput(t)

	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	oldOsExit := osExit
	defer func() { osExit = oldOsExit }()
	exitCalled := false
	osExit = func(code int) {
		exitCalled = true
		if code != 1 {
			t.Errorf("Expected exit code 1, got %d", code)
		}
	}

	oldStackTraceEnabled := IsStackTraceEnabled()
	defer func() { EnableStackTrace(oldStackTraceEnabled) }()
	EnableStackTrace(true)

	Fatalf("Test fatal error: %s", "push-executable")

	w.Close()
	os.Stderr = oldStderr
	var errBuf bytes.Buffer
	io.Copy(&errBuf, r)

	if !exitCalled {
		t.Error("os.Exit was not called")
	}
	if !strings.Contains(errBuf.String(), "Stack trace:") {
		t.Error("Stack trace not found in stderr output")
	}
	if !strings.Contains(errBuf.String(), "goroutine") {
		t.Error("Stack trace does not contain goroutine information")
	}
	if !strings.Contains(buf.String(), "Test fatal error: push-executable") {
		t.Error("Fatal log message not found in log output")
	}
}

func TestColorOutput(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(DEBUG)

	EnableColor(true)
	Info("Colored info")
	Warning("Colored warning")
	Error("Colored error")
	Debug("Colored debug")

	EnableColor(false)
	Info("Non-colored info")
	Error("Non-colored error")

	output := buf.String()
	for _, code := range []string{ColorGreen, ColorYellow, ColorRed, ColorCyan, ColorReset} {
		if !strings.Contains(output, code) {
			t.Errorf("color code %q not found in colored output", code)
		}
	}

	nonColoredPos := strings.Index(output, "Non-colored")
	if nonColoredPos == -1 {
		t.Fatal("Non-colored log message not found")
	}
	if strings.Contains(output[nonColoredPos:], ColorReset) {
		t.Error("Color codes found after disabling colors")
	}
}

func TestMultiStepProgress(t *testing.T) {
	buf := captureOutput(t)

	msp := NewMultiStepProgress("Deployment")
	msp.AddStep("stop-service", "Stopping service")
	msp.AddStep("start-service", "Starting service")

	msp.StartStep(0)
	msp.CompleteStep(0)
	msp.StartStep(1)
	msp.FailStep(1, errors.New("unit not found"))
	// out of range indexes are ignored
	msp.StartStep(5)
	msp.CompleteStep(5)

	steps := msp.steps
	if !steps[0].Completed || steps[1].Completed {
		t.Errorf("unexpected completion state: %v, %v", steps[0].Completed, steps[1].Completed)
	}
	if steps[1].Error == nil {
		t.Error("failed step should keep its error")
	}

	output := buf.String()
	for _, want := range []string{"[1/2] Stopping service", "[2/2] Starting service", "start-service failed: unit not found"} {
		if !strings.Contains(output, want) {
			t.Errorf("progress output missing %q:\n%s", want, output)
		}
	}
}
