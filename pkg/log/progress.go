package log

import (
	"fmt"
	"time"
)

// formatDuration formats duration to human readable string
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// Step represents a single step in a multi-step process
type Step struct {
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Completed   bool
	Error       error
}

// MultiStepProgress prints one line per step of a sequential process
type MultiStepProgress struct {
	steps []*Step
	title string
}

// NewMultiStepProgress creates a new multi-step progress tracker
func NewMultiStepProgress(title string) *MultiStepProgress {
	return &MultiStepProgress{
		title: title,
		steps: make([]*Step, 0),
	}
}

// AddStep adds a new step to the progress tracker
func (msp *MultiStepProgress) AddStep(name, description string) {
	msp.steps = append(msp.steps, &Step{
		Name:        name,
		Description: description,
	})
}

// StartStep starts the specified step
func (msp *MultiStepProgress) StartStep(stepIndex int) {
	if stepIndex >= len(msp.steps) {
		return
	}
	step := msp.steps[stepIndex]
	step.StartTime = time.Now()

	if quiet {
		return
	}
	fmt.Fprintf(output, "%s [%d/%d] %s\n", getStepIcon(step.Name), stepIndex+1, len(msp.steps), step.Description)
}

// CompleteStep completes the current step
func (msp *MultiStepProgress) CompleteStep(stepIndex int) {
	if stepIndex >= len(msp.steps) {
		return
	}

	step := msp.steps[stepIndex]
	step.EndTime = time.Now()
	step.Completed = true

	if !quiet {
		fmt.Fprintf(output, "   ✅ %s (%s)\n", step.Name, formatDuration(step.EndTime.Sub(step.StartTime)))
	}
}

// FailStep marks a step as failed
func (msp *MultiStepProgress) FailStep(stepIndex int, err error) {
	if stepIndex >= len(msp.steps) {
		return
	}

	step := msp.steps[stepIndex]
	step.EndTime = time.Now()
	step.Error = err

	// failures are printed even in quiet mode
	fmt.Fprintf(output, "   ❌ %s failed: %v\n", step.Name, err)
}

// Complete completes the entire multi-step process
func (msp *MultiStepProgress) Complete() {
	if quiet {
		return
	}

	totalTime := time.Duration(0)
	for _, step := range msp.steps {
		if step.Completed {
			totalTime += step.EndTime.Sub(step.StartTime)
		}
	}

	fmt.Fprintf(output, "\n✅ %s completed in %s!\n", msp.title, formatDuration(totalTime))
}

var stepIcons = map[string]string{
	"build":             "📦",
	"preinstall":        "🔧",
	"prepare-isolated":  "🧱",
	"push-resources":    "📁",
	"stop-service":      "⏹️",
	"backup-executable": "💾",
	"push-executable":   "🚀",
	"post-command":      "⚙️",
	"start-service":     "▶️",
	"health-check":      "🩺",
}

func getStepIcon(name string) string {
	if icon, ok := stepIcons[name]; ok {
		return icon
	}
	return "▶️"
}

// ProgressInfof shows formatted progress information (only in non-quiet mode)
func ProgressInfof(format string, args ...any) {
	if !quiet {
		Infof(format, args...)
	}
}
