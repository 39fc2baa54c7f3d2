package deploy

import (
	"context"
	"fmt"

	"github.com/monshunter/ohmydeploy/pkg/log"
)

// StepError reports the step that aborted a run
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Sequencer runs a plan step by step and stops at the first failure.
// Changes already applied remotely are not rolled back.
type Sequencer struct {
	plan     *Plan
	progress *log.MultiStepProgress
}

func NewSequencer(title string, plan *Plan) *Sequencer {
	progress := log.NewMultiStepProgress(title)
	for _, step := range plan.Steps {
		progress.AddStep(step.Name, step.Description)
	}
	return &Sequencer{plan: plan, progress: progress}
}

// Run executes the steps in order. A cancelled context stops the run before
// the next step starts; a running step is not interrupted.
func (s *Sequencer) Run(ctx context.Context) error {
	for i, step := range s.plan.Steps {
		if err := ctx.Err(); err != nil {
			s.progress.FailStep(i, err)
			return &StepError{Step: step.Name, Err: err}
		}
		s.progress.StartStep(i)
		log.Debugf("Running step %s", step.Name)
		if err := step.Run(ctx); err != nil {
			s.progress.FailStep(i, err)
			return &StepError{Step: step.Name, Err: err}
		}
		s.progress.CompleteStep(i)
	}
	s.progress.Complete()
	return nil
}
