package deploy

import (
	"context"

	"github.com/monshunter/ohmydeploy/pkg/config"
)

// Step names, in execution order
const (
	StepBuild            = "build"
	StepPreinstall       = "preinstall"
	StepPrepareIsolated  = "prepare-isolated"
	StepPushResources    = "push-resources"
	StepStopService      = "stop-service"
	StepBackupExecutable = "backup-executable"
	StepPushExecutable   = "push-executable"
	StepPostCommand      = "post-command"
	StepStartService     = "start-service"
	StepHealthCheck      = "health-check"
)

// Builder produces the executable artifact locally
type Builder interface {
	Build(ctx context.Context) error
}

// Controller drives the remote service
type Controller interface {
	Preinstall() error
	PrepareIsolated() error
	Stop() error
	BackupExecutable() error
	PushExecutable(local string) error
	RunPostCommand(command string) error
	Start() error
}

// ResourcePusher mirrors local resources onto the remote host
type ResourcePusher interface {
	PushAll(locals []string) error
}

// HealthChecker verifies the started service
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Dependencies are the components a plan drives. Builder may be nil when the
// build is skipped and Health may be nil when no health URL is configured.
type Dependencies struct {
	Builder    Builder
	Controller Controller
	Resources  ResourcePusher
	Health     HealthChecker
	// Artifact is the local executable uploaded by push-executable
	Artifact string
}

// Step is one gate of a deployment
type Step struct {
	Name        string
	Description string
	Run         func(ctx context.Context) error
}

// Plan is the ordered list of steps of one run
type Plan struct {
	Steps []Step
}

// Names returns the step names in order
func (p *Plan) Names() []string {
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		names = append(names, s.Name)
	}
	return names
}

func (p *Plan) add(name, description string, run func(ctx context.Context) error) {
	p.Steps = append(p.Steps, Step{Name: name, Description: description, Run: run})
}

// NewPlan decides the optional steps from cfg once, before anything runs
func NewPlan(cfg config.Config, deps Dependencies) *Plan {
	p := &Plan{}
	ctrl := deps.Controller

	if !cfg.SkipBuild && deps.Builder != nil {
		p.add(StepBuild, "Building artifacts", deps.Builder.Build)
	}
	if cfg.Preinstall {
		p.add(StepPreinstall, "Installing service", noContext(ctrl.Preinstall))
	}
	if cfg.Isolated {
		p.add(StepPrepareIsolated, "Preparing isolated environment", noContext(ctrl.PrepareIsolated))
	}
	resources := cfg.Resources
	p.add(StepPushResources, "Uploading resources", func(context.Context) error {
		return deps.Resources.PushAll(resources)
	})
	p.add(StepStopService, "Stopping service", noContext(ctrl.Stop))
	p.add(StepBackupExecutable, "Backing up executable", noContext(ctrl.BackupExecutable))
	artifact := deps.Artifact
	p.add(StepPushExecutable, "Uploading executable", func(context.Context) error {
		return ctrl.PushExecutable(artifact)
	})
	if cfg.PostCommand != "" {
		command := cfg.PostCommand
		p.add(StepPostCommand, "Running post command", func(context.Context) error {
			return ctrl.RunPostCommand(command)
		})
	}
	p.add(StepStartService, "Starting service", noContext(ctrl.Start))
	if cfg.HealthURL != "" && deps.Health != nil {
		p.add(StepHealthCheck, "Checking service health", deps.Health.Check)
	}
	return p
}

func noContext(fn func() error) func(context.Context) error {
	return func(context.Context) error {
		return fn()
	}
}
