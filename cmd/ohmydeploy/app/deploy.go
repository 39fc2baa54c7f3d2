package app

import (
	"fmt"
	"path/filepath"

	"github.com/monshunter/ohmydeploy/pkg/build"
	"github.com/monshunter/ohmydeploy/pkg/config"
	"github.com/monshunter/ohmydeploy/pkg/deploy"
	"github.com/monshunter/ohmydeploy/pkg/health"
	"github.com/monshunter/ohmydeploy/pkg/interfaces"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/monshunter/ohmydeploy/pkg/service"
	"github.com/monshunter/ohmydeploy/pkg/ssh"
	"github.com/monshunter/ohmydeploy/pkg/transfer"
)

func runDeploy(cfg config.Config) error {
	shutdownHandler := NewGracefulShutdownHandler()
	defer shutdownHandler.Close()

	client, err := ssh.Connect(ssh.Config{
		Address:          cfg.Address,
		User:             cfg.Login,
		KeyFile:          cfg.KeyFile,
		KnownHostsFile:   cfg.KnownHosts,
		Timeout:          cfg.ConnectTimeout,
		IgnoreExitStatus: cfg.IgnoreExitStatus,
	}, ssh.WithEnvCredentials(ssh.NewTerminalCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Address, err)
	}
	defer client.Close()
	shutdownHandler.SetCloser(client)

	plan := deploy.NewPlan(cfg, dependencies(cfg, client))
	title := fmt.Sprintf("Deployment of %s to %s", cfg.Name, client.Address())
	if err := deploy.NewSequencer(title, plan).Run(shutdownHandler.Context()); err != nil {
		log.Errorf("Deployment of %s failed", cfg.Name)
		return err
	}
	return nil
}

// dependencies wires every component to the single session of the run
func dependencies(cfg config.Config, session interfaces.RemoteSession) deploy.Dependencies {
	target := service.NewTarget(cfg.Name, cfg.Isolated, cfg.IsolatedRoot)
	deps := deploy.Dependencies{
		Controller: service.NewController(session, target, service.Options{
			Env:   cfg.Env,
			Dirs:  cfg.Dirs,
			Suite: cfg.IsolatedSuite,
		}),
		Artifact: cfg.Artifact,
	}

	// resources are named relative to the project, like the frontend and the build
	if cfg.ArchiveResources {
		pusher := transfer.NewArchivePusher(session, nil, target.BasePath(), cfg.Name)
		pusher.SetLocalDir(cfg.ProjectDir)
		deps.Resources = pusher
	} else {
		pusher := transfer.NewPusher(session, nil, target.BasePath())
		pusher.SetLocalDir(cfg.ProjectDir)
		deps.Resources = pusher
	}

	if deps.Artifact == "" {
		builder := build.NewBuilder(build.Options{
			Dir:         cfg.ProjectDir,
			FrontendDir: frontendDir(cfg),
			Features:    cfg.Features,
			Static:      cfg.Static,
			OutputDir:   cfg.OutputDir,
			Name:        cfg.Name,
		}, nil)
		deps.Builder = builder
		deps.Artifact = builder.ArtifactPath()
	}

	if cfg.HealthURL != "" {
		deps.Health = health.NewProber(cfg.HealthURL, health.DefaultOptions())
	}
	return deps
}

func frontendDir(cfg config.Config) string {
	if cfg.NpmPackage == "" || filepath.IsAbs(cfg.NpmPackage) {
		return cfg.NpmPackage
	}
	return filepath.Join(cfg.ProjectDir, cfg.NpmPackage)
}
