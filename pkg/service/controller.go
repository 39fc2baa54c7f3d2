package service

import (
	"fmt"
	"path"
	"strings"

	"github.com/monshunter/ohmydeploy/pkg/archive"
	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/interfaces"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/monshunter/ohmydeploy/pkg/utils"
)

const (
	unitFileMode   = 0644
	executableMode = 0755
	// DefaultSuite is the distribution bootstrapped into the isolated environment
	DefaultSuite = "jammy"
)

// Options configures a Controller
type Options struct {
	// Env is written into the unit's Environment line
	Env map[string]string
	// Dirs are extra directories to create, relative ones live under the base path
	Dirs []string
	// Suite is the debootstrap suite for the isolated environment
	Suite string
}

// Controller manages the remote systemd unit and files of a target
type Controller struct {
	session interfaces.RemoteSession
	target  Target
	opts    Options
}

func NewController(session interfaces.RemoteSession, target Target, opts Options) *Controller {
	if opts.Suite == "" {
		opts.Suite = DefaultSuite
	}
	return &Controller{session: session, target: target, opts: opts}
}

func (c *Controller) run(command string) error {
	_, err := c.session.Execute(command)
	return err
}

// Install uploads the unit definition and enables it
func (c *Controller) Install() error {
	unit, err := NewDescriptor(c.target, c.opts.Env).Render()
	if err != nil {
		return err
	}
	log.Infof("Installing unit %s", c.target.UnitPath())
	if err := c.session.Send(c.target.UnitPath(), unitFileMode, strings.NewReader(unit)); err != nil {
		return fmt.Errorf("upload unit %s: %w", c.target.UnitPath(), err)
	}
	if err := c.run("systemctl enable " + c.target.UnitName()); err != nil {
		return fmt.Errorf("enable %s: %w", c.target.UnitName(), err)
	}
	return nil
}

// Stop stops the unit
func (c *Controller) Stop() error {
	if err := c.run("systemctl stop " + c.target.UnitName()); err != nil {
		return fmt.Errorf("stop %s: %w", c.target.UnitName(), err)
	}
	return nil
}

// Start starts the unit
func (c *Controller) Start() error {
	if err := c.run("systemctl start " + c.target.UnitName()); err != nil {
		return fmt.Errorf("start %s: %w", c.target.UnitName(), err)
	}
	return nil
}

// ServiceDirs lists the base path followed by the declared extra directories
func (c *Controller) ServiceDirs() []string {
	dirs := []string{c.target.BasePath()}
	for _, d := range c.opts.Dirs {
		if !path.IsAbs(d) {
			d = utils.JoinRemote(c.target.BasePath(), d)
		}
		dirs = append(dirs, d)
	}
	return dirs
}

// CreateServiceDirs creates every service directory with mkdir -p
func (c *Controller) CreateServiceDirs() error {
	for _, dir := range c.ServiceDirs() {
		if err := c.run("mkdir -p " + utils.ShellQuote(dir)); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Preinstall installs the unit and creates the service directories
func (c *Controller) Preinstall() error {
	if err := c.Install(); err != nil {
		return err
	}
	return c.CreateServiceDirs()
}

// PrepareIsolated bootstraps the isolated environment root
func (c *Controller) PrepareIsolated() error {
	log.Infof("Bootstrapping isolated environment %s (%s)", c.target.IsolatedRoot, c.opts.Suite)
	command := fmt.Sprintf("debootstrap --variant=buildd %s %s", utils.ShellQuote(c.opts.Suite), utils.ShellQuote(c.target.IsolatedRoot))
	if err := c.run(command); err != nil {
		return fmt.Errorf("bootstrap %s: %w", c.target.IsolatedRoot, err)
	}
	return nil
}

// BackupExecutable renames the current executable to its backup path.
// The rename fails when there is no executable yet.
func (c *Controller) BackupExecutable() error {
	command := fmt.Sprintf("mv %s %s", utils.ShellQuote(c.target.ExecutablePath()), utils.ShellQuote(c.target.BackupPath()))
	if err := c.run(command); err != nil {
		return fmt.Errorf("back up %s: %w", c.target.ExecutablePath(), err)
	}
	return nil
}

// PushExecutable uploads the local artifact as the target executable
func (c *Controller) PushExecutable(local string) error {
	r, err := archive.OpenArtifact(local)
	if err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrTransfer, err)
	}
	log.Infof("Uploading %s -> %s (%s)", local, c.target.ExecutablePath(), utils.FormatSize(r.Size()))
	if err := c.session.Send(c.target.ExecutablePath(), executableMode, r); err != nil {
		return fmt.Errorf("upload executable: %w", err)
	}
	return nil
}

// RunPostCommand runs command from the base path
func (c *Controller) RunPostCommand(command string) error {
	if _, err := c.session.Execute(fmt.Sprintf("cd %s && %s", utils.ShellQuote(c.target.BasePath()), command)); err != nil {
		return fmt.Errorf("post command %q: %w", command, err)
	}
	return nil
}
