package service

import (
	"path"
)

// DefaultIsolatedRoot is where the isolated environment is bootstrapped
const DefaultIsolatedRoot = "/opt/chroot"

// UnitDir is the system service-unit directory
const UnitDir = "/lib/systemd/system"

// Target identifies the deployed service and the remote paths derived from it
type Target struct {
	Name         string
	Isolated     bool
	IsolatedRoot string
}

// NewTarget creates a target, defaulting the isolated root
func NewTarget(name string, isolated bool, isolatedRoot string) Target {
	if isolatedRoot == "" {
		isolatedRoot = DefaultIsolatedRoot
	}
	return Target{Name: name, Isolated: isolated, IsolatedRoot: isolatedRoot}
}

// BasePath is <isolated-root>/apps/<name> inside an isolated environment, /opt/<name> otherwise
func (t Target) BasePath() string {
	if t.Isolated {
		return path.Join(t.IsolatedRoot, "apps", t.Name)
	}
	return path.Join("/opt", t.Name)
}

// ExecutablePath is the base path joined with the name
func (t Target) ExecutablePath() string {
	return path.Join(t.BasePath(), t.Name)
}

// BackupPath is the executable path with a .bak extension
func (t Target) BackupPath() string {
	return t.ExecutablePath() + ".bak"
}

// UnitName is the systemd unit name
func (t Target) UnitName() string {
	return t.Name + ".service"
}

// UnitPath is where the unit definition is installed
func (t Target) UnitPath() string {
	return path.Join(UnitDir, t.UnitName())
}

// ExecCommand starts the executable directly, or through chroot when isolated
func (t Target) ExecCommand() string {
	if t.Isolated {
		return "chroot " + t.IsolatedRoot + " " + path.Join("/apps", t.Name, t.Name)
	}
	return t.ExecutablePath()
}
