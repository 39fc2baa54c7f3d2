package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogin          = "root"
	DefaultNpmPackage     = "./frontend"
	DefaultIsolatedRoot   = "/opt/chroot"
	DefaultConnectTimeout = 15 * time.Second
)

// Config is the complete description of one deployment run. It is built once
// before the run starts and never modified afterwards.
type Config struct {
	// Connection
	Address          string        `yaml:"address"`
	Login            string        `yaml:"login"`
	KeyFile          string        `yaml:"keyfile"`
	KnownHosts       string        `yaml:"known_hosts"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	IgnoreExitStatus bool          `yaml:"ignore_exit_status"`

	// Local build
	Name       string   `yaml:"name"`
	ProjectDir string   `yaml:"project_dir"`
	Features   []string `yaml:"features"`
	NpmPackage string   `yaml:"npm_package"`
	Static     bool     `yaml:"static"`
	SkipBuild  bool     `yaml:"skip_build"`
	OutputDir  string   `yaml:"output_dir"`
	// Artifact replaces the built executable, it may be compressed
	Artifact string `yaml:"artifact"`

	// Remote service
	Preinstall    bool              `yaml:"preinstall"`
	Isolated      bool              `yaml:"isolated"`
	IsolatedRoot  string            `yaml:"isolated_root"`
	IsolatedSuite string            `yaml:"isolated_suite"`
	Env           map[string]string `yaml:"env"`
	Dirs          []string          `yaml:"dirs"`

	Resources        []string `yaml:"resources"`
	ArchiveResources bool     `yaml:"archive_resources"`
	PostCommand      string   `yaml:"post_command"`
	HealthURL        string   `yaml:"health_url"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Login:          DefaultLogin,
		ConnectTimeout: DefaultConnectTimeout,
		ProjectDir:     ".",
		NpmPackage:     DefaultNpmPackage,
		IsolatedRoot:   DefaultIsolatedRoot,
	}
}

// LoadFile reads a YAML config file on top of the defaults. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: read config file %s: %w", errdefs.ErrConfiguration, path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: parse config file %s: %w", errdefs.ErrConfiguration, path, err)
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting
func (c Config) Validate() error {
	switch {
	case c.Address == "":
		return fmt.Errorf("%w: server address is required", errdefs.ErrConfiguration)
	case c.Login == "":
		return fmt.Errorf("%w: login is required", errdefs.ErrConfiguration)
	case c.Name == "":
		return fmt.Errorf("%w: deployment name is required", errdefs.ErrConfiguration)
	case c.Isolated && c.IsolatedRoot == "":
		return fmt.Errorf("%w: isolated deployment needs an isolated root", errdefs.ErrConfiguration)
	}
	return nil
}
