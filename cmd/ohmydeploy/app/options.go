package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/monshunter/ohmydeploy/pkg/build"
	"github.com/monshunter/ohmydeploy/pkg/config"
	"github.com/monshunter/ohmydeploy/pkg/envar"
	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/monshunter/ohmydeploy/pkg/utils"
	"github.com/spf13/pflag"
)

// deployOptions holds the raw command line values. Only flags the user set
// override the config file.
type deployOptions struct {
	configFile       string
	login            string
	keyFile          string
	knownHosts       string
	connectTimeout   time.Duration
	ignoreExitStatus bool

	name       string
	projectDir string
	features   string
	npmPackage string
	static     bool
	noBuild    bool
	outputDir  string
	artifact   string

	preinstall    bool
	isolated      bool
	isolatedRoot  string
	isolatedSuite string
	env           []string

	resourceFiles    string
	archiveResources bool
	postCommand      string
	healthURL        string
}

func (o *deployOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configFile, "config", "c", "",
		fmt.Sprintf("Config file (default %q when present, overridden by %s)", envar.DefaultConfigFile, envar.OHMYDEPLOY_CONFIG))
	fs.StringVarP(&o.login, "login", "l", config.DefaultLogin, "Login user on the server")
	fs.StringVarP(&o.keyFile, "keyfile", "k", "",
		"Private key file, the public key is the same path with a .pub extension. Password login when empty")
	fs.StringVar(&o.knownHosts, "known-hosts", "", "known_hosts file used to verify the server, no verification when empty")
	fs.DurationVar(&o.connectTimeout, "connect-timeout", config.DefaultConnectTimeout, "Timeout for connecting to the server")
	fs.BoolVar(&o.ignoreExitStatus, "ignore-exit-status", false,
		"Treat remote commands as successful whatever their exit status")

	fs.StringVar(&o.name, "name", "", "Service name (default: last element of the go.mod module path)")
	fs.StringVar(&o.projectDir, "project-dir", ".", "Project directory containing go.mod")
	fs.StringVar(&o.features, "features", "", "Comma-separated build tags")
	fs.StringVar(&o.npmPackage, "npm-package", config.DefaultNpmPackage, "Frontend npm package, built before the backend when present")
	fs.BoolVar(&o.static, "static", false, "Build a statically linked executable")
	fs.BoolVar(&o.static, "musl", false, "Alias of --static")
	fs.BoolVar(&o.noBuild, "no-build", false, "Deploy the existing artifact without building")
	fs.StringVar(&o.outputDir, "output-dir", "", fmt.Sprintf("Build output directory (default <project-dir>/%s)", build.DefaultOutputDir))
	fs.StringVar(&o.artifact, "artifact", "", "Deploy this executable instead of building one, .zst .xz .gz and .bz2 are decompressed")

	fs.BoolVar(&o.preinstall, "preinstall", false, "Install the systemd unit and create the service directories")
	fs.BoolVar(&o.isolated, "isolated", false, "Deploy into an isolated chroot environment")
	fs.BoolVar(&o.isolated, "fakechroot", false, "Alias of --isolated")
	fs.StringVar(&o.isolatedRoot, "isolated-root", config.DefaultIsolatedRoot, "Root of the isolated environment")
	fs.StringVar(&o.isolatedSuite, "isolated-suite", "", "Distribution bootstrapped into the isolated environment (default jammy)")
	fs.StringArrayVar(&o.env, "env", nil, "Service environment variable (format: KEY=VALUE). Can be specified multiple times")

	fs.StringVar(&o.resourceFiles, "resource-files", "", "Comma-separated files and directories uploaded next to the executable, relative to --project-dir")
	fs.BoolVar(&o.archiveResources, "archive-resources", false, "Upload each resource as a single tar.zst archive")
	fs.StringVar(&o.postCommand, "post-command", "", "Command run in the service directory after the executable is uploaded")
	fs.StringVar(&o.healthURL, "health-url", "", "URL that must answer 2xx once the service is started")
}

// config builds the run configuration: config file, then explicitly set
// flags, then the go.mod module name when no name is given
func (o *deployOptions) config(fs *pflag.FlagSet, server string) (config.Config, error) {
	cfg, err := o.loadFile(fs)
	if err != nil {
		return cfg, err
	}
	cfg.Address = server

	changed := func(names ...string) bool {
		for _, name := range names {
			if fs.Changed(name) {
				return true
			}
		}
		return false
	}
	if changed("login") {
		cfg.Login = o.login
	}
	if changed("keyfile") {
		cfg.KeyFile = o.keyFile
	}
	if changed("known-hosts") {
		cfg.KnownHosts = o.knownHosts
	}
	if changed("connect-timeout") {
		cfg.ConnectTimeout = o.connectTimeout
	}
	if changed("ignore-exit-status") {
		cfg.IgnoreExitStatus = o.ignoreExitStatus
	}
	if changed("name") {
		cfg.Name = o.name
	}
	if changed("project-dir") {
		cfg.ProjectDir = o.projectDir
	}
	if changed("features") {
		cfg.Features = utils.SplitList(o.features)
	}
	if changed("npm-package") {
		cfg.NpmPackage = o.npmPackage
	}
	if changed("static", "musl") {
		cfg.Static = o.static
	}
	if changed("no-build") {
		cfg.SkipBuild = o.noBuild
	}
	if changed("output-dir") {
		cfg.OutputDir = o.outputDir
	}
	if changed("artifact") {
		cfg.Artifact = o.artifact
	}
	if changed("preinstall") {
		cfg.Preinstall = o.preinstall
	}
	if changed("isolated", "fakechroot") {
		cfg.Isolated = o.isolated
	}
	if changed("isolated-root") {
		cfg.IsolatedRoot = o.isolatedRoot
	}
	if changed("isolated-suite") {
		cfg.IsolatedSuite = o.isolatedSuite
	}
	if changed("env") {
		env, err := utils.ParseKeyValues(o.env)
		if err != nil {
			return cfg, fmt.Errorf("%w: --env: %w", errdefs.ErrConfiguration, err)
		}
		if cfg.Env == nil {
			cfg.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			cfg.Env[k] = v
		}
	}
	if changed("resource-files") {
		cfg.Resources = utils.SplitList(o.resourceFiles)
	}
	if changed("archive-resources") {
		cfg.ArchiveResources = o.archiveResources
	}
	if changed("post-command") {
		cfg.PostCommand = o.postCommand
	}
	if changed("health-url") {
		cfg.HealthURL = o.healthURL
	}

	cfg.KeyFile = utils.ExpandHome(cfg.KeyFile)
	cfg.KnownHosts = utils.ExpandHome(cfg.KnownHosts)

	if cfg.Name == "" {
		manifest, err := build.LoadManifest(cfg.ProjectDir)
		if err != nil {
			return cfg, err
		}
		cfg.Name = manifest.Name
	}
	return cfg, cfg.Validate()
}

func (o *deployOptions) loadFile(fs *pflag.FlagSet) (config.Config, error) {
	if fs.Changed("config") {
		return config.LoadFile(o.configFile)
	}
	path := envar.ConfigFile()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && path == envar.DefaultConfigFile {
			return config.Default(), nil
		}
		return config.Default(), fmt.Errorf("%w: config file %s: %w", errdefs.ErrConfiguration, path, err)
	}
	log.Debugf("Loading config file %s", filepath.Clean(path))
	return config.LoadFile(path)
}
