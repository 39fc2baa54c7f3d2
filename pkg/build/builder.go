package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/log"
)

// DefaultOutputDir holds build artifacts, relative to the project directory
const DefaultOutputDir = "target"

// Options describes the local build
type Options struct {
	// Dir is the backend project directory
	Dir string
	// FrontendDir is the npm package built before the backend; skipped when absent
	FrontendDir string
	// Features become Go build tags
	Features []string
	// Static builds a statically linked executable
	Static    bool
	OutputDir string
	Name      string
}

// Builder produces the frontend bundle and the backend executable
type Builder struct {
	opts Options
	exec Exec
}

func NewBuilder(opts Options, exec Exec) *Builder {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(opts.Dir, DefaultOutputDir)
	}
	if exec == nil {
		exec = DefaultExec
	}
	return &Builder{opts: opts, exec: exec}
}

// ArtifactPath is where BuildBackend writes the executable
func (b *Builder) ArtifactPath() string {
	variant := "linux-amd64"
	if b.opts.Static {
		variant += "-static"
	}
	return filepath.Join(b.opts.OutputDir, variant, b.opts.Name)
}

// Build builds the frontend, when present, then the backend
func (b *Builder) Build(ctx context.Context) error {
	if _, err := b.BuildFrontend(ctx); err != nil {
		return err
	}
	return b.BuildBackend(ctx)
}

// BuildFrontend runs "npm run build" in the frontend package. It reports false
// when there is no package to build.
func (b *Builder) BuildFrontend(ctx context.Context) (bool, error) {
	info, err := os.Stat(b.opts.FrontendDir)
	if b.opts.FrontendDir == "" || err != nil || !info.IsDir() {
		log.Warningf("No npm package found in %q, skipping npm build...", b.opts.FrontendDir)
		return false, nil
	}
	log.Infof("Building npm package: %s", b.opts.FrontendDir)
	cmd := &Command{Name: "npm", Args: []string{"run", "build"}, Dir: b.opts.FrontendDir}
	if err := b.exec(ctx, cmd); err != nil {
		return false, fmt.Errorf("%w: %s in %s: %w", errdefs.ErrBuild, cmd, b.opts.FrontendDir, err)
	}
	return true, nil
}

// BuildBackend compiles the backend for linux/amd64
func (b *Builder) BuildBackend(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(b.opts.Dir, ManifestFile)); err != nil {
		return fmt.Errorf("%w: no %s found in %s", errdefs.ErrConfiguration, ManifestFile, b.opts.Dir)
	}
	cmd := b.backendCommand()
	log.Infof("Building backend: %s", cmd)
	if err := b.exec(ctx, cmd); err != nil {
		return fmt.Errorf("%w: %s: %w", errdefs.ErrBuild, cmd, err)
	}
	return nil
}

func (b *Builder) backendCommand() *Command {
	output, err := filepath.Abs(b.ArtifactPath())
	if err != nil {
		output = b.ArtifactPath()
	}
	args := []string{"build", "-trimpath", "-o", output}
	if len(b.opts.Features) > 0 {
		args = append(args, "-tags", strings.Join(b.opts.Features, ","))
	}
	env := map[string]string{"GOOS": "linux", "GOARCH": "amd64"}
	if b.opts.Static {
		env["CGO_ENABLED"] = "0"
		args = append(args, "-ldflags", "-s -w -extldflags -static")
	}
	args = append(args, ".")
	return &Command{Name: "go", Args: args, Dir: b.opts.Dir, Env: env}
}
