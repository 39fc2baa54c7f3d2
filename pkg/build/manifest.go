package build

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"golang.org/x/mod/modfile"
)

// ManifestFile is the package descriptor a backend build requires
const ManifestFile = "go.mod"

var majorVersionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// Manifest describes the local backend package
type Manifest struct {
	ModulePath string
	// Name is the deployment target name derived from the module path
	Name string
}

// LoadManifest reads go.mod from dir
func LoadManifest(dir string) (*Manifest, error) {
	file := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: no %s found in %s: %w", errdefs.ErrConfiguration, ManifestFile, dir, err)
	}
	modulePath := modfile.ModulePath(data)
	if modulePath == "" {
		return nil, fmt.Errorf("%w: %s has no module directive", errdefs.ErrConfiguration, file)
	}
	return &Manifest{ModulePath: modulePath, Name: nameFromModulePath(modulePath)}, nil
}

func nameFromModulePath(modulePath string) string {
	elements := strings.Split(modulePath, "/")
	name := elements[len(elements)-1]
	if len(elements) > 1 && majorVersionSuffix.MatchString(name) {
		name = elements[len(elements)-2]
	}
	return name
}
