package app

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"github.com/monshunter/ohmydeploy/pkg/config"
	"github.com/monshunter/ohmydeploy/pkg/ssh"
)

func writeProjectTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"static/index.html":  "<html></html>",
		"static/js/app.js":   "console.log('hi')",
		"config/app.toml":    "port = 8080",
		"config/tls/ca.pem":  "ca",
		"config/tls/key.pem": "key",
	} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// plainLayout lists every remote path a plain push created
func plainLayout(session *ssh.FakeSession) []string {
	var paths []string
	for _, call := range session.Calls {
		if call.Op == ssh.OpSend {
			paths = append(paths, call.Path)
		} else if dir, ok := strings.CutPrefix(call.Command, "mkdir -p "); ok {
			paths = append(paths, strings.Trim(dir, "'"))
		}
	}
	return uniqueSorted(paths)
}

// archiveLayout lists every remote path the uploaded archives extract to
func archiveLayout(t *testing.T, session *ssh.FakeSession, base string) []string {
	t.Helper()
	paths := []string{base}
	for remote, file := range session.Files {
		if !strings.HasSuffix(remote, ".tar.zst") {
			continue
		}
		decoder, err := zstd.NewReader(bytes.NewReader(file.Data))
		if err != nil {
			t.Fatal(err)
		}
		tr := tar.NewReader(decoder)
		for {
			header, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("read archive %s: %v", remote, err)
			}
			if strings.HasPrefix(header.Name, "/") {
				t.Errorf("absolute archive entry %q", header.Name)
			}
			name := strings.TrimSuffix(strings.TrimPrefix(header.Name, "./"), "/")
			if name == "" || name == "." {
				continue
			}
			paths = append(paths, base+"/"+name)
		}
		decoder.Close()
	}
	return uniqueSorted(paths)
}

func uniqueSorted(paths []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func TestResourceModesProduceSameLayout(t *testing.T) {
	tests := []struct {
		name      string
		resources []string
	}{
		{"directories", []string{"static", "config/tls"}},
		{"single file", []string{"config/app.toml"}},
		{"project root", []string{"."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Name = "svc"
			cfg.ProjectDir = writeProjectTree(t)
			cfg.Artifact = "unused"
			cfg.Resources = tt.resources

			plain := ssh.NewFakeSession()
			if err := dependencies(cfg, plain).Resources.PushAll(cfg.Resources); err != nil {
				t.Fatalf("plain push failed: %v", err)
			}

			cfg.ArchiveResources = true
			archived := ssh.NewFakeSession()
			if err := dependencies(cfg, archived).Resources.PushAll(cfg.Resources); err != nil {
				t.Fatalf("archive push failed: %v", err)
			}

			want := plainLayout(plain)
			if len(want) == 0 {
				t.Fatalf("plain push created nothing: %v", want)
			}
			got := archiveLayout(t, archived, "/opt/svc")
			if !contains(want, "/opt/svc") {
				got = got[1:]
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("archive layout differs from plain layout (-plain +archive):\n%s", diff)
			}
		})
	}
}

func contains(paths []string, p string) bool {
	for _, q := range paths {
		if q == p {
			return true
		}
	}
	return false
}
