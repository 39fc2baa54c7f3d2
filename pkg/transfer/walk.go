package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/monshunter/ohmydeploy/pkg/utils"
)

// FS is the part of vfs.FS a transfer reads from
type FS interface {
	Stat(name string) (os.FileInfo, error)
	ReadDir(dirname string) ([]os.FileInfo, error)
	ReadFile(filename string) ([]byte, error)
}

// visitor receives every directory before any of its entries
type visitor interface {
	visitDir(local, remote string) error
	visitFile(local, remote string, info os.FileInfo) error
}

// Stats summarizes one traversal
type Stats struct {
	Files int
	Dirs  int
	Bytes int64
}

// pending is a path waiting on the stack with the directories above it
type pending struct {
	path      string
	ancestors []os.FileInfo
}

// walk traverses root with an explicit stack and a visited set, so each path is
// processed at most once. A directory that resolves to one of its own ancestors
// is a symlink cycle and is skipped; other aliases are mirrored under their own path.
// Relative paths are read from localDir and mapped under remoteBase as given.
func walk(fsys FS, localDir, remoteBase, root string, v visitor) (Stats, error) {
	var stats Stats
	if _, err := fsys.Stat(resolveLocal(localDir, root)); err != nil {
		return stats, fmt.Errorf("%w: resource %s: %w", errdefs.ErrConfiguration, root, err)
	}

	stack := []pending{{path: root}}
	visited := make(map[string]bool)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current.path] {
			continue
		}
		visited[current.path] = true

		local := resolveLocal(localDir, current.path)
		info, err := fsys.Stat(local)
		if err != nil {
			log.Warningf("Skipping %s: %v", current.path, err)
			continue
		}
		remote := utils.JoinRemote(remoteBase, current.path)

		switch {
		case info.Mode().IsRegular():
			if err := v.visitFile(local, remote, info); err != nil {
				return stats, err
			}
			stats.Files++
			stats.Bytes += info.Size()
		case info.IsDir():
			if isAncestor(current.ancestors, info) {
				log.Debugf("Skipping %s: symbolic link cycle", current.path)
				break
			}
			if err := v.visitDir(local, remote); err != nil {
				return stats, err
			}
			stats.Dirs++

			entries, err := fsys.ReadDir(local)
			if err != nil {
				return stats, fmt.Errorf("%w: read directory %s: %w", errdefs.ErrTransfer, current.path, err)
			}
			ancestors := append(current.ancestors[:len(current.ancestors):len(current.ancestors)], info)
			for _, entry := range entries {
				child := childPath(current.path, entry.Name())
				if !visited[child] {
					stack = append(stack, pending{path: child, ancestors: ancestors})
				}
			}
		default:
			log.Debugf("Skipping %s: not a regular file or directory", current.path)
		}
	}
	return stats, nil
}

func isAncestor(ancestors []os.FileInfo, info os.FileInfo) bool {
	for _, a := range ancestors {
		if os.SameFile(a, info) {
			return true
		}
	}
	return false
}

func childPath(dir, name string) string {
	return strings.TrimSuffix(dir, "/") + "/" + name
}

func resolveLocal(localDir, p string) string {
	if localDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(localDir, p)
}
