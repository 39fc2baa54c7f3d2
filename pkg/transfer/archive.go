package transfer

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/monshunter/ohmydeploy/pkg/archive"
	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/interfaces"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/monshunter/ohmydeploy/pkg/utils"
	"github.com/twpayne/go-vfs"
)

// ArchivePusher produces the same remote layout as Pusher but ships each
// resource as a single tar.zst archive that is unpacked remotely
type ArchivePusher struct {
	session    interfaces.RemoteSession
	fs         FS
	localDir   string
	remoteBase string
	name       string
	pushed     int
}

func NewArchivePusher(session interfaces.RemoteSession, fsys FS, remoteBase, name string) *ArchivePusher {
	if fsys == nil {
		fsys = vfs.HostOSFS
	}
	return &ArchivePusher{
		session:    session,
		fs:         fsys,
		remoteBase: remoteBase,
		name:       name,
	}
}

// SetLocalDir sets the directory relative resources are read from, the working directory by default
func (a *ArchivePusher) SetLocalDir(dir string) {
	a.localDir = dir
}

// Push packs local and extracts it under the remote base
func (a *ArchivePusher) Push(local string) error {
	var buf bytes.Buffer
	w, err := archive.NewWriter(&buf)
	if err != nil {
		return err
	}
	packer := &tarPacker{fs: a.fs, w: w, base: utils.NormalizePath(a.remoteBase)}
	stats, err := walk(a.fs, a.localDir, a.remoteBase, local, packer)
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrTransfer, err)
	}

	a.pushed++
	remoteArchive := fmt.Sprintf("/tmp/%s-resources-%d.tar.zst", a.name, a.pushed)
	if err := a.session.Send(remoteArchive, 0600, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("upload archive of %s: %w", local, err)
	}
	base := utils.ShellQuote(a.remoteBase)
	quotedArchive := utils.ShellQuote(remoteArchive)
	command := fmt.Sprintf("mkdir -p %s && tar --zstd -xf %s -C %s && rm -f %s", base, quotedArchive, base, quotedArchive)
	if _, err := a.session.Execute(command); err != nil {
		return fmt.Errorf("extract archive of %s: %w", local, err)
	}

	log.Infof("Pushed %s to %s as archive: %d files, %d directories (%d entries, %s compressed)",
		local, a.remoteBase, stats.Files, stats.Dirs, w.Entries(), utils.FormatSize(int64(buf.Len())))
	return nil
}

// PushAll pushes each path in order and stops at the first failure
func (a *ArchivePusher) PushAll(locals []string) error {
	for _, local := range locals {
		if err := a.Push(local); err != nil {
			return fmt.Errorf("push %s: %w", local, err)
		}
	}
	return nil
}

type tarPacker struct {
	fs   FS
	w    *archive.Writer
	base string
}

// entryName turns a remote path back into a path relative to the remote base.
// The base itself is ".".
func (t *tarPacker) entryName(remote string) (string, error) {
	if remote == t.base {
		return ".", nil
	}
	name, ok := strings.CutPrefix(remote, strings.TrimSuffix(t.base, "/")+"/")
	if !ok || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s is outside the deployment directory %s", errdefs.ErrConfiguration, remote, t.base)
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %s leaves the deployment directory, archive mode cannot ship it", errdefs.ErrConfiguration, remote)
		}
	}
	return name, nil
}

func (t *tarPacker) visitDir(_, remote string) error {
	name, err := t.entryName(remote)
	if err != nil {
		return err
	}
	return t.w.AddDir(name, FileMode)
}

func (t *tarPacker) visitFile(local, remote string, _ os.FileInfo) error {
	name, err := t.entryName(remote)
	if err != nil {
		return err
	}
	data, err := t.fs.ReadFile(local)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", errdefs.ErrTransfer, local, err)
	}
	return t.w.AddFile(name, FileMode, int64(len(data)), bytes.NewReader(data))
}
