package transfer

import (
	"bytes"
	"fmt"
	"os"

	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/interfaces"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/monshunter/ohmydeploy/pkg/utils"
	"github.com/twpayne/go-vfs"
)

// FileMode is applied to every mirrored file
const FileMode os.FileMode = 0755

// Pusher mirrors local files and directory trees under a remote base directory
type Pusher struct {
	session    interfaces.RemoteSession
	fs         FS
	localDir   string
	remoteBase string
}

// NewPusher creates a Pusher reading from fsys, or from the host filesystem when fsys is nil
func NewPusher(session interfaces.RemoteSession, fsys FS, remoteBase string) *Pusher {
	if fsys == nil {
		fsys = vfs.HostOSFS
	}
	return &Pusher{
		session:    session,
		fs:         fsys,
		remoteBase: remoteBase,
	}
}

// SetLocalDir sets the directory relative resources are read from, the working directory by default
func (p *Pusher) SetLocalDir(dir string) {
	p.localDir = dir
}

// Push mirrors local onto the remote host. Remote directories are created
// before any file inside them is uploaded.
func (p *Pusher) Push(local string) error {
	stats, err := walk(p.fs, p.localDir, p.remoteBase, local, p)
	if err != nil {
		return err
	}
	log.Infof("Pushed %s to %s: %d files, %d directories (%s)",
		local, p.remoteBase, stats.Files, stats.Dirs, utils.FormatSize(stats.Bytes))
	return nil
}

// PushAll pushes each path in order and stops at the first failure
func (p *Pusher) PushAll(locals []string) error {
	for _, local := range locals {
		if err := p.Push(local); err != nil {
			return fmt.Errorf("push %s: %w", local, err)
		}
	}
	return nil
}

func (p *Pusher) visitDir(_, remote string) error {
	if _, err := p.session.Execute("mkdir -p " + utils.ShellQuote(remote)); err != nil {
		return fmt.Errorf("create remote directory %s: %w", remote, err)
	}
	return nil
}

func (p *Pusher) visitFile(local, remote string, _ os.FileInfo) error {
	data, err := p.fs.ReadFile(local)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", errdefs.ErrTransfer, local, err)
	}
	log.Debugf("Sending %s -> %s", local, remote)
	if err := p.session.Send(remote, FileMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", local, err)
	}
	return nil
}
