package ssh

import (
	"context"
	"fmt"
	"io"
	"os"

	scp "github.com/bramvdbogaerde/go-scp"
	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/monshunter/ohmydeploy/pkg/utils"
)

// Send uploads r to remotePath over scp, declaring the remaining length of r and mode.
// The destination is written in place, its content is undefined if the transfer fails midway.
func (c *Client) Send(remotePath string, mode os.FileMode, r io.ReadSeeker) error {
	if c.client == nil {
		return fmt.Errorf("%w: not connected", errdefs.ErrTransport)
	}
	size, err := streamLen(r)
	if err != nil {
		return fmt.Errorf("%w: determine length for %s: %w", errdefs.ErrTransfer, remotePath, err)
	}

	// the scp client borrows the connection, closing it would close c.client
	client, err := scp.NewClientBySSH(c.client)
	if err != nil {
		return fmt.Errorf("%w: create scp client: %w", errdefs.ErrTransport, err)
	}
	if err := client.CopyPassThru(context.Background(), r, remotePath, fmt.Sprintf("%04o", mode.Perm()), size, nil); err != nil {
		return fmt.Errorf("%w: send %s: %w", errdefs.ErrTransfer, remotePath, err)
	}

	log.Debugf("Uploaded %s (%s, mode %04o)", remotePath, utils.FormatSize(size), mode.Perm())
	return nil
}

// streamLen returns the number of bytes between the current offset and the end,
// leaving the offset unchanged
func streamLen(s io.Seeker) (int64, error) {
	current, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(current, io.SeekStart); err != nil {
		return 0, err
	}
	return end - current, nil
}
