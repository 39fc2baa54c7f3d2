package interfaces

import (
	"io"
	"os"
)

// RemoteSession is the capability every remote operation goes through.
// Calls block until the remote side completes and must not be made concurrently.
type RemoteSession interface {
	RemoteCommandRunner
	RemoteFileSender
}

// RemoteCommandRunner executes a command on the remote host and returns its standard output
type RemoteCommandRunner interface {
	Execute(command string) (string, error)
}

// RemoteFileSender streams r to remotePath with the given permission bits.
// The length of r is determined by seeking before the transfer starts.
type RemoteFileSender interface {
	Send(remotePath string, mode os.FileMode, r io.ReadSeeker) error
}
