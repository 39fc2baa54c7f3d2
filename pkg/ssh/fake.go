package ssh

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/monshunter/ohmydeploy/pkg/interfaces"
)

// Operation kinds recorded by FakeSession
const (
	OpExecute = "execute"
	OpSend    = "send"
)

// FakeCall is one recorded operation. Command is set for executions, Path and Mode for uploads.
type FakeCall struct {
	Op      string
	Command string
	Path    string
	Mode    os.FileMode
}

// RemoteFile is an uploaded file held by FakeSession
type RemoteFile struct {
	Mode os.FileMode
	Data []byte
}

// FakeSession is an in-memory RemoteSession that records every call in order
type FakeSession struct {
	Calls []FakeCall
	Files map[string]RemoteFile
	// Outputs maps a command to the standard output it returns
	Outputs map[string]string
	// FailOn, when set, is consulted after a call is recorded; a non-nil error fails the call
	FailOn func(call FakeCall) error
}

var _ interfaces.RemoteSession = (*FakeSession)(nil)

func NewFakeSession() *FakeSession {
	return &FakeSession{
		Files:   make(map[string]RemoteFile),
		Outputs: make(map[string]string),
	}
}

func (f *FakeSession) Execute(command string) (string, error) {
	call := FakeCall{Op: OpExecute, Command: command}
	f.Calls = append(f.Calls, call)
	if f.FailOn != nil {
		if err := f.FailOn(call); err != nil {
			return "", err
		}
	}
	return f.Outputs[command], nil
}

func (f *FakeSession) Send(remotePath string, mode os.FileMode, r io.ReadSeeker) error {
	call := FakeCall{Op: OpSend, Path: remotePath, Mode: mode}
	f.Calls = append(f.Calls, call)
	if f.FailOn != nil {
		if err := f.FailOn(call); err != nil {
			return err
		}
	}

	size, err := streamLen(r)
	if err != nil {
		return err
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("read upload for %s: %w", remotePath, err)
	}
	f.Files[remotePath] = RemoteFile{Mode: mode, Data: data}
	return nil
}

// Commands returns the executed commands in order
func (f *FakeSession) Commands() []string {
	var commands []string
	for _, call := range f.Calls {
		if call.Op == OpExecute {
			commands = append(commands, call.Command)
		}
	}
	return commands
}

// Uploads returns the sorted paths of every uploaded file
func (f *FakeSession) Uploads() []string {
	paths := make([]string, 0, len(f.Files))
	for p := range f.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
