// Package errdefs defines the error kinds a deployment run can fail with.
//
// Callers attach a kind by wrapping it together with the underlying cause:
//
//	fmt.Errorf("%w: %w", errdefs.ErrTransport, err)
//
// and test for it with errors.Is.
package errdefs

import "errors"

var (
	// ErrAuthentication means the remote host rejected the credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrTransport means the connection or the SSH handshake failed.
	ErrTransport = errors.New("transport error")
	// ErrTransfer means an upload failed or a remote command reported failure.
	ErrTransfer = errors.New("transfer error")
	// ErrBuild means building a local artifact failed.
	ErrBuild = errors.New("build error")
	// ErrConfiguration means the local configuration or manifest is missing or invalid.
	ErrConfiguration = errors.New("configuration error")
	// ErrHealthCheck means the started service did not report healthy.
	ErrHealthCheck = errors.New("health check failed")
)

// Kind returns the sentinel err wraps, or nil if it wraps none of them.
func Kind(err error) error {
	for _, kind := range []error{ErrAuthentication, ErrTransport, ErrTransfer, ErrBuild, ErrConfiguration, ErrHealthCheck} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
