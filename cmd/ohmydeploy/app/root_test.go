package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/monshunter/ohmydeploy/pkg/deploy"
	"github.com/monshunter/ohmydeploy/pkg/errdefs"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "failed step",
			err: &deploy.StepError{
				Step: deploy.StepBackupExecutable,
				Err:  fmt.Errorf("back up /opt/svc/svc: %w", fmt.Errorf("%w: exit status 1", errdefs.ErrTransfer)),
			},
			want: "[backup-executable] transfer error: back up /opt/svc/svc: transfer error: exit status 1",
		},
		{
			name: "connection",
			err:  fmt.Errorf("failed to connect to host: %w", errdefs.ErrAuthentication),
			want: "authentication failed: failed to connect to host: authentication failed",
		},
		{
			name: "no kind",
			err:  errors.New("unknown flag: --bogus"),
			want: "unknown flag: --bogus",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatError(tt.err); got != tt.want {
				t.Errorf("FormatError() = %q, want %q", got, tt.want)
			}
		})
	}
}
