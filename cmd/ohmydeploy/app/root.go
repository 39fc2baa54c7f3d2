package app

import (
	"errors"
	"fmt"

	"github.com/monshunter/ohmydeploy/pkg/deploy"
	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
	opts    = &deployOptions{}
)

var rootCmd = &cobra.Command{
	Use:   "ohmydeploy SERVER",
	Short: "OhMyDeploy - Build a service and deploy it to a remote host over SSH",
	Long: `OhMyDeploy builds the frontend and backend of a service locally, uploads
the executable and its resources to a remote host over SSH and restarts
the systemd unit that runs it. Every step aborts the deployment on failure.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetVerbose(true)
		}
		if quiet {
			log.SetQuiet(true)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.config(cmd.Flags(), args[0])
		if err != nil {
			return err
		}
		return runDeploy(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Enable quiet mode (minimal output)")
	opts.addFlags(rootCmd.Flags())

	rootCmd.AddCommand(versionCmd)
}

// Run is the entry point called by main.go
func Run() error {
	return rootCmd.Execute()
}

// FormatError prefixes err with its kind and, for a deployment failure, the failed step
func FormatError(err error) string {
	kind := errdefs.Kind(err)
	var stepErr *deploy.StepError
	switch {
	case errors.As(err, &stepErr) && kind != nil:
		return fmt.Sprintf("[%s] %s: %v", stepErr.Step, kind, stepErr.Err)
	case kind != nil:
		return fmt.Sprintf("%s: %v", kind, err)
	}
	return err.Error()
}
