package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
)

// NewDoctorCommand creates the doctor command: check that the selected
// vault is reachable with the current credentials before anything depends
// on it.
func NewDoctorCommand(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check vault connectivity and credentials",
		Long: `Build the selected vault from flags and config, then probe it with a
harmless read. Reports what is misconfigured instead of failing later
mid-run.

Examples:
  mcp-secret-wrapper doctor --vault aws --aws-region eu-west-1
  mcp-secret-wrapper doctor --config stack.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			v, manifest, err := buildVault(ctx, opts)
			if err != nil {
				return err
			}
			if manifest != nil && manifest.Vault.Type != "" {
				opts.logger.Debug("Vault configuration loaded from manifest")
			}

			opts.logger.Info("Checking vault: %s", v.Name())
			if err := v.Validate(ctx); err != nil {
				return dserrors.UserError{
					Message:    fmt.Sprintf("vault %q failed its health check", v.Name()),
					Suggestion: "verify your cloud credentials and the vault flags, then retry",
					Err:        err,
				}
			}

			opts.logger.Info("Vault %s is reachable and credentials work", v.Name())
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Health check timeout")

	return cmd
}
