package commands

import (
	"context"

	"github.com/spf13/cobra"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/execenv"
	"github.com/astrix-security/mcp-secret-wrapper/internal/resolve"
	"github.com/astrix-security/mcp-secret-wrapper/internal/secure"
)

// NewRunCommand creates the run command: resolve references, then launch
// the wrapped command with the values injected.
func NewRunCommand(opts *rootOptions) *cobra.Command {
	var (
		printVars     bool
		allowOverride bool
		workingDir    string
	)

	cmd := &cobra.Command{
		Use:   "run [NAME=REFERENCE...] -- <command> [args...]",
		Short: "Run a command with secrets injected as environment variables",
		Long: `Resolve each NAME=REFERENCE against the selected vault and launch the
command with the resolved values in its environment. References from the
config file are resolved first; command-line references with the same
name override them.

The wrapped command must be separated from the references with '--'.

Examples:
  mcp-secret-wrapper run --vault aws DB_URL=prod/db-url -- npx mcp-server
  mcp-secret-wrapper run --vault gcp API_KEY=my-secret#api.key -- python agent.py
  mcp-secret-wrapper run --config stack.yaml -- docker compose up`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash == -1 {
				return dserrors.UserError{
					Message:    "no command specified",
					Suggestion: "separate the command with '--', e.g. mcp-secret-wrapper run DB_URL=my-secret -- npx server",
				}
			}
			tokens, command := args[:dash], args[dash:]
			if len(command) == 0 {
				return dserrors.UserError{
					Message:    "no command specified after '--'",
					Suggestion: "put the command to launch after the '--' separator",
				}
			}

			ctx := context.Background()

			v, manifest, err := buildVault(ctx, opts)
			if err != nil {
				return err
			}

			refs, err := collectReferences(manifest, tokens)
			if err != nil {
				return err
			}

			resolved, err := resolve.New(v, opts.logger).Resolve(ctx, refs)
			if err != nil {
				return err
			}

			environment := make([]execenv.EnvVar, 0, len(resolved))
			for _, r := range resolved {
				environment = append(environment, execenv.EnvVar{
					Name:  r.Name,
					Value: secure.NewBufferFromString(r.Value),
				})
			}

			executor := execenv.New(opts.logger)
			return executor.Exec(ctx, execenv.Options{
				Command:       command,
				Environment:   environment,
				AllowOverride: allowOverride,
				PrintVars:     printVars,
				WorkingDir:    workingDir,
			})
		},
	}

	cmd.Flags().BoolVar(&printVars, "print", false, "Print injected variables (values masked)")
	cmd.Flags().BoolVar(&allowOverride, "allow-override", false, "Keep pre-existing environment variables instead of overwriting them")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the command")

	return cmd
}
