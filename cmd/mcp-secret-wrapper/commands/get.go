package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/astrix-security/mcp-secret-wrapper/internal/reference"
	"github.com/astrix-security/mcp-secret-wrapper/internal/resolve"
)

// NewGetCommand creates the get command: resolve a single reference and
// print the value. Intended for debugging wiring, not for piping secrets
// around in scripts.
func NewGetCommand(opts *rootOptions) *cobra.Command {
	var noNewline bool

	cmd := &cobra.Command{
		Use:   "get <REFERENCE | NAME=REFERENCE>",
		Short: "Resolve a single secret reference and print its value",
		Long: `Resolve one reference against the selected vault and write the value to
stdout. The NAME= part is accepted for symmetry with run but ignored.

Examples:
  mcp-secret-wrapper get --vault aws prod/db-creds#password
  mcp-secret-wrapper get --vault gcp projects/p1/secrets/s1/versions/latest`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			if !containsAssignment(token) {
				token = "VALUE=" + token
			}
			ref, err := reference.Parse(token)
			if err != nil {
				return err
			}

			ctx := context.Background()

			v, _, err := buildVault(ctx, opts)
			if err != nil {
				return err
			}

			resolved, err := resolve.New(v, opts.logger).Resolve(ctx, []reference.Reference{ref})
			if err != nil {
				return err
			}

			if noNewline {
				fmt.Print(resolved[0].Value)
			} else {
				fmt.Println(resolved[0].Value)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&noNewline, "no-newline", "n", false, "Do not append a trailing newline")

	return cmd
}

// containsAssignment reports whether the token carries a NAME= prefix. A
// '=' after '#' belongs to the JSON path side and does not count.
func containsAssignment(token string) bool {
	for i := 0; i < len(token); i++ {
		switch token[i] {
		case '=':
			return true
		case '#':
			return false
		}
	}
	return false
}
