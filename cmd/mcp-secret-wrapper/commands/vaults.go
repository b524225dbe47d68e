package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/astrix-security/mcp-secret-wrapper/internal/vaults"
)

// NewVaultsCommand creates the vaults command: list the supported vault
// types and the identifier shapes each accepts.
func NewVaultsCommand(opts *rootOptions) *cobra.Command {
	descriptions := map[string][2]string{
		"aws":     {"AWS Secrets Manager", "name or full ARN, passed through unchanged"},
		"aws-ssm": {"AWS SSM Parameter Store", "parameter name or path, e.g. /app/prod/db-password"},
		"gcp":     {"GCP Secret Manager", "canonical projects/P/secrets/S/versions/V, or shorthand NAME, NAME/VERSION, PROJECT/NAME, PROJECT/NAME/VERSION"},
		"azure":   {"Azure Key Vault", "NAME or NAME/VERSION"},
	}

	cmd := &cobra.Command{
		Use:   "vaults",
		Short: "List supported vault types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tSERVICE\tIDENTIFIERS")
			for _, kind := range vaults.Kinds() {
				d := descriptions[kind]
				fmt.Fprintf(w, "%s\t%s\t%s\n", kind, d[0], d[1])
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "GCP shorthand requires a resolvable project (--gcp-project, key file,")
			fmt.Fprintln(out, "GOOGLE_CLOUD_PROJECT, or the gcloud config). A two-segment reference")
			fmt.Fprintln(out, "is read as PROJECT/NAME when the first segment matches the resolved")
			fmt.Fprintln(out, "project, and as NAME/VERSION otherwise.")
			return nil
		},
	}

	return cmd
}
