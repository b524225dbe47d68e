// Package commands implements the CLI surface. Each command gets its own
// file and constructor; shared flag state lives in rootOptions and is
// wired up by NewRootCommand.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/internal/vaults"
)

// BuildInfo carries the version stamp injected at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// rootOptions holds the persistent flags shared by every command. The
// logger is created in PersistentPreRun once the flags are parsed.
type rootOptions struct {
	configFile string
	vaultKind  string
	debug      bool
	verbose    bool
	noColor    bool

	awsRegion   string
	awsProfile  string
	awsEndpoint string
	awsRoleARN  string

	gcpProject         string
	gcpCredentialsFile string
	gcpImpersonate     string

	azureVaultURL     string
	azureTenantID     string
	azureClientID     string
	azureClientSecret string

	logger *logging.Logger
}

// vaultOptions assembles the backend configuration from the parsed flags.
func (o *rootOptions) vaultOptions() vaults.Options {
	return vaults.Options{
		Logger: o.logger,
		AWS: vaults.AWSConfig{
			Region:   o.awsRegion,
			Profile:  o.awsProfile,
			Endpoint: o.awsEndpoint,
			RoleARN:  o.awsRoleARN,
		},
		GCP: vaults.GCPConfig{
			ProjectID:                 o.gcpProject,
			CredentialsFile:           o.gcpCredentialsFile,
			ImpersonateServiceAccount: o.gcpImpersonate,
		},
		Azure: vaults.AzureConfig{
			VaultURL:     o.azureVaultURL,
			TenantID:     o.azureTenantID,
			ClientID:     o.azureClientID,
			ClientSecret: o.azureClientSecret,
		},
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mcp-secret-wrapper",
		Short: "Launch commands with secrets injected from cloud vaults",
		Long: `mcp-secret-wrapper resolves secret references against a cloud vault
(AWS Secrets Manager, AWS SSM Parameter Store, GCP Secret Manager, or
Azure Key Vault) and launches a command with the values injected as
environment variables. Secrets never touch disk or command lines.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.New(opts.debug, opts.verbose, opts.noColor)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Config file path (default: .mcp-secrets.yaml if present)")
	flags.StringVar(&opts.vaultKind, "vault", "", "Vault type: aws, aws-ssm, gcp, azure")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable trace logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	flags.StringVar(&opts.awsRegion, "aws-region", "", "AWS region (falls back to SDK defaults)")
	flags.StringVar(&opts.awsProfile, "aws-profile", "", "AWS shared config profile")
	flags.StringVar(&opts.awsEndpoint, "aws-endpoint", "", "Custom AWS endpoint (e.g. LocalStack)")
	flags.StringVar(&opts.awsRoleARN, "aws-role-arn", "", "IAM role to assume before fetching secrets")

	flags.StringVar(&opts.gcpProject, "gcp-project", "", "GCP project for shorthand secret references")
	flags.StringVar(&opts.gcpCredentialsFile, "gcp-credentials-file", "", "Path to a GCP service account key file")
	flags.StringVar(&opts.gcpImpersonate, "gcp-impersonate-service-account", "", "Service account to impersonate")

	flags.StringVar(&opts.azureVaultURL, "azure-vault-url", "", "Azure Key Vault URL")
	flags.StringVar(&opts.azureTenantID, "azure-tenant-id", "", "Azure AD tenant ID")
	flags.StringVar(&opts.azureClientID, "azure-client-id", "", "Azure service principal client ID")
	flags.StringVar(&opts.azureClientSecret, "azure-client-secret", "", "Azure service principal client secret")

	rootCmd.AddCommand(
		NewRunCommand(opts),
		NewGetCommand(opts),
		NewDoctorCommand(opts),
		NewVaultsCommand(opts),
	)

	return rootCmd
}
