package commands

import (
	"context"
	"fmt"

	"github.com/astrix-security/mcp-secret-wrapper/internal/config"
	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/reference"
	"github.com/astrix-security/mcp-secret-wrapper/internal/vaults"
	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

// loadManifest loads the manifest named by --config, or the default file
// when present. Returns nil when no manifest applies.
func loadManifest(opts *rootOptions) (*config.Manifest, error) {
	if opts.configFile != "" {
		return config.Load(opts.configFile)
	}
	return config.LoadDefault()
}

// applyManifest copies manifest settings into the options. Flags always
// win; only unset values are filled from the manifest.
func applyManifest(opts *rootOptions, manifest *config.Manifest) error {
	if manifest == nil || manifest.Vault.Type == "" {
		return nil
	}

	if opts.vaultKind == "" {
		opts.vaultKind = manifest.Vault.Type
	}

	for key, value := range manifest.Vault.Settings {
		switch key {
		case "region":
			fillString(&opts.awsRegion, value)
		case "profile":
			fillString(&opts.awsProfile, value)
		case "endpoint":
			fillString(&opts.awsEndpoint, value)
		case "role_arn":
			fillString(&opts.awsRoleARN, value)
		case "project":
			fillString(&opts.gcpProject, value)
		case "credentials_file":
			fillString(&opts.gcpCredentialsFile, value)
		case "impersonate_service_account":
			fillString(&opts.gcpImpersonate, value)
		case "vault_url":
			fillString(&opts.azureVaultURL, value)
		case "tenant_id":
			fillString(&opts.azureTenantID, value)
		case "client_id":
			fillString(&opts.azureClientID, value)
		case "client_secret":
			fillString(&opts.azureClientSecret, value)
		default:
			return dserrors.ConfigError{
				Field:      key,
				Value:      value,
				Message:    "unknown vault setting",
				Suggestion: "known settings: region, profile, endpoint, role_arn, project, credentials_file, impersonate_service_account, vault_url, tenant_id, client_id, client_secret",
			}
		}
	}
	return nil
}

func fillString(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// buildVault loads the manifest, merges it into the options, and
// constructs the selected vault.
func buildVault(ctx context.Context, opts *rootOptions) (vault.Vault, *config.Manifest, error) {
	manifest, err := loadManifest(opts)
	if err != nil {
		return nil, nil, err
	}
	if err := applyManifest(opts, manifest); err != nil {
		return nil, nil, err
	}

	if opts.vaultKind == "" {
		return nil, nil, dserrors.UserError{
			Message:    "no vault selected",
			Suggestion: "pass --vault (aws, aws-ssm, gcp, azure) or set vault.type in the config file",
		}
	}

	v, err := vaults.New(ctx, opts.vaultKind, opts.vaultOptions())
	if err != nil {
		return nil, nil, err
	}
	return v, manifest, nil
}

// collectReferences merges the manifest env block with command-line
// tokens. Manifest entries come first in declaration order; a CLI token
// with the same variable name replaces the manifest entry in place.
func collectReferences(manifest *config.Manifest, tokens []string) ([]reference.Reference, error) {
	var refs []reference.Reference
	index := make(map[string]int)

	if manifest != nil {
		for _, entry := range manifest.Env {
			ref, err := reference.Parse(entry.Name + "=" + entry.Ref)
			if err != nil {
				return nil, fmt.Errorf("config env entry %q: %w", entry.Name, err)
			}
			index[ref.EnvVar] = len(refs)
			refs = append(refs, ref)
		}
	}

	cliRefs, err := reference.ParseList(tokens)
	if err != nil {
		return nil, err
	}
	for _, ref := range cliRefs {
		if i, exists := index[ref.EnvVar]; exists {
			refs[i] = ref
			continue
		}
		index[ref.EnvVar] = len(refs)
		refs = append(refs, ref)
	}

	return refs, nil
}
