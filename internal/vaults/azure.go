package vaults

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

// AzureSecretsAPI is the subset of the Key Vault client the vault uses.
// Listing is deliberately excluded: the pager type is impractical to mock,
// so Validate probes with GetSecret instead.
type AzureSecretsAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureConfig holds Azure Key Vault configuration.
type AzureConfig struct {
	// VaultURL is the Key Vault endpoint, e.g. https://my-vault.vault.azure.net/.
	VaultURL string
	// Service principal credentials. When unset, DefaultAzureCredential
	// handles discovery (managed identity, Azure CLI, environment).
	TenantID     string
	ClientID     string
	ClientSecret string
}

// AzureVault fetches secrets from Azure Key Vault. Identifiers are NAME or
// NAME/VERSION; the latest version is used when none is given.
type AzureVault struct {
	client   AzureSecretsAPI
	logger   *logging.Logger
	vaultURL string
}

// AzureOption is a functional option for configuring the Azure vault.
type AzureOption func(*AzureVault)

// WithAzureSecretsClient sets a custom Key Vault client (for testing).
func WithAzureSecretsClient(client AzureSecretsAPI) AzureOption {
	return func(v *AzureVault) {
		v.client = client
	}
}

// NewAzureVault creates an Azure Key Vault vault.
func NewAzureVault(cfg AzureConfig, logger *logging.Logger, opts ...AzureOption) (*AzureVault, error) {
	v := &AzureVault{
		logger:   logger,
		vaultURL: cfg.VaultURL,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.client == nil {
		if cfg.VaultURL == "" {
			return nil, dserrors.ConfigError{
				Field:      "vault_url",
				Message:    "vault URL is required for Azure Key Vault",
				Suggestion: "pass --azure-vault-url https://<vault-name>.vault.azure.net/",
			}
		}
		if _, err := url.Parse(cfg.VaultURL); err != nil {
			return nil, dserrors.ConfigError{
				Field:      "vault_url",
				Value:      cfg.VaultURL,
				Message:    "invalid vault URL",
				Suggestion: "use the form https://<vault-name>.vault.azure.net/",
			}
		}

		client, err := createAzureSecretsClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Key Vault client: %w", err)
		}
		v.client = client
	}

	return v, nil
}

func createAzureSecretsClient(cfg AzureConfig) (*azsecrets.Client, error) {
	var cred azcore.TokenCredential
	var err error

	if cfg.ClientSecret != "" {
		cred, err = azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	return azsecrets.NewClient(cfg.VaultURL, cred, nil)
}

// Name returns the vault identifier.
func (v *AzureVault) Name() string {
	return "azure"
}

// Normalize validates the NAME or NAME/VERSION shape. Key Vault addresses
// secrets by name, so no expansion is needed; an omitted version means the
// current one.
func (v *AzureVault) Normalize(identifier string) (string, error) {
	segments := strings.Split(identifier, "/")
	if len(segments) > 2 {
		return "", dserrors.FormatError{
			Token:      identifier,
			Message:    "unrecognized Key Vault secret reference shape",
			Suggestion: "use NAME or NAME/VERSION",
		}
	}
	for _, s := range segments {
		if s == "" {
			return "", dserrors.FormatError{
				Token:   identifier,
				Message: "secret name and version cannot be empty",
			}
		}
	}
	return identifier, nil
}

// FetchRaw retrieves a secret value from Key Vault.
func (v *AzureVault) FetchRaw(ctx context.Context, canonicalID string) (string, error) {
	name, version, _ := strings.Cut(canonicalID, "/")

	v.logger.Trace("Fetching Azure Key Vault secret %s", name)

	resp, err := v.client.GetSecret(ctx, name, version, nil)
	if err != nil {
		return "", v.mapError(err, canonicalID)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", name)
	}
	return *resp.Value, nil
}

func (v *AzureVault) mapError(err error, canonicalID string) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch {
		case respErr.StatusCode == 404:
			return &vault.NotFoundError{Vault: v.Name(), ID: canonicalID}
		case respErr.StatusCode == 401 || respErr.StatusCode == 403:
			return &vault.PermissionError{Vault: v.Name(), ID: canonicalID, Err: err}
		case respErr.StatusCode == 429 || respErr.StatusCode >= 500:
			return &vault.UnavailableError{Vault: v.Name(), Err: err}
		}
	}
	return fmt.Errorf("Azure Key Vault error for %s: %w", canonicalID, err)
}

// Validate probes the vault with a GetSecret on a well-known nonexistent
// name; a 404 proves the endpoint and credentials work.
func (v *AzureVault) Validate(ctx context.Context) error {
	_, err := v.FetchRaw(ctx, "mcp-secret-wrapper-probe")
	if err == nil {
		return nil
	}
	var notFound *vault.NotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}
