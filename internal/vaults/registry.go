// Package vaults implements the concrete vault backends and the explicit
// registry that maps a vault kind to its constructor. The registry is built
// fresh at process start and passed by parameter; there is no package-level
// mutable registration.
package vaults

import (
	"context"
	"fmt"
	"sort"
	"strings"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

// Options carries the per-backend configuration collected from flags and
// the optional manifest.
type Options struct {
	Logger *logging.Logger
	AWS    AWSConfig
	GCP    GCPConfig
	Azure  AzureConfig
}

// Factory constructs a vault from the shared options.
type Factory func(ctx context.Context, opts Options) (vault.Vault, error)

// Registry returns the table of supported vault kinds.
func Registry() map[string]Factory {
	return map[string]Factory{
		"aws": func(ctx context.Context, opts Options) (vault.Vault, error) {
			return NewAWSVault(ctx, opts.AWS, opts.Logger)
		},
		"aws-ssm": func(ctx context.Context, opts Options) (vault.Vault, error) {
			return NewSSMVault(ctx, opts.AWS, opts.Logger)
		},
		"gcp": func(ctx context.Context, opts Options) (vault.Vault, error) {
			return NewGCPVault(ctx, opts.GCP, opts.Logger)
		},
		"azure": func(ctx context.Context, opts Options) (vault.Vault, error) {
			return NewAzureVault(opts.Azure, opts.Logger)
		},
	}
}

// Kinds lists the supported vault kinds, sorted.
func Kinds() []string {
	registry := Registry()
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// New constructs the vault for the given kind.
func New(ctx context.Context, kind string, opts Options) (vault.Vault, error) {
	factory, ok := Registry()[kind]
	if !ok {
		return nil, dserrors.ConfigError{
			Field:      "vault",
			Value:      kind,
			Message:    "unknown vault type",
			Suggestion: fmt.Sprintf("use one of: %s", strings.Join(Kinds(), ", ")),
		}
	}
	return factory(ctx, opts)
}
