// Package resolve orchestrates secret resolution: for each reference it
// normalizes the identifier, fetches the raw payload from the vault, and
// applies JSON path extraction when requested.
//
// Resolution is strictly sequential in reference order and fails fast: the
// first error aborts the whole invocation and no partial result is returned.
// The wrapper must never launch the child with partially-injected secrets,
// and fetches after a failure would be wasted work.
package resolve

import (
	"context"
	"fmt"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/extract"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/internal/reference"
	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

// Resolved is one environment variable with its final string value.
type Resolved struct {
	Name  string
	Value string
}

// Pipeline resolves references against a single vault.
type Pipeline struct {
	vault  vault.Vault
	logger *logging.Logger
}

// New creates a resolution pipeline.
func New(v vault.Vault, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		vault:  v,
		logger: logger,
	}
}

// Resolve processes the references in order and returns the resolved
// variables in the same order. On the first error it stops immediately and
// returns only the error, enriched with the originating token.
func (p *Pipeline) Resolve(ctx context.Context, refs []reference.Reference) ([]Resolved, error) {
	resolved := make([]Resolved, 0, len(refs))

	for _, ref := range refs {
		value, err := p.resolveOne(ctx, ref)
		if err != nil {
			return nil, dserrors.UserError{
				Message: fmt.Sprintf("failed to resolve %s from %q", ref.EnvVar, ref.Raw),
				Err:     err,
			}
		}
		resolved = append(resolved, Resolved{Name: ref.EnvVar, Value: value})
	}

	p.logger.Debug("Resolved %d secret reference(s) from %s", len(resolved), p.vault.Name())
	return resolved, nil
}

func (p *Pipeline) resolveOne(ctx context.Context, ref reference.Reference) (string, error) {
	canonical, err := p.vault.Normalize(ref.Identifier)
	if err != nil {
		return "", err
	}
	p.logger.Trace("Normalized %q to %q", ref.Identifier, canonical)

	raw, err := p.vault.FetchRaw(ctx, canonical)
	if err != nil {
		return "", err
	}

	if ref.JSONPath == "" {
		return raw, nil
	}

	p.logger.Trace("Extracting JSON path %q for %s", ref.JSONPath, ref.EnvVar)
	value, err := extract.Value(raw, ref.JSONPath)
	if err != nil {
		return "", err
	}
	return value, nil
}
