package vault

import (
	"context"
	"fmt"
	"strings"
)

// Fake is an in-memory Vault for tests. It records every call so tests can
// assert on fetch counts and the exact canonical identifiers requested.
type Fake struct {
	// VaultName is returned by Name. Defaults to "fake" when empty.
	VaultName string

	// Secrets maps canonical identifiers to raw payloads.
	Secrets map[string]string

	// Errors maps canonical identifiers to errors returned by FetchRaw
	// instead of a payload.
	Errors map[string]error

	// NormalizeFunc overrides the default identity normalization.
	NormalizeFunc func(identifier string) (string, error)

	// ValidateErr is returned by Validate.
	ValidateErr error

	// FetchCalls counts FetchRaw invocations, including failed ones.
	FetchCalls int

	// Fetched records the canonical identifiers passed to FetchRaw, in order.
	Fetched []string
}

// NewFake creates a Fake preloaded with the given secrets.
func NewFake(secrets map[string]string) *Fake {
	return &Fake{Secrets: secrets}
}

func (f *Fake) Name() string {
	if f.VaultName == "" {
		return "fake"
	}
	return f.VaultName
}

func (f *Fake) Normalize(identifier string) (string, error) {
	if f.NormalizeFunc != nil {
		return f.NormalizeFunc(identifier)
	}
	if strings.TrimSpace(identifier) == "" {
		return "", fmt.Errorf("empty identifier")
	}
	return identifier, nil
}

func (f *Fake) FetchRaw(_ context.Context, canonicalID string) (string, error) {
	f.FetchCalls++
	f.Fetched = append(f.Fetched, canonicalID)

	if err, ok := f.Errors[canonicalID]; ok {
		return "", err
	}
	value, ok := f.Secrets[canonicalID]
	if !ok {
		return "", &NotFoundError{Vault: f.Name(), ID: canonicalID}
	}
	return value, nil
}

func (f *Fake) Validate(_ context.Context) error {
	return f.ValidateErr
}
