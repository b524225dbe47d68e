// Package vault defines the capability interface that every secret vault
// backend (AWS Secrets Manager, GCP Secret Manager, Azure Key Vault, SSM
// Parameter Store) implements, together with the error kinds the resolution
// pipeline distinguishes.
//
// A Vault does exactly two interesting things: it normalizes a
// caller-supplied identifier into the fully-qualified form its API accepts,
// and it fetches the raw secret payload for a canonical identifier. The
// pipeline never depends on a concrete backend, only on this interface.
package vault

import "context"

// Vault is the capability exposed by a secret store backend.
//
// Implementations must be safe for use from a single goroutine; the
// resolution pipeline is strictly sequential, so no internal locking is
// required beyond whatever the SDK clients need.
type Vault interface {
	// Name returns the stable identifier of the backend ("aws", "gcp", ...).
	// It is used in error messages and the vault registry, never for dispatch.
	Name() string

	// Normalize converts a provider-specific shorthand or partial identifier
	// into the canonical fully-qualified identifier the backend accepts.
	// Normalizing an already-canonical identifier is a no-op apart from
	// defaulting a missing version component. Normalize is pure: it consults
	// only the identifier and context captured when the vault was created.
	Normalize(identifier string) (string, error)

	// FetchRaw retrieves the raw secret payload for a canonical identifier.
	// The returned string is the payload exactly as stored; any JSON path
	// extraction happens downstream. Errors are one of NotFoundError,
	// PermissionError, UnavailableError, or a wrapped SDK error.
	FetchRaw(ctx context.Context, canonicalID string) (string, error)

	// Validate checks that the vault is usable with its current
	// configuration and credentials. It performs at most one cheap API call.
	Validate(ctx context.Context) error
}

// NotFoundError indicates the secret does not exist in the vault.
type NotFoundError struct {
	Vault string
	ID    string
}

func (e *NotFoundError) Error() string {
	return "secret not found in " + e.Vault + ": " + e.ID
}

// PermissionError indicates the caller's credentials were rejected or lack
// access to the requested secret.
type PermissionError struct {
	Vault string
	ID    string
	Err   error
}

func (e *PermissionError) Error() string {
	msg := "permission denied by " + e.Vault
	if e.ID != "" {
		msg += " for " + e.ID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PermissionError) Unwrap() error { return e.Err }

// UnavailableError indicates the vault service could not be reached or
// answered with a transient failure. The wrapper does not retry; the error
// propagates and aborts the invocation.
type UnavailableError struct {
	Vault string
	Err   error
}

func (e *UnavailableError) Error() string {
	msg := e.Vault + " is unavailable"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }
