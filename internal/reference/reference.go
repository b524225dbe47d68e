// Package reference parses the wrapper's secret reference tokens:
//
//	TARGET_ENV_VAR=IDENTIFIER[#DOT.PATH]
//
// The identifier is a provider-specific string and may itself contain '#',
// so the JSON path is split off at the LAST '#' in the token. References
// are immutable once parsed and keep their original token for diagnostics.
package reference

import (
	"fmt"
	"strings"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/extract"
)

// Reference is a parsed secret reference bound to a target environment
// variable.
type Reference struct {
	// Raw is the original NAME=IDENTIFIER[#path] token.
	Raw string
	// EnvVar is the environment variable the resolved value is assigned to.
	EnvVar string
	// Identifier is the provider-specific secret identifier, before
	// normalization.
	Identifier string
	// JSONPath is the dot-path to extract from the secret's JSON payload.
	// Empty means the raw payload is used verbatim.
	JSONPath string
}

// Parse parses a single NAME=IDENTIFIER[#path] token.
func Parse(token string) (Reference, error) {
	eq := strings.Index(token, "=")
	if eq < 0 {
		return Reference{}, dserrors.FormatError{
			Token:      token,
			Message:    "missing '='",
			Suggestion: "use the form NAME=IDENTIFIER or NAME=IDENTIFIER#path.to.value",
		}
	}

	name := token[:eq]
	if err := validateEnvVarName(name); err != nil {
		return Reference{}, dserrors.FormatError{
			Token:      token,
			Message:    err.Error(),
			Suggestion: "environment variable names use letters, digits, and underscores, and cannot start with a digit",
		}
	}

	identifier, path, err := Split(token[eq+1:])
	if err != nil {
		// Re-raise format errors with the full token for context.
		if fe, ok := err.(dserrors.FormatError); ok && fe.Token == "" {
			fe.Token = token
			return Reference{}, fe
		}
		return Reference{}, err
	}

	return Reference{
		Raw:        token,
		EnvVar:     name,
		Identifier: identifier,
		JSONPath:   path,
	}, nil
}

// Split separates a reference into identifier and optional JSON path.
//
// The split happens at the last '#' in the input: identifiers may legally
// (if inadvisedly) contain '#', and last-delimiter semantics let a path
// always be appended unambiguously. Splitting on the first '#' would
// misparse such identifiers.
func Split(ref string) (identifier, path string, err error) {
	idx := strings.LastIndex(ref, "#")
	if idx < 0 {
		identifier = ref
	} else {
		identifier = ref[:idx]
		path = ref[idx+1:]
		if path == "" {
			return "", "", dserrors.FormatError{
				Message:    "JSON path cannot be empty after the '#' delimiter",
				Suggestion: "append a path like '#key.subkey', or drop the '#' to use the whole secret",
			}
		}
		if err := extract.ValidatePath(path); err != nil {
			return "", "", err
		}
	}

	if identifier == "" {
		return "", "", dserrors.FormatError{
			Message: "secret identifier cannot be empty",
		}
	}
	return identifier, path, nil
}

// ParseList parses a list of tokens, preserving their order. Duplicate
// target names are rejected: silently resolving the same variable twice
// would make the injected value depend on argument order.
func ParseList(tokens []string) ([]Reference, error) {
	refs := make([]Reference, 0, len(tokens))
	seen := make(map[string]string, len(tokens))

	for _, token := range tokens {
		ref, err := Parse(token)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[ref.EnvVar]; dup {
			return nil, dserrors.FormatError{
				Token:   token,
				Message: fmt.Sprintf("environment variable %q already set by %q", ref.EnvVar, prev),
			}
		}
		seen[ref.EnvVar] = token
		refs = append(refs, ref)
	}
	return refs, nil
}

func validateEnvVarName(name string) error {
	if name == "" {
		return fmt.Errorf("environment variable name is empty")
	}
	for i, r := range name {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return fmt.Errorf("environment variable name %q starts with a digit", name)
			}
		default:
			return fmt.Errorf("environment variable name %q contains invalid character %q", name, r)
		}
	}
	return nil
}
