// Package errors defines the user-facing error types shared across the
// wrapper. Every error that can reach the terminal carries a message and,
// where one exists, a concrete suggestion for fixing the invocation.
package errors

import (
	"fmt"
	"strings"
)

// UserError is a general error shown to the user with helpful context.
type UserError struct {
	Message    string
	Details    string
	Suggestion string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// FormatError reports a malformed secret reference: a bad token shape, an
// invalid JSON path, or a shorthand identifier that matches none of the
// accepted forms. Token holds the offending input verbatim.
type FormatError struct {
	Token      string
	Message    string
	Suggestion string
}

func (e FormatError) Error() string {
	msg := e.Message
	if e.Token != "" {
		msg = fmt.Sprintf("invalid reference %q: %s", e.Token, e.Message)
	}
	if e.Suggestion != "" {
		msg += "\n  Try: " + e.Suggestion
	}
	return msg
}

// ResolutionError reports that a shorthand identifier needed ambient context
// (a GCP project ID) that could not be resolved from any source. Sources
// lists everything the caller could have used.
type ResolutionError struct {
	Identifier string
	Message    string
	Sources    []string
}

func (e ResolutionError) Error() string {
	msg := e.Message
	if e.Identifier != "" {
		msg = fmt.Sprintf("cannot resolve shorthand reference %q: %s", e.Identifier, e.Message)
	}
	if len(e.Sources) > 0 {
		msg += "\n  Provide one via:"
		for _, s := range e.Sources {
			msg += "\n    - " + s
		}
	}
	return msg
}

// ConfigError represents a configuration problem with helpful context.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  Try: " + e.Suggestion
	}

	return msg
}

// ExitError carries the exit status of the wrapped child process so main can
// mirror it. It is not a resolution failure: by the time an ExitError
// exists, all secrets resolved and the child ran to completion.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}
