// Package extract implements the dot-path JSON extraction mini-language
// used by secret references (SECRET_ID#path.to.value). It pulls exactly one
// scalar out of a JSON-object secret and reports a precise diagnostic for
// every way that can fail.
package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
)

// NotJSONError indicates a JSON path was requested but the secret payload
// is not valid JSON. The path delimiter is user-visible syntax, so the
// message steers the caller back to correct usage instead of dumping a bare
// parse error.
type NotJSONError struct {
	Path string
	Err  error
}

func (e *NotJSONError) Error() string {
	return fmt.Sprintf(
		"secret value is not valid JSON: %v\n  Try: if JSON extraction was not intended, remove the '#%s' suffix from the reference",
		e.Err, e.Path)
}

func (e *NotJSONError) Unwrap() error { return e.Err }

// ShapeError indicates the parsed JSON has the wrong shape for the
// requested path: a non-object where traversal needs an object, or a
// terminal value that is not a non-null scalar.
type ShapeError struct {
	// Path is the path prefix that produced the offending value.
	// Empty means the document root.
	Path string
	// Kind is the JSON kind actually found: object, array, string, number,
	// boolean, or null.
	Kind string
	// Want is what the extractor required at that point: "object" while
	// traversing, "scalar" at the terminal.
	Want string
}

func (e *ShapeError) Error() string {
	if e.Want == "object" {
		if e.Path == "" {
			return fmt.Sprintf("secret JSON must be an object to extract a path, got %s", e.Kind)
		}
		return fmt.Sprintf("cannot descend into %q: value is %s, not an object", e.Path, e.Kind)
	}
	if e.Kind == "null" {
		return fmt.Sprintf("value at %q is a null value, only non-null primitives are extractable", e.Path)
	}
	return fmt.Sprintf(
		"cannot extract structured data at %q: value is %s; arrays and objects are unsupported, store them as separate secrets",
		e.Path, e.Kind)
}

// KeyNotFoundError indicates a path segment is absent from the object being
// traversed. Available lists the keys that do exist at that point.
type KeyNotFoundError struct {
	Key       string
	Path      string // prefix at which the lookup happened; empty = top level
	Available []string
}

func (e *KeyNotFoundError) Error() string {
	where := "at top level"
	if e.Path != "" {
		where = fmt.Sprintf("at %q", e.Path)
	}
	keys := "(none)"
	if len(e.Available) > 0 {
		keys = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("key %q not found %s (available keys: %s)", e.Key, where, keys)
}

// ValidatePath checks the shape of a dot-path before any JSON parsing: it
// must be non-empty, must not start or end with a dot, and must not contain
// empty segments.
func ValidatePath(path string) error {
	var reason string
	switch {
	case path == "":
		reason = "path is empty"
	case strings.HasPrefix(path, "."):
		reason = "path must not start with '.'"
	case strings.HasSuffix(path, "."):
		reason = "path must not end with '.'"
	case strings.Contains(path, ".."):
		reason = "path must not contain empty segments"
	}
	if reason == "" {
		return nil
	}
	return dserrors.FormatError{
		Message:    fmt.Sprintf("invalid JSON path %q: %s", path, reason),
		Suggestion: "use dot-separated keys, like 'key.subkey'",
	}
}

// Value parses raw as JSON and extracts the scalar at the dot-separated
// path, serialized to its string form. The document root and every
// intermediate value must be a JSON object; the terminal value must be a
// non-null string, number, or boolean.
func Value(raw, path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	// UseNumber keeps number terminals as their literal digits; float64
	// decoding would corrupt integers above 2^53.
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return "", &NotJSONError{Path: path, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", &NotJSONError{Path: path, Err: fmt.Errorf("unexpected data after JSON value")}
	}

	root, ok := doc.(map[string]interface{})
	if !ok {
		return "", &ShapeError{Kind: kindOf(doc), Want: "object"}
	}

	segments := strings.Split(path, ".")
	current := root
	for i, segment := range segments {
		value, exists := current[segment]
		if !exists {
			return "", &KeyNotFoundError{
				Key:       segment,
				Path:      strings.Join(segments[:i], "."),
				Available: sortedKeys(current),
			}
		}

		prefix := strings.Join(segments[:i+1], ".")
		if i == len(segments)-1 {
			return scalarString(value, prefix)
		}

		next, ok := value.(map[string]interface{})
		if !ok {
			return "", &ShapeError{Path: prefix, Kind: kindOf(value), Want: "object"}
		}
		current = next
	}

	// Unreachable: ValidatePath guarantees at least one segment.
	return "", fmt.Errorf("empty path after validation")
}

// scalarString converts a terminal JSON value to its environment string
// form. Only non-null primitives are allowed.
func scalarString(value interface{}, path string) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", &ShapeError{Path: path, Kind: kindOf(value), Want: "scalar"}
	}
}

func kindOf(value interface{}) string {
	switch value.(type) {
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
