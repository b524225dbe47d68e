// Package config loads the optional YAML manifest. The manifest carries the
// vault selection with its settings and a set of environment variable
// references, so teams can check the wiring into the repo and keep the
// command line short.
//
// Declaration order of the env block is preserved: resolution happens in
// the order secrets are written down.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = ".mcp-secrets.yaml"

// Manifest is the parsed configuration file.
type Manifest struct {
	Vault VaultSection
	Env   []EnvEntry
}

// VaultSection selects the vault backend and its settings.
type VaultSection struct {
	// Type is the vault kind (aws, aws-ssm, gcp, azure).
	Type string
	// Settings holds the backend options, e.g. region or project.
	Settings map[string]string
}

// EnvEntry maps an environment variable name to a secret reference.
type EnvEntry struct {
	Name string
	Ref  string
}

type rawManifest struct {
	Vault yaml.Node `yaml:"vault"`
	Env   yaml.Node `yaml:"env"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dserrors.UserError{
			Message:    fmt.Sprintf("cannot read config file %q", path),
			Suggestion: "check the path, or omit --config to run without a manifest",
			Err:        err,
		}
	}
	manifest, err := Parse(data)
	if err != nil {
		return nil, dserrors.UserError{
			Message: fmt.Sprintf("invalid config file %q", path),
			Err:     err,
		}
	}
	return manifest, nil
}

// LoadDefault loads DefaultFileName from the working directory, returning
// (nil, nil) when the file does not exist.
func LoadDefault() (*Manifest, error) {
	if _, err := os.Stat(DefaultFileName); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return Load(DefaultFileName)
}

// Parse parses manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}

	manifest := &Manifest{}

	if !raw.Vault.IsZero() {
		section, err := parseVault(&raw.Vault)
		if err != nil {
			return nil, err
		}
		manifest.Vault = section
	}

	if !raw.Env.IsZero() {
		entries, err := parseEnv(&raw.Env)
		if err != nil {
			return nil, err
		}
		manifest.Env = entries
	}

	return manifest, nil
}

func parseVault(node *yaml.Node) (VaultSection, error) {
	if node.Kind != yaml.MappingNode {
		return VaultSection{}, fmt.Errorf("vault section must be a mapping")
	}

	section := VaultSection{Settings: make(map[string]string)}
	for i := 0; i < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var value string
		if err := valueNode.Decode(&value); err != nil {
			return VaultSection{}, fmt.Errorf("vault setting %q must be a scalar: %w", keyNode.Value, err)
		}
		if keyNode.Value == "type" {
			section.Type = value
			continue
		}
		section.Settings[keyNode.Value] = value
	}

	if section.Type == "" {
		return VaultSection{}, fmt.Errorf("vault section is missing the 'type' key")
	}
	return section, nil
}

// parseEnv walks the mapping node directly so the YAML order survives; a
// plain map would shuffle it.
func parseEnv(node *yaml.Node) ([]EnvEntry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("env section must be a mapping of NAME: reference")
	}

	seen := make(map[string]bool)
	entries := make([]EnvEntry, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		name := keyNode.Value
		if seen[name] {
			return nil, fmt.Errorf("duplicate env entry %q", name)
		}
		seen[name] = true

		var ref string
		if err := valueNode.Decode(&ref); err != nil {
			return nil, fmt.Errorf("env entry %q must be a scalar reference: %w", name, err)
		}
		if ref == "" {
			return nil, fmt.Errorf("env entry %q has an empty reference", name)
		}
		entries = append(entries, EnvEntry{Name: name, Ref: ref})
	}
	return entries, nil
}
