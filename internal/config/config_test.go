package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
vault:
  type: gcp
  project: p1
env:
  DB_URL: prod/db-url
  DB_PASSWORD: prod/db-creds#password
  API_KEY: projects/p1/secrets/api-key/versions/2
`

func TestParse(t *testing.T) {
	manifest, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "gcp", manifest.Vault.Type)
	assert.Equal(t, map[string]string{"project": "p1"}, manifest.Vault.Settings)

	require.Len(t, manifest.Env, 3)
	assert.Equal(t, EnvEntry{Name: "DB_URL", Ref: "prod/db-url"}, manifest.Env[0])
	assert.Equal(t, EnvEntry{Name: "DB_PASSWORD", Ref: "prod/db-creds#password"}, manifest.Env[1])
	assert.Equal(t, EnvEntry{Name: "API_KEY", Ref: "projects/p1/secrets/api-key/versions/2"}, manifest.Env[2])
}

// The env block is a YAML mapping, but resolution order must follow the
// order secrets are written down, not map iteration order.
func TestParsePreservesEnvOrder(t *testing.T) {
	manifest, err := Parse([]byte(`
vault:
  type: aws
env:
  ZULU: z
  ALPHA: a
  MIKE: m
`))
	require.NoError(t, err)

	names := make([]string, 0, len(manifest.Env))
	for _, entry := range manifest.Env {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"ZULU", "ALPHA", "MIKE"}, names)
}

func TestParseVaultSettings(t *testing.T) {
	manifest, err := Parse([]byte(`
vault:
  type: aws
  region: eu-west-1
  profile: prod
  role_arn: arn:aws:iam::123456789012:role/secrets-reader
`))
	require.NoError(t, err)

	assert.Equal(t, "aws", manifest.Vault.Type)
	assert.Equal(t, "eu-west-1", manifest.Vault.Settings["region"])
	assert.Equal(t, "prod", manifest.Vault.Settings["profile"])
	assert.Equal(t, "arn:aws:iam::123456789012:role/secrets-reader", manifest.Vault.Settings["role_arn"])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "invalid_yaml",
			yaml: "vault: [unclosed",
		},
		{
			name: "vault_missing_type",
			yaml: "vault:\n  region: eu-west-1\n",
		},
		{
			name: "vault_not_a_mapping",
			yaml: "vault: aws\n",
		},
		{
			name: "env_not_a_mapping",
			yaml: "env:\n  - DB_URL=x\n",
		},
		{
			name: "duplicate_env_entry",
			yaml: "env:\n  DB_URL: a\n  DB_URL: b\n",
		},
		{
			name: "empty_reference",
			yaml: "env:\n  DB_URL: \"\"\n",
		},
		{
			name: "structured_reference",
			yaml: "env:\n  DB_URL:\n    nested: x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseEmptySections(t *testing.T) {
	manifest, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, manifest.Vault.Type)
	assert.Empty(t, manifest.Env)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o600))

	manifest, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gcp", manifest.Vault.Type)
	assert.Len(t, manifest.Env, 3)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoadDefaultAbsent(t *testing.T) {
	t.Chdir(t.TempDir())

	manifest, err := LoadDefault()
	require.NoError(t, err)
	assert.Nil(t, manifest)
}

func TestLoadDefaultPresent(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(DefaultFileName, []byte(sampleManifest), 0o600))

	manifest, err := LoadDefault()
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, "gcp", manifest.Vault.Type)
}
