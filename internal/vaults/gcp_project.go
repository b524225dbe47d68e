package vaults

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
)

// projectSource identifies where an implicit GCP project ID came from.
type projectSource string

const (
	sourceExplicit     projectSource = "explicit"
	sourceKeyFile      projectSource = "keyFile"
	sourceCredentials  projectSource = "credentials"
	sourceGcloudConfig projectSource = "gcloudConfig"
)

// projectContext is the session's resolved GCP project. It is computed once
// when the vault is created and never recomputed, even if a later lookup
// could succeed where the initial one failed.
type projectContext struct {
	ID     string
	Source projectSource
}

// projectIDSources enumerates, for error messages, every place a project ID
// can come from, in resolution order.
var projectIDSources = []string{
	"the --gcp-project flag (or GOOGLE_CLOUD_PROJECT / GCLOUD_PROJECT / GCP_PROJECT)",
	"a service account key file (--gcp-credentials-file or GOOGLE_APPLICATION_CREDENTIALS)",
	"inline credentials JSON (GOOGLE_CREDENTIALS)",
	"the gcloud CLI default project (gcloud config set project)",
}

// resolveProjectContext walks the project-ID sources in order and takes the
// first non-empty result. Each source is a plain function; there is no
// dynamic dispatch. An empty result is not an error here: a vault with no
// project can still fetch fully-qualified references.
func resolveProjectContext(cfg GCPConfig, logger *logging.Logger) projectContext {
	resolvers := []func() projectContext{
		func() projectContext { return explicitProject(cfg) },
		func() projectContext { return keyFileProject(cfg, logger) },
		func() projectContext { return inlineCredentialsProject(cfg, logger) },
		func() projectContext { return gcloudConfigProject(logger) },
	}

	for _, resolve := range resolvers {
		if ctx := resolve(); ctx.ID != "" {
			logger.Debug("Resolved GCP project %q from %s", ctx.ID, ctx.Source)
			return ctx
		}
	}

	logger.Debug("No GCP project ID resolved; only fully-qualified references will work")
	return projectContext{}
}

func explicitProject(cfg GCPConfig) projectContext {
	if cfg.ProjectID != "" {
		return projectContext{ID: cfg.ProjectID, Source: sourceExplicit}
	}
	for _, env := range []string{"GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT", "GCP_PROJECT"} {
		if id := os.Getenv(env); id != "" {
			return projectContext{ID: id, Source: sourceExplicit}
		}
	}
	return projectContext{}
}

// keyFileProject reads the project_id embedded in a service account key
// file, located either by explicit configuration or by the ambient
// GOOGLE_APPLICATION_CREDENTIALS path.
func keyFileProject(cfg GCPConfig, logger *logging.Logger) projectContext {
	path := cfg.CredentialsFile
	if path == "" {
		path = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if path == "" {
		return projectContext{}
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return projectContext{}
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("Cannot read credentials file %s: %v", path, err)
		return projectContext{}
	}
	if id := projectIDFromCredentialJSON(data); id != "" {
		return projectContext{ID: id, Source: sourceKeyFile}
	}
	return projectContext{}
}

// inlineCredentialsProject reads the project_id from credential material
// supplied directly in the environment rather than via a file path.
func inlineCredentialsProject(cfg GCPConfig, logger *logging.Logger) projectContext {
	raw := cfg.CredentialsJSON
	if raw == "" {
		raw = os.Getenv("GOOGLE_CREDENTIALS")
	}
	if raw == "" {
		return projectContext{}
	}
	if id := projectIDFromCredentialJSON([]byte(raw)); id != "" {
		return projectContext{ID: id, Source: sourceCredentials}
	}
	logger.Debug("Inline credentials present but carry no project_id")
	return projectContext{}
}

func projectIDFromCredentialJSON(data []byte) string {
	var key struct {
		ProjectID      string `json:"project_id"`
		QuotaProjectID string `json:"quota_project_id"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return ""
	}
	if key.ProjectID != "" {
		return key.ProjectID
	}
	return key.QuotaProjectID
}

// gcloudConfigProject reads the default project from the gcloud CLI's
// configuration: CLOUDSDK_CORE_PROJECT if set, otherwise the active named
// configuration under $CLOUDSDK_CONFIG (default ~/.config/gcloud).
func gcloudConfigProject(logger *logging.Logger) projectContext {
	if id := os.Getenv("CLOUDSDK_CORE_PROJECT"); id != "" {
		return projectContext{ID: id, Source: sourceGcloudConfig}
	}

	configDir := os.Getenv("CLOUDSDK_CONFIG")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return projectContext{}
		}
		configDir = filepath.Join(home, ".config", "gcloud")
	}

	active := "default"
	if data, err := os.ReadFile(filepath.Join(configDir, "active_config")); err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			active = name
		}
	}

	data, err := os.ReadFile(filepath.Join(configDir, "configurations", "config_"+active))
	if err != nil {
		return projectContext{}
	}
	if id := parseGcloudCoreProject(string(data)); id != "" {
		logger.Debug("Using gcloud configuration %q", active)
		return projectContext{ID: id, Source: sourceGcloudConfig}
	}
	return projectContext{}
}

// parseGcloudCoreProject extracts `project` from the [core] section of a
// gcloud configuration file. The format is INI-like; a full parser is not
// warranted for one key.
func parseGcloudCoreProject(content string) string {
	inCore := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inCore = line == "[core]"
			continue
		}
		if !inCore {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if found && strings.TrimSpace(key) == "project" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
