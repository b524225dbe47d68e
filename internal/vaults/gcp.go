package vaults

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

const gcpCanonicalPrefix = "projects/"

// SecretManagerAPI is the subset of the GCP Secret Manager client the vault
// uses. *secretmanager.Client satisfies it; tests inject a fake.
type SecretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// GCPConfig holds GCP Secret Manager configuration.
type GCPConfig struct {
	// ProjectID is the explicit project parameter. When empty, the project
	// is resolved from the ambient sources (environment, key file, inline
	// credentials, gcloud config), in that order.
	ProjectID string
	// CredentialsFile is a path to a service account key file. Overrides
	// GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsFile string
	// CredentialsJSON is inline service account key material.
	CredentialsJSON string
	// ImpersonateServiceAccount, when set, exchanges the base credentials
	// for tokens impersonating the named service account.
	ImpersonateServiceAccount string
}

// GCPVault fetches secrets from Google Cloud Secret Manager.
//
// The canonical identifier form is projects/P/secrets/S/versions/V.
// Shorthand identifiers are expanded against the project context resolved
// once at construction; see Normalize.
type GCPVault struct {
	client  SecretManagerAPI
	logger  *logging.Logger
	project projectContext
}

// GCPOption is a functional option for configuring the GCP vault.
type GCPOption func(*GCPVault)

// WithSecretManagerClient sets a custom Secret Manager client (for testing).
func WithSecretManagerClient(client SecretManagerAPI) GCPOption {
	return func(v *GCPVault) {
		v.client = client
	}
}

// NewGCPVault creates a GCP Secret Manager vault. The project context is
// resolved here, exactly once; a missing project ID is not an error at this
// point because fully-qualified references remain usable without one.
func NewGCPVault(ctx context.Context, cfg GCPConfig, logger *logging.Logger, opts ...GCPOption) (*GCPVault, error) {
	v := &GCPVault{
		logger:  logger,
		project: resolveProjectContext(cfg, logger),
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.client == nil {
		client, err := createSecretManagerClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
		}
		v.client = client
	}

	return v, nil
}

func createSecretManagerClient(ctx context.Context, cfg GCPConfig) (*secretmanager.Client, error) {
	var clientOptions []option.ClientOption

	if cfg.CredentialsFile != "" {
		path := cfg.CredentialsFile
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			path = filepath.Join(home, path[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(path))
	} else if cfg.CredentialsJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	if cfg.ImpersonateServiceAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: cfg.ImpersonateServiceAccount,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create impersonated credentials: %w", err)
		}
		clientOptions = append(clientOptions, option.WithTokenSource(ts))
	}

	return secretmanager.NewClient(ctx, clientOptions...)
}

// Name returns the vault identifier.
func (v *GCPVault) Name() string {
	return "gcp"
}

// ProjectID returns the resolved project context ("" when none resolved).
func (v *GCPVault) ProjectID() string {
	return v.project.ID
}

// Normalize expands a GCP secret identifier to the canonical
// projects/P/secrets/S/versions/V form.
//
// Accepted shapes:
//
//	projects/P/secrets/S[/versions/V]  kept as-is, version defaulted to latest
//	SECRET                             bare name in the resolved project
//	SECRET/VERSION                     name and version in the resolved project
//	PROJECT/SECRET                     when PROJECT equals the resolved project ID
//	PROJECT/SECRET/VERSION             explicit project
//
// The two-segment form is ambiguous; it is read as PROJECT/SECRET only when
// the first segment is exactly the resolved project ID, never by pattern
// matching. A secret whose name happens to equal the project ID therefore
// shadows the SECRET/VERSION reading.
func (v *GCPVault) Normalize(identifier string) (string, error) {
	if strings.HasPrefix(identifier, gcpCanonicalPrefix) {
		if strings.Contains(identifier, "/versions/") {
			return identifier, nil
		}
		return identifier + "/versions/latest", nil
	}

	// Every shorthand shape needs the session project: bare names and
	// SECRET/VERSION expand with it, and the two-segment tie-break compares
	// against it.
	if v.project.ID == "" {
		return "", dserrors.ResolutionError{
			Identifier: identifier,
			Message:    "no GCP project ID could be resolved for this session",
			Sources:    projectIDSources,
		}
	}

	segments := strings.Split(identifier, "/")
	for _, s := range segments {
		if s == "" {
			return "", v.shapeError(identifier)
		}
	}

	switch len(segments) {
	case 1:
		return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", v.project.ID, segments[0]), nil
	case 2:
		if segments[0] == v.project.ID {
			return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", segments[0], segments[1]), nil
		}
		return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", v.project.ID, segments[0], segments[1]), nil
	case 3:
		return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", segments[0], segments[1], segments[2]), nil
	default:
		return "", v.shapeError(identifier)
	}
}

func (v *GCPVault) shapeError(identifier string) error {
	return dserrors.FormatError{
		Token:   identifier,
		Message: "unrecognized GCP secret reference shape",
		Suggestion: "use one of: projects/P/secrets/S[/versions/V], SECRET, SECRET/VERSION, " +
			"PROJECT/SECRET (PROJECT must match the resolved project ID), or PROJECT/SECRET/VERSION",
	}
}

// FetchRaw accesses a secret version and returns its payload.
func (v *GCPVault) FetchRaw(ctx context.Context, canonicalID string) (string, error) {
	v.logger.Trace("Accessing GCP secret version %s", canonicalID)

	result, err := v.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: canonicalID,
	})
	if err != nil {
		return "", v.mapError(err, canonicalID)
	}

	if result.Payload == nil || result.Payload.Data == nil {
		return "", fmt.Errorf("secret version %s has no payload", canonicalID)
	}
	return string(result.Payload.Data), nil
}

// mapError translates gRPC status codes into the vault error taxonomy.
func (v *GCPVault) mapError(err error, canonicalID string) error {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.NotFound:
			return &vault.NotFoundError{Vault: v.Name(), ID: canonicalID}
		case codes.PermissionDenied, codes.Unauthenticated:
			return &vault.PermissionError{Vault: v.Name(), ID: canonicalID, Err: err}
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return &vault.UnavailableError{Vault: v.Name(), Err: err}
		}
	}
	return fmt.Errorf("GCP Secret Manager error for %s: %w", canonicalID, err)
}

// Validate checks connectivity by probing a well-known nonexistent secret;
// a NotFound answer proves the credentials and endpoint work. With no
// resolved project the vault degrades to canonical references only, which
// is not a validation failure.
func (v *GCPVault) Validate(ctx context.Context) error {
	if v.project.ID == "" {
		v.logger.Warn("No GCP project ID resolved; shorthand references will fail, fully-qualified ones still work")
		return nil
	}

	probe := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", v.project.ID, "mcp-secret-wrapper-probe")
	_, err := v.FetchRaw(ctx, probe)
	if err == nil {
		return nil
	}
	var notFound *vault.NotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}
