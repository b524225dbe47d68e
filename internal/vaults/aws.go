package vaults

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

// SecretsManagerAPI is the subset of the AWS Secrets Manager client the
// vault uses. This allows mock injection in tests.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// AWSConfig holds AWS-specific configuration shared by the Secrets Manager
// and Parameter Store vaults.
type AWSConfig struct {
	Region  string
	Profile string
	// Endpoint overrides the service endpoint (LocalStack, testing).
	Endpoint string
	// Static credentials for testing against local stacks.
	AccessKeyID     string
	SecretAccessKey string
	// RoleARN, when set, assumes the role via STS before any fetch.
	RoleARN string
}

// AWSVault fetches secrets from AWS Secrets Manager.
//
// Secrets Manager accepts both plain names and full ARNs natively, so
// Normalize is the identity function for this vault.
type AWSVault struct {
	client SecretsManagerAPI
	logger *logging.Logger
	region string
}

// AWSOption is a functional option for configuring the AWS vault.
type AWSOption func(*AWSVault)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing).
func WithSecretsManagerClient(client SecretsManagerAPI) AWSOption {
	return func(v *AWSVault) {
		v.client = client
	}
}

// NewAWSVault creates an AWS Secrets Manager vault. Credential discovery
// (shared config, SSO, IMDS, env) is delegated entirely to the SDK's
// default chain.
func NewAWSVault(ctx context.Context, cfg AWSConfig, logger *logging.Logger, opts ...AWSOption) (*AWSVault, error) {
	v := &AWSVault{
		logger: logger,
		region: cfg.Region,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.client == nil {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		v.region = awsCfg.Region

		var clientOpts []func(*secretsmanager.Options)
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		v.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	}

	return v, nil
}

// loadAWSConfig builds the SDK config used by both AWS-backed vaults:
// region and profile selection, optional static credentials, and optional
// role assumption layered on top of whatever the default chain found.
func loadAWSConfig(ctx context.Context, cfg AWSConfig) (aws.Config, error) {
	var configOpts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.RoleARN != "" {
		stsClient := sts.NewFromConfig(awsCfg)
		provider := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = "mcp-secret-wrapper"
		})
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
	}

	return awsCfg, nil
}

// Name returns the vault identifier.
func (v *AWSVault) Name() string {
	return "aws"
}

// Normalize passes AWS identifiers through unchanged: GetSecretValue
// accepts ARNs and plain names directly, so there is nothing to rewrite.
func (v *AWSVault) Normalize(identifier string) (string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", dserrors.FormatError{
			Message: "secret identifier cannot be empty",
		}
	}
	return identifier, nil
}

// FetchRaw retrieves the current version of a secret.
func (v *AWSVault) FetchRaw(ctx context.Context, canonicalID string) (string, error) {
	v.logger.Trace("Fetching AWS secret %s", canonicalID)

	result, err := v.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(canonicalID),
	})
	if err != nil {
		return "", v.mapError(err, canonicalID)
	}

	if result.SecretString != nil {
		return *result.SecretString, nil
	}
	if result.SecretBinary != nil {
		return string(result.SecretBinary), nil
	}
	return "", fmt.Errorf("secret %q has no value", canonicalID)
}

func (v *AWSVault) mapError(err error, canonicalID string) error {
	var notFound *smtypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &vault.NotFoundError{Vault: v.Name(), ID: canonicalID}
	}
	if isAWSAuthError(err) {
		return &vault.PermissionError{Vault: v.Name(), ID: canonicalID, Err: err}
	}
	if isAWSUnavailableError(err) {
		return &vault.UnavailableError{Vault: v.Name(), Err: err}
	}
	return fmt.Errorf("AWS Secrets Manager error for %s: %w", canonicalID, err)
}

// Validate verifies credentials with a minimal ListSecrets call. Failures
// go through the same mapping as fetches, so an unreachable endpoint
// reports as unavailable rather than a credential problem.
func (v *AWSVault) Validate(ctx context.Context) error {
	_, err := v.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return v.mapError(err, "secrets listing")
	}
	return nil
}

// The SDK surfaces many auth failures as generic API errors; string
// matching mirrors how the service names them.
func isAWSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "InvalidUserID") ||
		strings.Contains(errStr, "ExpiredToken") ||
		strings.Contains(errStr, "Forbidden")
}

func isAWSUnavailableError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "ServiceUnavailable") ||
		strings.Contains(errStr, "Throttling") ||
		strings.Contains(errStr, "RequestTimeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host")
}
