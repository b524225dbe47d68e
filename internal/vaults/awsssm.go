package vaults

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

// SSMAPI is the subset of the SSM client the Parameter Store vault uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// SSMVault fetches SecureString parameters from AWS Systems Manager
// Parameter Store. Identifiers are parameter names or full paths
// (/app/prod/db-password) and pass through unchanged.
type SSMVault struct {
	client SSMAPI
	logger *logging.Logger
}

// SSMOption is a functional option for configuring the SSM vault.
type SSMOption func(*SSMVault)

// WithSSMClient sets a custom SSM client (for testing).
func WithSSMClient(client SSMAPI) SSMOption {
	return func(v *SSMVault) {
		v.client = client
	}
}

// NewSSMVault creates a Parameter Store vault sharing the AWS config
// handling (region, profile, static credentials, assume-role) of the
// Secrets Manager vault.
func NewSSMVault(ctx context.Context, cfg AWSConfig, logger *logging.Logger, opts ...SSMOption) (*SSMVault, error) {
	v := &SSMVault{logger: logger}

	for _, opt := range opts {
		opt(v)
	}

	if v.client == nil {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*ssm.Options)
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		v.client = ssm.NewFromConfig(awsCfg, clientOpts...)
	}

	return v, nil
}

// Name returns the vault identifier.
func (v *SSMVault) Name() string {
	return "aws-ssm"
}

// Normalize passes parameter names through unchanged; GetParameter accepts
// names, paths, and ARNs natively.
func (v *SSMVault) Normalize(identifier string) (string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", dserrors.FormatError{
			Message: "parameter name cannot be empty",
		}
	}
	return identifier, nil
}

// FetchRaw retrieves a parameter, decrypting SecureString values.
func (v *SSMVault) FetchRaw(ctx context.Context, canonicalID string) (string, error) {
	v.logger.Trace("Fetching SSM parameter %s", canonicalID)

	result, err := v.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(canonicalID),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", &vault.NotFoundError{Vault: v.Name(), ID: canonicalID}
		}
		if isAWSAuthError(err) {
			return "", &vault.PermissionError{Vault: v.Name(), ID: canonicalID, Err: err}
		}
		if isAWSUnavailableError(err) {
			return "", &vault.UnavailableError{Vault: v.Name(), Err: err}
		}
		return "", fmt.Errorf("SSM Parameter Store error for %s: %w", canonicalID, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", canonicalID)
	}
	return *result.Parameter.Value, nil
}

// Validate verifies credentials with a minimal DescribeParameters call,
// distinguishing unreachable endpoints from rejected credentials.
func (v *SSMVault) Validate(ctx context.Context) error {
	_, err := v.client.DescribeParameters(ctx, &ssm.DescribeParametersInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		if isAWSAuthError(err) {
			return &vault.PermissionError{Vault: v.Name(), Err: err}
		}
		if isAWSUnavailableError(err) {
			return &vault.UnavailableError{Vault: v.Name(), Err: err}
		}
		return fmt.Errorf("SSM Parameter Store health check failed: %w", err)
	}
	return nil
}
