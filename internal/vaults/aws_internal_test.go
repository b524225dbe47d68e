package vaults

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

func newTestAWSVault(t *testing.T, fake *fakeSecretsManager) *AWSVault {
	t.Helper()
	v, err := NewAWSVault(context.Background(), AWSConfig{}, testLogger(),
		WithSecretsManagerClient(fake))
	require.NoError(t, err)
	return v
}

func TestAWSNormalize(t *testing.T) {
	v := newTestAWSVault(t, &fakeSecretsManager{})

	// Names and ARNs pass through untouched.
	for _, identifier := range []string{
		"prod/db-url",
		"my-secret",
		"arn:aws:secretsmanager:eu-west-1:123456789012:secret:prod/token-AbCdEf",
	} {
		canonical, err := v.Normalize(identifier)
		require.NoError(t, err)
		assert.Equal(t, identifier, canonical)
	}

	_, err := v.Normalize("")
	assert.Error(t, err)
	_, err = v.Normalize("   ")
	assert.Error(t, err)
}

func TestAWSFetchRaw(t *testing.T) {
	t.Run("secret_string", func(t *testing.T) {
		fake := &fakeSecretsManager{
			getFunc: func(params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{
					SecretString: aws.String("hunter2"),
				}, nil
			},
		}
		v := newTestAWSVault(t, fake)

		value, err := v.FetchRaw(context.Background(), "prod/db-url")
		require.NoError(t, err)
		assert.Equal(t, "hunter2", value)
		assert.Equal(t, []string{"prod/db-url"}, fake.getCalls)
	})

	t.Run("secret_binary", func(t *testing.T) {
		fake := &fakeSecretsManager{
			getFunc: func(params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{
					SecretBinary: []byte("binary-value"),
				}, nil
			},
		}
		v := newTestAWSVault(t, fake)

		value, err := v.FetchRaw(context.Background(), "prod/cert")
		require.NoError(t, err)
		assert.Equal(t, "binary-value", value)
	})

	t.Run("empty_secret", func(t *testing.T) {
		fake := &fakeSecretsManager{
			getFunc: func(params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{}, nil
			},
		}
		v := newTestAWSVault(t, fake)

		_, err := v.FetchRaw(context.Background(), "prod/hollow")
		assert.Error(t, err)
	})
}

func TestAWSFetchRawErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected interface{}
	}{
		{
			name:     "resource_not_found",
			err:      &smtypes.ResourceNotFoundException{Message: aws.String("gone")},
			expected: new(*vault.NotFoundError),
		},
		{
			name:     "access_denied",
			err:      fmt.Errorf("operation error Secrets Manager: GetSecretValue, AccessDeniedException"),
			expected: new(*vault.PermissionError),
		},
		{
			name:     "expired_token",
			err:      fmt.Errorf("ExpiredToken: the security token is expired"),
			expected: new(*vault.PermissionError),
		},
		{
			name:     "throttled",
			err:      fmt.Errorf("ThrottlingException: rate exceeded"),
			expected: new(*vault.UnavailableError),
		},
		{
			name:     "endpoint_unreachable",
			err:      fmt.Errorf("dial tcp: connection refused"),
			expected: new(*vault.UnavailableError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeSecretsManager{
				getFunc: func(params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
					return nil, tt.err
				},
			}
			v := newTestAWSVault(t, fake)

			_, err := v.FetchRaw(context.Background(), "prod/db-url")
			require.Error(t, err)
			assert.True(t, errors.As(err, tt.expected), "expected %T, got %T: %v", tt.expected, err, err)
		})
	}
}

func TestAWSValidate(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		v := newTestAWSVault(t, &fakeSecretsManager{})
		assert.NoError(t, v.Validate(context.Background()))
	})

	t.Run("rejected_credentials", func(t *testing.T) {
		v := newTestAWSVault(t, &fakeSecretsManager{listErr: fmt.Errorf("AccessDenied")})
		err := v.Validate(context.Background())
		require.Error(t, err)

		var permErr *vault.PermissionError
		assert.True(t, errors.As(err, &permErr))
	})

	// An unreachable endpoint is not a credential problem; the health
	// check must report it as unavailability.
	t.Run("unreachable_endpoint", func(t *testing.T) {
		v := newTestAWSVault(t, &fakeSecretsManager{listErr: fmt.Errorf("dial tcp: connection refused")})
		err := v.Validate(context.Background())
		require.Error(t, err)

		var unavailable *vault.UnavailableError
		assert.True(t, errors.As(err, &unavailable), "got %T: %v", err, err)
	})
}
