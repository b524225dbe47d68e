package vaults

import (
	"context"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
)

// testLogger returns a quiet logger for vault tests.
func testLogger() *logging.Logger {
	return logging.New(false, false, true)
}

// fakeSecretManager is an in-memory SecretManagerAPI.
type fakeSecretManager struct {
	secrets map[string]string
	err     error
	calls   []string
}

func (f *fakeSecretManager) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.calls = append(f.calls, req.Name)
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.secrets[req.Name]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret version not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(data)},
	}, nil
}

// fakeSecretsManager is an in-memory SecretsManagerAPI.
type fakeSecretsManager struct {
	getFunc  func(*secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)
	listErr  error
	getCalls []string
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.getCalls = append(f.getCalls, *params.SecretId)
	return f.getFunc(params)
}

func (f *fakeSecretsManager) ListSecrets(_ context.Context, _ *secretsmanager.ListSecretsInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &secretsmanager.ListSecretsOutput{}, nil
}

// fakeSSM is an in-memory SSMAPI.
type fakeSSM struct {
	getFunc     func(*ssm.GetParameterInput) (*ssm.GetParameterOutput, error)
	describeErr error
}

func (f *fakeSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return f.getFunc(params)
}

func (f *fakeSSM) DescribeParameters(_ context.Context, _ *ssm.DescribeParametersInput, _ ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &ssm.DescribeParametersOutput{}, nil
}
