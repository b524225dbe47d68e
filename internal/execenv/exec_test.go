package execenv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/astrix-security/mcp-secret-wrapper/internal/errors"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/internal/secure"
)

func testLogger() *logging.Logger {
	return logging.New(false, false, true)
}

func envVar(name, value string) EnvVar {
	return EnvVar{Name: name, Value: secure.NewBufferFromString(value)}
}

func TestExecSuccess(t *testing.T) {
	executor := New(testLogger())
	err := executor.Exec(context.Background(), Options{
		Command:     []string{"true"},
		Environment: []EnvVar{envVar("WRAPPER_TEST_VAR", "value")},
	})
	assert.NoError(t, err)
}

func TestExecMirrorsExitCode(t *testing.T) {
	executor := New(testLogger())
	err := executor.Exec(context.Background(), Options{
		Command: []string{"sh", "-c", "exit 42"},
	})
	require.Error(t, err)

	var exitErr *dserrors.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 42, exitErr.Code)
}

func TestExecCommandNotFound(t *testing.T) {
	executor := New(testLogger())
	err := executor.Exec(context.Background(), Options{
		Command: []string{"definitely-not-a-real-command-xyz"},
	})
	require.Error(t, err)

	var exitErr *dserrors.ExitError
	assert.False(t, errors.As(err, &exitErr), "a missing command is a wrapper error, not a child exit")
	assert.Contains(t, err.Error(), "definitely-not-a-real-command-xyz")
}

func TestExecNoCommand(t *testing.T) {
	executor := New(testLogger())
	err := executor.Exec(context.Background(), Options{})
	assert.Error(t, err)
}

func TestExecChildSeesInjectedVariable(t *testing.T) {
	executor := New(testLogger())
	err := executor.Exec(context.Background(), Options{
		Command:     []string{"sh", "-c", `[ "$WRAPPER_TEST_VAR" = "hunter2" ]`},
		Environment: []EnvVar{envVar("WRAPPER_TEST_VAR", "hunter2")},
	})
	assert.NoError(t, err)
}

func TestBuildEnvironment(t *testing.T) {
	executor := New(testLogger())

	t.Run("resolved_value_wins_by_default", func(t *testing.T) {
		t.Setenv("WRAPPER_TEST_VAR", "from-shell")

		env, err := executor.buildEnvironment([]EnvVar{envVar("WRAPPER_TEST_VAR", "from-vault")}, false)
		require.NoError(t, err)
		assert.Contains(t, env, "WRAPPER_TEST_VAR=from-vault")
		assert.NotContains(t, env, "WRAPPER_TEST_VAR=from-shell")
	})

	t.Run("allow_override_keeps_existing", func(t *testing.T) {
		t.Setenv("WRAPPER_TEST_VAR", "from-shell")

		env, err := executor.buildEnvironment([]EnvVar{envVar("WRAPPER_TEST_VAR", "from-vault")}, true)
		require.NoError(t, err)
		assert.Contains(t, env, "WRAPPER_TEST_VAR=from-shell")
		assert.NotContains(t, env, "WRAPPER_TEST_VAR=from-vault")
	})

	t.Run("inherits_ambient_environment", func(t *testing.T) {
		t.Setenv("WRAPPER_AMBIENT_VAR", "kept")

		env, err := executor.buildEnvironment([]EnvVar{envVar("WRAPPER_TEST_VAR", "injected")}, false)
		require.NoError(t, err)
		assert.Contains(t, env, "WRAPPER_AMBIENT_VAR=kept")
		assert.Contains(t, env, "WRAPPER_TEST_VAR=injected")
	})

	t.Run("destroyed_buffer_is_an_error", func(t *testing.T) {
		v := envVar("WRAPPER_TEST_VAR", "gone")
		v.Value.Destroy()

		_, err := executor.buildEnvironment([]EnvVar{v}, false)
		assert.Error(t, err)
	})
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "empty", value: "", expected: "(empty)"},
		{name: "tiny", value: "abc", expected: "***"},
		{name: "short", value: "abcdefgh", expected: "a******h"},
		{name: "long", value: "super-secret-value", expected: "sup********ue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskValue(tt.value))
		})
	}
}
