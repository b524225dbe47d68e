package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrix-security/mcp-secret-wrapper/internal/extract"
	"github.com/astrix-security/mcp-secret-wrapper/internal/logging"
	"github.com/astrix-security/mcp-secret-wrapper/internal/reference"
	"github.com/astrix-security/mcp-secret-wrapper/pkg/vault"
)

func testLogger() *logging.Logger {
	return logging.New(false, false, true)
}

func mustParse(t *testing.T, tokens ...string) []reference.Reference {
	t.Helper()
	refs, err := reference.ParseList(tokens)
	require.NoError(t, err)
	return refs
}

func TestResolve(t *testing.T) {
	fake := vault.NewFake(map[string]string{
		"prod/db-url":   "postgres://db:5432",
		"prod/db-creds": `{"db": {"host": "postgres", "port": 5432}}`,
	})
	pipeline := New(fake, testLogger())

	resolved, err := pipeline.Resolve(context.Background(), mustParse(t,
		"DB_URL=prod/db-url",
		"DB_HOST=prod/db-creds#db.host",
		"DB_PORT=prod/db-creds#db.port",
	))
	require.NoError(t, err)

	require.Len(t, resolved, 3)
	assert.Equal(t, Resolved{Name: "DB_URL", Value: "postgres://db:5432"}, resolved[0])
	assert.Equal(t, Resolved{Name: "DB_HOST", Value: "postgres"}, resolved[1])
	assert.Equal(t, Resolved{Name: "DB_PORT", Value: "5432"}, resolved[2])
}

func TestResolveOrderFollowsReferences(t *testing.T) {
	fake := vault.NewFake(map[string]string{"a": "1", "b": "2", "c": "3"})
	pipeline := New(fake, testLogger())

	_, err := pipeline.Resolve(context.Background(), mustParse(t, "C=c", "A=a", "B=b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, fake.Fetched)
}

func TestResolveFailFast(t *testing.T) {
	fake := vault.NewFake(map[string]string{
		"first":  "ok",
		"third":  "never reached",
		"second": "also ok",
	})
	fake.Errors = map[string]error{"second": fmt.Errorf("vault exploded")}
	pipeline := New(fake, testLogger())

	resolved, err := pipeline.Resolve(context.Background(), mustParse(t,
		"FIRST=first",
		"SECOND=second",
		"THIRD=third",
	))
	require.Error(t, err)
	assert.Nil(t, resolved, "no partial results on failure")
	// The failing fetch stops the pipeline; the third secret is never requested.
	assert.Equal(t, 2, fake.FetchCalls)
	assert.Equal(t, []string{"first", "second"}, fake.Fetched)
}

func TestResolveErrorNamesToken(t *testing.T) {
	fake := vault.NewFake(nil)
	pipeline := New(fake, testLogger())

	_, err := pipeline.Resolve(context.Background(), mustParse(t, "DB_URL=prod/missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")
	assert.Contains(t, err.Error(), "prod/missing")

	var notFound *vault.NotFoundError
	assert.True(t, errors.As(err, &notFound), "underlying cause stays unwrappable")
}

func TestResolveNormalizeFailureSkipsFetch(t *testing.T) {
	fake := vault.NewFake(map[string]string{"ok": "value"})
	fake.NormalizeFunc = func(identifier string) (string, error) {
		return "", fmt.Errorf("bad shape %q", identifier)
	}
	pipeline := New(fake, testLogger())

	_, err := pipeline.Resolve(context.Background(), mustParse(t, "X=whatever"))
	require.Error(t, err)
	assert.Zero(t, fake.FetchCalls, "nothing is fetched when normalization fails")
}

func TestResolveExtractionFailure(t *testing.T) {
	fake := vault.NewFake(map[string]string{"plain": "not-json"})
	pipeline := New(fake, testLogger())

	_, err := pipeline.Resolve(context.Background(), mustParse(t, "X=plain#key"))
	require.Error(t, err)

	var notJSON *extract.NotJSONError
	assert.True(t, errors.As(err, &notJSON))
}

func TestResolveUsesCanonicalIdentifier(t *testing.T) {
	fake := vault.NewFake(map[string]string{
		"projects/p1/secrets/s1/versions/latest": "expanded",
	})
	fake.NormalizeFunc = func(identifier string) (string, error) {
		return "projects/p1/secrets/" + identifier + "/versions/latest", nil
	}
	pipeline := New(fake, testLogger())

	resolved, err := pipeline.Resolve(context.Background(), mustParse(t, "S=s1"))
	require.NoError(t, err)
	assert.Equal(t, "expanded", resolved[0].Value)
	assert.Equal(t, []string{"projects/p1/secrets/s1/versions/latest"}, fake.Fetched)
}

func TestResolveEmpty(t *testing.T) {
	pipeline := New(vault.NewFake(nil), testLogger())
	resolved, err := pipeline.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
