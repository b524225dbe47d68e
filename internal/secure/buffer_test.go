package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferRoundTrip(t *testing.T) {
	buf := NewBufferFromString("hunter2")

	value, ok := buf.Open()
	require.True(t, ok)
	assert.Equal(t, "hunter2", value)

	// Opening is repeatable until the buffer is destroyed.
	value, ok = buf.Open()
	require.True(t, ok)
	assert.Equal(t, "hunter2", value)
}

func TestBufferEmptyValue(t *testing.T) {
	buf := NewBufferFromString("")
	value, ok := buf.Open()
	require.True(t, ok)
	assert.Equal(t, "", value)
}

func TestBufferDestroy(t *testing.T) {
	buf := NewBufferFromString("hunter2")
	buf.Destroy()

	_, ok := buf.Open()
	assert.False(t, ok)

	// Destroy is idempotent.
	buf.Destroy()
	_, ok = buf.Open()
	assert.False(t, ok)
}
