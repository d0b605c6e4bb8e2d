package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hasher, err := New(4)
	require.NoError(t, err)

	digest, err := hasher.Hash("hunter2hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2hunter2", digest)

	require.True(t, Verify("hunter2hunter2", digest))
	require.False(t, Verify("hunter2", digest))
	require.False(t, Verify("", digest))
}

func TestNew_InvalidCost(t *testing.T) {
	_, err := New(100)
	require.Error(t, err)
}
