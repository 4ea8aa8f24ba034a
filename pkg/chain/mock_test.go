package chain

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSubmitReturnsHash(t *testing.T) {
	client := NewMockClient(MockConfig{})
	ctx := context.Background()

	res, err := client.SubmitMint(ctx, "credit-1", 500, "0xabc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Hash, "0x"))
	assert.False(t, res.SubmittedAt.IsZero())

	res2, err := client.SubmitRetire(ctx, "credit-1", "0xabc")
	require.NoError(t, err)
	assert.NotEqual(t, res.Hash, res2.Hash)
}

func TestMockStatusDefaults(t *testing.T) {
	client := NewMockClient(MockConfig{RegistryContract: "0xreg"})

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mumbai", status.Network)
	assert.Equal(t, "80001", status.ChainID)
	assert.True(t, status.Connected)
	assert.Equal(t, "0xreg", status.Contracts["registry"])
}
