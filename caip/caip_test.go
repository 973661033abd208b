package caip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainIdRoundTrip(t *testing.T) {
	cases := []string{"eip155:1", "bip122:000000000019d6689c085ae165831e93", "cosmos:cosmoshub-4"}
	for _, s := range cases {
		c, err := ParseChainId(s)
		require.NoError(t, err)
		assert.Equal(t, s, c.String())
	}
}

func TestChainIdMalformed(t *testing.T) {
	for _, s := range []string{"", "eip155", "e:1", ":1", "eip155:"} {
		_, err := ParseChainId(s)
		assert.Error(t, err, s)
	}
}

func TestAccountIdRoundTrip(t *testing.T) {
	s := "eip155:1:0xab16a96D359eC26a11e2C2b3d8f8B8942d5Bfcdb"
	a, err := ParseAccountId(s)
	require.NoError(t, err)
	assert.Equal(t, s, a.String())
	assert.Equal(t, "eip155", a.ChainId.Namespace)
}

func TestAccountIdBadEip155Address(t *testing.T) {
	_, err := ParseAccountId("eip155:1:not-an-address")
	assert.Error(t, err)
}

func TestAssetIdRoundTrip(t *testing.T) {
	s := "eip155:1/erc20:0xdac17f958d2ee523a2206206994597c13d831ec7"
	a, err := ParseAssetId(s)
	require.NoError(t, err)
	assert.Equal(t, "eip155", a.ChainId.Namespace)
	assert.Equal(t, "1", a.ChainId.Reference)
	assert.Equal(t, "erc20", a.AssetNamespace)
	assert.Equal(t, s, a.String())
}

func TestAssetIdMalformed(t *testing.T) {
	for _, s := range []string{"", "eip155:1", "eip155:1/", "eip155:1/erc20"} {
		_, err := ParseAssetId(s)
		assert.Error(t, err, s)
	}
}
