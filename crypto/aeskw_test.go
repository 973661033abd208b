package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESKeyWrapRFC3394Vector(t *testing.T) {
	kek, err := hex.DecodeString("000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F")
	require.NoError(t, err)
	plaintext, err := hex.DecodeString("00112233445566778899AABBCCDDEEFF")
	require.NoError(t, err)
	want, err := hex.DecodeString("64E8C3F9CE0F5BA263E9777905818A2A93C8191E7D6E8AE7")
	require.NoError(t, err)

	got, err := AESKeyWrap(kek, plaintext)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	round, err := AESKeyUnwrap(kek, got)
	require.NoError(t, err)
	assert.Equal(t, plaintext, round)
}

func TestAESKeyUnwrapDetectsTamper(t *testing.T) {
	kek := make([]byte, 32)
	plaintext := make([]byte, 32)
	wrapped, err := AESKeyWrap(kek, plaintext)
	require.NoError(t, err)
	wrapped[0] ^= 0xFF
	_, err = AESKeyUnwrap(kek, wrapped)
	assert.ErrorIs(t, err, ErrKeyWrapIntegrity)
}
