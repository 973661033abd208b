package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestX25519KeyPair(t *testing.T) {
	t.Run("GenerateKeyPair", func(t *testing.T) {
		keyPair, err := GenerateX25519KeyPair()
		require.NoError(t, err)
		assert.NotNil(t, keyPair)
		assert.NotNil(t, keyPair.PublicKey())
		assert.NotNil(t, keyPair.PrivateKey())
	})

	t.Run("DeriveSharedSecret", func(t *testing.T) {
		a, err := GenerateX25519KeyPair()
		require.NoError(t, err)
		b, err := GenerateX25519KeyPair()
		require.NoError(t, err)

		aKey, ok := a.(*X25519KeyPair)
		require.True(t, ok)
		bKey, ok := b.(*X25519KeyPair)
		require.True(t, ok)

		s1, err := aKey.DeriveSharedSecret(bKey.PublicBytesKey())
		require.NoError(t, err)
		s2, err := bKey.DeriveSharedSecret(aKey.PublicBytesKey())
		require.NoError(t, err)

		assert.Equal(t, s1, s2)
		assert.Len(t, s1, 32)
	})

	t.Run("SignUnsupported", func(t *testing.T) {
		kp, err := GenerateX25519KeyPair()
		require.NoError(t, err)
		_, err = kp.Sign([]byte("x"))
		assert.Error(t, err)
		assert.Error(t, kp.Verify([]byte("x"), []byte("y")))
	})

	t.Run("ConvertEd25519ToX25519", func(t *testing.T) {
		keyPair, err := GenerateEd25519KeyPair()
		require.NoError(t, err)

		xPriv, err := ConvertEd25519PrivToX25519(keyPair.PrivateKey())
		require.NoError(t, err)
		assert.Len(t, xPriv, 32)

		xPub, err := ConvertEd25519PubToX25519(keyPair.PublicKey())
		require.NoError(t, err)
		assert.Len(t, xPub, 32)
	})

	t.Run("ConvertedKeysAgreeWithNative", func(t *testing.T) {
		edKP, err := GenerateEd25519KeyPair()
		require.NoError(t, err)

		xPriv, err := ConvertEd25519PrivToX25519(edKP.PrivateKey())
		require.NoError(t, err)
		xPub, err := ConvertEd25519PubToX25519(edKP.PublicKey())
		require.NoError(t, err)

		self, err := NewX25519KeyPairFromPrivate(xPriv)
		require.NoError(t, err)
		assert.Equal(t, xPub, self.PublicBytesKey())
	})
}
