package keys

import (
	"testing"

	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestP256KeyPair(t *testing.T) {
	t.Run("GenerateAndSignVerify", func(t *testing.T) {
		kp, err := GenerateP256KeyPair()
		require.NoError(t, err)
		assert.Equal(t, sagecrypto.KeyTypeP256, kp.Type())
		assert.NotEmpty(t, kp.ID())

		msg := []byte("tap transfer proposal")
		sig, err := kp.Sign(msg)
		require.NoError(t, err)
		assert.Len(t, sig, 64)
		assert.NoError(t, kp.Verify(msg, sig))
	})

	t.Run("VerifyRejectsTamperedMessage", func(t *testing.T) {
		kp, err := GenerateP256KeyPair()
		require.NoError(t, err)
		sig, err := kp.Sign([]byte("original"))
		require.NoError(t, err)
		assert.Error(t, kp.Verify([]byte("tampered"), sig))
	})

	t.Run("DeriveSharedSecretAgrees", func(t *testing.T) {
		a, err := GenerateP256KeyPair()
		require.NoError(t, err)
		b, err := GenerateP256KeyPair()
		require.NoError(t, err)

		aKP := a.(*p256KeyPair)
		bKP := b.(*p256KeyPair)

		s1, err := aKP.DeriveSharedSecret(bKP.PublicKeyBytes())
		require.NoError(t, err)
		s2, err := bKP.DeriveSharedSecret(aKP.PublicKeyBytes())
		require.NoError(t, err)
		assert.Equal(t, s1, s2)
	})
}
