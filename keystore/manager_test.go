package keystore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sagecrypto "github.com/tap-x-project/tap/crypto"
	_ "github.com/tap-x-project/tap/crypto/formats"
	_ "github.com/tap-x-project/tap/crypto/keys"
)

func TestGenerateAddSignRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	d, err := m.GenerateKey(sagecrypto.KeyTypeEd25519, "agent-key")
	require.NoError(t, err)
	assert.Contains(t, string(d), "did:key:z")

	sig, err := m.Sign(d, []byte("hello"))
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	jwk, err := m.PublicJWK(d)
	require.NoError(t, err)
	assert.Contains(t, string(jwk), "OKP")
}

func TestManagerPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	m1, err := NewManager(path)
	require.NoError(t, err)
	d, err := m1.GenerateKey(sagecrypto.KeyTypeSecp256k1, "")
	require.NoError(t, err)

	m2, err := NewManager(path)
	require.NoError(t, err)
	kp, err := m2.Lookup(d)
	require.NoError(t, err)
	assert.Equal(t, sagecrypto.KeyTypeSecp256k1, kp.Type())
}

func TestSignMissingKeyReturnsCryptoError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	_, err = m.Sign("did:key:zMissing", []byte("x"))
	require.Error(t, err)
	var ce *CryptoError
	assert.ErrorAs(t, err, &ce)
}

func TestRemoveKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	m, err := NewManager(path)
	require.NoError(t, err)
	d, err := m.GenerateKey(sagecrypto.KeyTypeEd25519, "")
	require.NoError(t, err)

	require.NoError(t, m.RemoveKey(d))
	_, err = m.Lookup(d)
	assert.Error(t, err)
}

func TestDeriveSharedSecretRequiresKeyAgreementKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	m, err := NewManager(path)
	require.NoError(t, err)
	d, err := m.GenerateKey(sagecrypto.KeyTypeEd25519, "")
	require.NoError(t, err)

	_, err = m.DeriveSharedSecret(d, make([]byte, 32))
	assert.Error(t, err)
}
