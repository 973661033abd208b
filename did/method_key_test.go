package did

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sagecrypto "github.com/tap-x-project/tap/crypto"
)

func TestKeyResolverEd25519SynthesizesKeyAgreement(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	did, err := EncodePublicKey(sagecrypto.KeyTypeEd25519, pub)
	require.NoError(t, err)
	assert.Contains(t, string(did), "did:key:z")

	doc, err := NewKeyResolver().Resolve(context.Background(), did)
	require.NoError(t, err)
	assert.Equal(t, did, doc.ID)
	require.Len(t, doc.Authentication, 1)
	require.Len(t, doc.KeyAgreement, 1)
	require.Len(t, doc.VerificationMethod, 2)
}

func TestKeyResolverSecp256k1(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	raw := priv.PubKey().SerializeCompressed()

	did, err := EncodePublicKey(sagecrypto.KeyTypeSecp256k1, raw)
	require.NoError(t, err)

	doc, err := NewKeyResolver().Resolve(context.Background(), did)
	require.NoError(t, err)
	require.Len(t, doc.VerificationMethod, 1)
	assert.Equal(t, "JsonWebKey2020", doc.VerificationMethod[0].Type)
}

func TestKeyResolverRejectsMalformedMultibase(t *testing.T) {
	_, err := NewKeyResolver().Resolve(context.Background(), DID("did:key:abc"))
	assert.Error(t, err)
}

func TestKeyResolverWrongMethod(t *testing.T) {
	_, err := NewKeyResolver().Resolve(context.Background(), DID("did:web:example.com"))
	assert.Error(t, err)
}
