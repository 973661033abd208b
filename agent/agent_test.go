package agent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tap-x-project/tap/agent"
	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/did"
	"github.com/tap-x-project/tap/envelope"
	"github.com/tap-x-project/tap/keystore"
	"github.com/tap-x-project/tap/message"
)

func newResolver() *did.Resolver {
	r := did.NewResolver()
	r.Register("key", did.NewKeyResolver())
	return r
}

func newTestAgent(t *testing.T) *agent.Agent {
	t.Helper()
	ks, err := keystore.NewManager(t.TempDir() + "/keys.json")
	require.NoError(t, err)
	d, err := ks.GenerateKey(sagecrypto.KeyTypeEd25519, "primary")
	require.NoError(t, err)
	return agent.New(d, ks, newResolver(), func() int64 { return 1700000000 })
}

func TestSendMessageSignsWhenRecipientExposesNoKeyAgreement(t *testing.T) {
	alice := newTestAgent(t)

	bobKS, err := keystore.NewManager(t.TempDir() + "/keys.json")
	require.NoError(t, err)
	bobDID, err := bobKS.GenerateKey(sagecrypto.KeyTypeSecp256k1, "bob")
	require.NoError(t, err)

	body := &message.TrustPing{ResponseRequested: true}
	plain, err := alice.CreateMessage(body, "")
	require.NoError(t, err)

	packed, meta, err := alice.SendMessage(context.Background(), plain, []did.DID{bobDID}, false)
	require.NoError(t, err)
	assert.NotEmpty(t, packed)
	assert.True(t, meta.IsAuthenticated)
	assert.False(t, meta.IsEncrypted)
}

func TestSendMessageEncryptsWhenRecipientExposesKeyAgreement(t *testing.T) {
	alice := newTestAgent(t)
	bobKS, err := keystore.NewManager(t.TempDir() + "/keys.json")
	require.NoError(t, err)
	bobDID, err := bobKS.GenerateKey(sagecrypto.KeyTypeEd25519, "bob")
	require.NoError(t, err)

	body := &message.TrustPing{ResponseRequested: true}
	plain, err := alice.CreateMessage(body, "")
	require.NoError(t, err)

	packed, meta, err := alice.SendMessage(context.Background(), plain, []did.DID{bobDID}, false)
	require.NoError(t, err)
	assert.NotEmpty(t, packed)
	assert.True(t, meta.IsAuthenticated)
	assert.True(t, meta.IsEncrypted)
}

func TestSendReceiveRoundTrip(t *testing.T) {
	resolver := newResolver()

	aliceKS, err := keystore.NewManager(t.TempDir() + "/keys.json")
	require.NoError(t, err)
	aliceDID, err := aliceKS.GenerateKey(sagecrypto.KeyTypeEd25519, "alice")
	require.NoError(t, err)
	alice := agent.New(aliceDID, aliceKS, resolver, func() int64 { return 1700000000 })

	bobKS, err := keystore.NewManager(t.TempDir() + "/keys.json")
	require.NoError(t, err)
	bobDID, err := bobKS.GenerateKey(sagecrypto.KeyTypeEd25519, "bob")
	require.NoError(t, err)
	bob := agent.New(bobDID, bobKS, resolver, func() int64 { return 1700000000 })

	body := &message.TrustPing{ResponseRequested: true}
	plain, err := alice.CreateMessage(body, "")
	require.NoError(t, err)

	packed, _, err := alice.SendMessage(context.Background(), plain, []did.DID{bobDID}, false)
	require.NoError(t, err)

	received, meta, err := bob.ReceiveMessage(context.Background(), packed)
	require.NoError(t, err)
	assert.Equal(t, body.MessageType(), received.MessageType())
	assert.True(t, meta.IsEncrypted)
	assert.Equal(t, string(aliceDID), meta.From)
}

func TestReceiveMessageDeniedByPolicyIsDropped(t *testing.T) {
	resolver := newResolver()

	aliceKS, err := keystore.NewManager(t.TempDir() + "/keys.json")
	require.NoError(t, err)
	aliceDID, err := aliceKS.GenerateKey(sagecrypto.KeyTypeEd25519, "alice")
	require.NoError(t, err)
	alice := agent.New(aliceDID, aliceKS, resolver, func() int64 { return 1700000000 })

	bobKS, err := keystore.NewManager(t.TempDir() + "/keys.json")
	require.NoError(t, err)
	bobDID, err := bobKS.GenerateKey(sagecrypto.KeyTypeEd25519, "bob")
	require.NoError(t, err)
	bob := agent.New(bobDID, bobKS, resolver, func() int64 { return 1700000000 })
	bob.Policy = func(*message.Plain, *envelope.Metadata) agent.Decision { return agent.Deny("untrusted sender") }

	body := &message.TrustPing{ResponseRequested: true}
	plain, err := alice.CreateMessage(body, "")
	require.NoError(t, err)
	packed, _, err := alice.SendMessage(context.Background(), plain, []did.DID{bobDID}, false)
	require.NoError(t, err)

	_, _, err = bob.ReceiveMessage(context.Background(), packed)
	assert.Error(t, err)
}
