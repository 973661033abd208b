package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tap-x-project/tap/agent"
	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/did"
	"github.com/tap-x-project/tap/keystore"
	"github.com/tap-x-project/tap/message"
	"github.com/tap-x-project/tap/node/store"
)

func newTestResolver() *did.Resolver {
	r := did.NewResolver()
	r.Register("key", did.NewKeyResolver())
	return r
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/tap-node.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestAgentWith(t *testing.T, label string) *agent.Agent {
	t.Helper()
	ks, err := keystore.NewManager(t.TempDir() + "/keys.json")
	require.NoError(t, err)
	d, err := ks.GenerateKey(sagecrypto.KeyTypeEd25519, label)
	require.NoError(t, err)
	return agent.New(d, ks, newTestResolver(), func() int64 { return 1700000000 })
}

func TestRegisterAgentRejectsDuplicate(t *testing.T) {
	n := New(newTestStore(t), newTestResolver(), Config{})
	bob := newTestAgentWith(t, "bob")

	require.NoError(t, n.RegisterAgent(bob))
	err := n.RegisterAgent(bob)
	assert.Error(t, err)
}

func TestRegisterAgentEnforcesMaxAgents(t *testing.T) {
	n := New(newTestStore(t), newTestResolver(), Config{MaxAgents: 1})
	bob := newTestAgentWith(t, "bob")
	carol := newTestAgentWith(t, "carol")

	require.NoError(t, n.RegisterAgent(bob))
	err := n.RegisterAgent(carol)
	assert.Error(t, err)
}

// setupTransfer registers bob on a Node and returns alice (unregistered,
// playing the remote counterparty), bob's DID, and the Node.
func setupTransfer(t *testing.T) (alice *agent.Agent, bobDID did.DID, n *Node) {
	t.Helper()
	n = New(newTestStore(t), newTestResolver(), Config{})
	bob := newTestAgentWith(t, "bob")
	require.NoError(t, n.RegisterAgent(bob))
	alice = newTestAgentWith(t, "alice")
	return alice, bob.Primary, n
}

func openTransfer(t *testing.T, alice *agent.Agent, bobDID did.DID) (txID string, packed []byte) {
	t.Helper()
	txID = "t1"
	transfer := message.NewTransfer(txID,
		"eip155:1/erc20:0xdac17f958d2ee523a2206206994597c13d831ec7", "100.00",
		message.Party{ID: string(alice.Primary)},
		[]message.Agent{{ID: string(bobDID), Role: "SettlementAddress", For: string(bobDID)}})

	plain, err := alice.CreateMessage(transfer, "")
	require.NoError(t, err)

	raw, _, err := alice.SendMessage(context.Background(), plain, []did.DID{bobDID}, false)
	require.NoError(t, err)
	return txID, raw
}

func TestDispatchOpensTransactionOnFirstMessage(t *testing.T) {
	alice, bobDID, n := setupTransfer(t)
	txID, packed := openTransfer(t, alice, bobDID)

	require.NoError(t, n.Dispatch(context.Background(), packed))

	row, err := n.store.GetTransaction(txID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Proposed", row.Status)
	assert.Equal(t, "Transfer", row.Type)
	assert.Equal(t, string(alice.Primary), row.InitiatorDID)
}

func TestDispatchAuthorizeTransitionsToAuthorized(t *testing.T) {
	alice, bobDID, n := setupTransfer(t)
	txID, opened := openTransfer(t, alice, bobDID)
	require.NoError(t, n.Dispatch(context.Background(), opened))

	// Only bob is a required authorizer on this transfer, so his own
	// Authorize (not alice's) is what moves the transaction forward.
	bob := n.Agent(bobDID)
	require.NotNil(t, bob)
	bobPlain, err := bob.CreateMessage(&message.Authorize{}, txID)
	require.NoError(t, err)
	bobRaw, _, err := bob.SendMessage(context.Background(), bobPlain, []did.DID{bobDID}, false)
	require.NoError(t, err)

	require.NoError(t, n.Dispatch(context.Background(), bobRaw))

	row, err := n.store.GetTransaction(txID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Authorized", row.Status)
}

func TestDispatchUnknownAuthorizerIsValidationErrorAndLeavesStatus(t *testing.T) {
	alice, bobDID, n := setupTransfer(t)
	txID, opened := openTransfer(t, alice, bobDID)
	require.NoError(t, n.Dispatch(context.Background(), opened))

	// alice is the initiator, not a required authorizer (bob is the sole
	// agent on the transfer), so her Authorize must be rejected without
	// moving the transaction out of Proposed.
	plain, err := alice.CreateMessage(&message.Authorize{}, txID)
	require.NoError(t, err)
	raw, _, err := alice.SendMessage(context.Background(), plain, []did.DID{bobDID}, false)
	require.NoError(t, err)

	err = n.Dispatch(context.Background(), raw)
	assert.Error(t, err)

	row, err2 := n.store.GetTransaction(txID)
	require.NoError(t, err2)
	require.NotNil(t, row)
	assert.Equal(t, "Proposed", row.Status)
}

func TestDispatchOutOfStateTransitionMovesToError(t *testing.T) {
	alice, bobDID, n := setupTransfer(t)
	txID, opened := openTransfer(t, alice, bobDID)
	require.NoError(t, n.Dispatch(context.Background(), opened))

	// Settle is only allowed once Authorized; sending it while Proposed is
	// an out-of-state Dispatch error.
	plain, err := alice.CreateMessage(&message.Settle{SettlementId: "eip155:1:0xdead"}, txID)
	require.NoError(t, err)
	raw, _, err := alice.SendMessage(context.Background(), plain, []did.DID{bobDID}, false)
	require.NoError(t, err)

	err = n.Dispatch(context.Background(), raw)
	assert.Error(t, err)

	row, err2 := n.store.GetTransaction(txID)
	require.NoError(t, err2)
	require.NotNil(t, row)
	assert.Equal(t, "Error", row.Status)
}
