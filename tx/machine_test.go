package tx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tap-x-project/tap/message"
	"github.com/tap-x-project/tap/tx"
)

func transferAgents() []message.Agent {
	return []message.Agent{
		{ID: "did:key:alice", Role: "originator", For: "did:key:alice-principal"},
		{ID: "did:key:bob", Role: "beneficiary", For: "did:key:bob-principal"},
	}
}

func TestTransferHappyPath(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)
	assert.Equal(t, tx.StatusProposed, m.Status)

	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:bob", 101, "m1"))
	assert.Equal(t, tx.StatusProposed, m.Status)

	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:alice", 102, "m2"))
	assert.Equal(t, tx.StatusAuthorized, m.Status)

	settle := &message.Settle{SettlementId: "eip155:1:tx/0xabc"}
	require.NoError(t, m.Apply(settle, "did:key:alice", 103, "m3"))
	assert.Equal(t, tx.StatusSettled, m.Status)
	assert.Equal(t, "eip155:1:tx/0xabc", m.SettlementID)
}

func TestTransferRejectsCompleteAfterSettlement(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)
	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:bob", 101, "m1"))
	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:alice", 102, "m2"))
	require.NoError(t, m.Apply(&message.Settle{SettlementId: "eip155:1:tx/0xabc"}, "did:key:alice", 103, "m3"))
	assert.Equal(t, tx.StatusSettled, m.Status)

	err := m.Apply(&message.Complete{SettlementAddress: "eip155:1:0xabc"}, "did:key:alice", 104, "m4")
	assert.Error(t, err)
	assert.Equal(t, tx.StatusError, m.Status)
}

func TestTransferRejectTerminatesBeforeSettlement(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)
	require.NoError(t, m.Apply(&message.Reject{Reason: "sanctions hit"}, "did:key:bob", 101, "m1"))
	assert.Equal(t, tx.StatusRejected, m.Status)

	err := m.Apply(&message.Authorize{}, "did:key:alice", 102, "m2")
	assert.Error(t, err)
	assert.Equal(t, tx.StatusRejected, m.Status)
}

func TestAuthorizeFromUnknownAgentIsIgnoredNotFatal(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)
	err := m.Apply(&message.Authorize{}, "did:key:mallory", 101, "m1")
	assert.Error(t, err)
	assert.Equal(t, tx.StatusProposed, m.Status)
}

func TestAuthorizeTieBreakLaterTimestampWins(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)

	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:bob", 200, "m-early"))
	// A later Reject from the same DID supersedes the earlier Authorize.
	require.NoError(t, m.Apply(&message.Reject{Reason: "changed my mind"}, "did:key:bob", 201, "m-late"))
	assert.Equal(t, tx.StatusRejected, m.Status)
}

func TestAuthorizeEqualTimestampsFromBothAuthorizersAuthorize(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)

	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:bob", 200, "a-msg"))
	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:alice", 200, "z-msg"))
	assert.Equal(t, tx.StatusAuthorized, m.Status)
}

func TestAddAgentsExpandsRequiredAuthorizers(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)
	require.NoError(t, m.Apply(&message.AddAgents{Agents: []message.Agent{{ID: "did:key:carol", Role: "beneficiary"}}}, "did:key:alice", 101, "m1"))
	assert.ElementsMatch(t, []string{"did:key:alice", "did:key:bob", "did:key:carol"}, m.RequiredAuthorizers())

	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:bob", 102, "m2"))
	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:alice", 103, "m3"))
	assert.Equal(t, tx.StatusProposed, m.Status, "carol has not yet authorized")

	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:carol", 104, "m4"))
	assert.Equal(t, tx.StatusAuthorized, m.Status)
}

func TestOutOfStateTransitionSetsError(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)
	err := m.Apply(&message.Settle{SettlementId: "eip155:1:tx/0xabc"}, "did:key:alice", 101, "m1")
	assert.Error(t, err)
	assert.Equal(t, tx.StatusError, m.Status)
}

func TestTerminalStatesAreSticky(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)
	require.NoError(t, m.Apply(&message.Reject{Reason: "no"}, "did:key:bob", 101, "m1"))
	require.Equal(t, tx.StatusRejected, m.Status)

	err := m.Apply(&message.Cancel{}, "did:key:alice", 102, "m2")
	assert.Error(t, err)
	assert.Equal(t, tx.StatusRejected, m.Status)
}

func TestPaymentCompletesAfterSettle(t *testing.T) {
	agents := []message.Agent{{ID: "did:key:merchant"}, {ID: "did:key:customer"}}
	m := tx.New("p1", tx.TypePayment, "did:key:merchant", agents, 100)

	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:merchant", 101, "m1"))
	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:customer", 102, "m2"))
	assert.Equal(t, tx.StatusAuthorized, m.Status)

	require.NoError(t, m.Apply(&message.Settle{SettlementId: "eip155:1:tx/0xdef"}, "did:key:customer", 103, "m3"))
	assert.Equal(t, tx.StatusSettled, m.Status)

	require.NoError(t, m.Apply(&message.Complete{SettlementAddress: "eip155:1:0xabc"}, "did:key:merchant", 104, "m4"))
	assert.Equal(t, tx.StatusCompleted, m.Status)
}

func TestConnectHandshake(t *testing.T) {
	m := tx.New("c1", tx.TypeConnect, "did:key:alice", nil, 100)
	assert.Equal(t, tx.StatusRequested, m.Status)

	require.NoError(t, m.Apply(&message.ConfirmRelationship{For: "did:key:alice-principal"}, "did:key:bob", 101, "m1"))
	assert.Equal(t, tx.StatusConfirmed, m.Status)
}

func TestConnectRejected(t *testing.T) {
	m := tx.New("c1", tx.TypeConnect, "did:key:alice", nil, 100)
	require.NoError(t, m.Apply(&message.Reject{Reason: "no thanks"}, "did:key:bob", 101, "m1"))
	assert.Equal(t, tx.StatusRejected, m.Status)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	m := tx.New("t1", tx.TypeTransfer, "did:key:alice", transferAgents(), 100)
	require.NoError(t, m.Apply(&message.Authorize{}, "did:key:bob", 101, "m1"))

	snap := m.Snapshot()
	assert.ElementsMatch(t, []string{"did:key:alice", "did:key:bob"}, snap.RequiredAuthorizers)
	assert.True(t, snap.Authorizations["did:key:bob"].Allow)

	restored := tx.Restore("t1", tx.TypeTransfer, tx.StatusProposed, "did:key:alice", "", 100, 101, snap)
	require.NoError(t, restored.Apply(&message.Authorize{}, "did:key:alice", 102, "m2"))
	assert.Equal(t, tx.StatusAuthorized, restored.Status)
}
