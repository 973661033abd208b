package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tap-node.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTransactionRoundTrip(t *testing.T) {
	s := openTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	tx := &Transaction{
		TransactionID: "t1",
		Type:          "Transfer",
		Status:        "Proposed",
		InitiatorDID:  "did:key:alice",
		Body:          []byte(`{"asset":"eip155:1/erc20:0xdac17f958d2ee523a2206206994597c13d831ec7"}`),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, s.PutTransaction(tx))

	got, err := s.GetTransaction("t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Proposed", got.Status)
	assert.Equal(t, "did:key:alice", got.InitiatorDID)

	got.Status = "Authorized"
	got.UpdatedAt = now.Add(time.Second)
	require.NoError(t, s.UpdateTransaction(got, now))

	reloaded, err := s.GetTransaction("t1")
	require.NoError(t, err)
	assert.Equal(t, "Authorized", reloaded.Status)
}

func TestUpdateTransactionRejectsStaleCAS(t *testing.T) {
	s := openTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	tx := &Transaction{TransactionID: "t1", Type: "Connect", Status: "Requested", InitiatorDID: "did:key:alice", Body: []byte(`{}`), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.PutTransaction(tx))

	tx.Status = "Confirmed"
	tx.UpdatedAt = now.Add(time.Second)
	err := s.UpdateTransaction(tx, now.Add(-time.Hour))
	assert.Error(t, err)
}

func TestGetTransactionMissingReturnsNil(t *testing.T) {
	s := openTest(t)
	got, err := s.GetTransaction("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeliveryLifecycleAndDueQuery(t *testing.T) {
	s := openTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	d := &Delivery{
		ID: "d1", MessageID: "m1", RecipientDID: "did:key:bob",
		DeliveryURL: "https://bob.example/didcomm", Status: DeliveryPending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.PutDelivery(d))

	d.Status = DeliveryFailed
	d.RetryCount = 0
	d.LastHTTPStatus = 503
	d.Error = "service unavailable"
	d.UpdatedAt = now
	require.NoError(t, s.UpdateDelivery(d))

	due, err := s.DueDeliveries(now.Add(time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "did:key:bob", due[0].RecipientDID)
	assert.True(t, due[0].NextAttemptAt(time.Second).Before(now.Add(time.Hour)))

	due2, err := s.DueDeliveries(now, 0)
	require.NoError(t, err)
	assert.Empty(t, due2)
}

func TestListTransactionsOrdersByUpdatedAtDesc(t *testing.T) {
	s := openTest(t)
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.PutTransaction(&Transaction{TransactionID: "t1", Type: "Transfer", Status: "Proposed", InitiatorDID: "did:key:a", Body: []byte("{}"), CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, s.PutTransaction(&Transaction{TransactionID: "t2", Type: "Payment", Status: "Proposed", InitiatorDID: "did:key:b", Body: []byte("{}"), CreatedAt: base, UpdatedAt: base.Add(time.Minute)}))

	list, err := s.ListTransactions()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t2", list[0].TransactionID)
}

func TestPutMessage(t *testing.T) {
	s := openTest(t)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.PutTransaction(&Transaction{TransactionID: "t1", Type: "Transfer", Status: "Proposed", InitiatorDID: "did:key:a", Body: []byte("{}"), CreatedAt: now, UpdatedAt: now}))

	err := s.PutMessage(&Message{ID: "m1", TransactionID: "t1", Direction: DirectionOutbound, Type: "Transfer", Envelope: []byte(`{"id":"m1"}`), CreatedAt: now})
	require.NoError(t, err)

	got, err := s.GetMessage("m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, DirectionOutbound, got.Direction)
	assert.JSONEq(t, `{"id":"m1"}`, string(got.Envelope))

	missing, err := s.GetMessage("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
