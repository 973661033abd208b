package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDIDCommInitiatorUsesTransactionIDAsID(t *testing.T) {
	transfer := NewTransfer("t1", "eip155:1/erc20:0xdac17f958d2ee523a2206206994597c13d831ec7", "100.00",
		Party{ID: "did:key:zAlice"}, []Agent{{ID: "did:key:zAgent", For: "did:key:zAlice"}})

	plain, err := ToDIDComm(transfer, "did:key:zAlice", "t1", 1700000000)
	require.NoError(t, err)
	assert.Equal(t, "t1", plain.ID)
	assert.Empty(t, plain.Thid)
	assert.NotContains(t, string(plain.Body), "transaction_id")
}

func TestToDIDCommNonInitiatorThreadsViaThid(t *testing.T) {
	reject := &Reject{Reason: "policy"}
	plain, err := ToDIDComm(reject, "did:key:zBob", "t1", 1700000000)
	require.NoError(t, err)
	assert.Equal(t, "t1", plain.Thid)
	assert.NotEqual(t, "t1", plain.ID)
}

func TestFromDIDCommRoundTripsTransfer(t *testing.T) {
	transfer := NewTransfer("t1", "eip155:1/erc20:0xdac17f958d2ee523a2206206994597c13d831ec7", "100.00",
		Party{ID: "did:key:zAlice"}, []Agent{{ID: "did:key:zAgent", For: "did:key:zAlice"}})

	plain, err := ToDIDComm(transfer, "did:key:zAlice", "t1", 1700000000)
	require.NoError(t, err)

	body, err := FromDIDComm(plain)
	require.NoError(t, err)
	got, ok := body.(*Transfer)
	require.True(t, ok)
	assert.Equal(t, transfer.Asset, got.Asset)
	assert.Equal(t, transfer.Amount, got.Amount)
	assert.Equal(t, "t1", got.TransactionID())
}

func TestFromDIDCommUnregisteredTypeIsInvalidMessageType(t *testing.T) {
	plain := &Plain{ID: "x", Type: "https://tap.rsvp/schema/1.0#Nonexistent", Body: []byte(`{}`)}
	_, err := FromDIDComm(plain)
	require.Error(t, err)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, ErrInvalidMessageType, merr.Code)
}

func TestFromDIDCommRejectRequiresThid(t *testing.T) {
	plain := &Plain{ID: "x", Type: schemaBase + "Reject", Body: []byte(`{"reason":"policy"}`)}
	_, err := FromDIDComm(plain)
	assert.Error(t, err)
}

func TestFromDIDCommRejectInvalidBodyFailsValidation(t *testing.T) {
	plain := &Plain{ID: "x", Type: schemaBase + "Reject", Thid: "t1", Body: []byte(`{"reason":""}`)}
	_, err := FromDIDComm(plain)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "reason"))
}
