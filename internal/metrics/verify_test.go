package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistration(t *testing.T) {
	if MessagesSent == nil {
		t.Error("MessagesSent metric is nil")
	}
	if MessagesReceived == nil {
		t.Error("MessagesReceived metric is nil")
	}
	if MessagesDropped == nil {
		t.Error("MessagesDropped metric is nil")
	}
	if DeliveriesFailed == nil {
		t.Error("DeliveriesFailed metric is nil")
	}
	if EnvelopePackDuration == nil {
		t.Error("EnvelopePackDuration metric is nil")
	}
	if TransactionTransitionDuration == nil {
		t.Error("TransactionTransitionDuration metric is nil")
	}
	if CryptoOperations == nil {
		t.Error("CryptoOperations metric is nil")
	}
}

func TestMetricsIncrement(t *testing.T) {
	MessagesSent.WithLabelValues("Transfer").Inc()
	MessagesReceived.WithLabelValues("Authorize").Inc()
	MessagesDropped.WithLabelValues("policy_denied").Inc()
	DeliveriesFailed.Inc()
	EnvelopePackDuration.WithLabelValues("authcrypt", "pack").Observe(0.002)
	TransactionTransitionDuration.WithLabelValues("Transfer", "Authorized").Observe(0.0005)
	CryptoOperations.WithLabelValues("sign", "ed25519").Inc()

	if count := testutil.CollectAndCount(MessagesSent); count == 0 {
		t.Error("MessagesSent has no metrics collected")
	}
	if count := testutil.CollectAndCount(DeliveriesFailed); count == 0 {
		t.Error("DeliveriesFailed has no metrics collected")
	}
	if count := testutil.CollectAndCount(CryptoOperations); count == 0 {
		t.Error("CryptoOperations has no metrics collected")
	}
}
