package message

import (
	"encoding/json"

	"github.com/tap-x-project/tap/caip"
)

// Payment opens a Payment transaction: a merchant-initiated request for a
// customer-side VASP to authorize settlement of an invoice, optionally
// denominated in fiat currency rather than an on-chain asset (§4.F, §4.H).
type Payment struct {
	transactionID string

	Asset    string  `json:"asset,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Amount   string  `json:"amount"`
	Merchant Party   `json:"merchant"`
	Customer *Party  `json:"customer,omitempty"`
	Agents   []Agent `json:"agents"`
	Invoice  string  `json:"invoice,omitempty"`
	Expiry   int64   `json:"expiry,omitempty"`
}

// NewPayment builds a Payment that opens a new transaction.
func NewPayment(transactionID, amount string, merchant Party, agents []Agent) *Payment {
	return &Payment{
		transactionID: transactionID,
		Amount:        amount,
		Merchant:      merchant,
		Agents:        agents,
	}
}

func (p *Payment) MessageType() string   { return schemaBase + "Payment" }
func (p *Payment) TransactionID() string { return p.transactionID }

func (p *Payment) Validate() error {
	if p.Asset != "" {
		if _, err := caip.ParseAssetId(p.Asset); err != nil {
			return newErr(ErrValidation, "payment: invalid asset %q: %v", p.Asset, err)
		}
	}
	if p.Asset == "" && p.Currency == "" {
		return newErr(ErrValidation, "payment: either asset or currency required")
	}
	if p.Amount == "" {
		return newErr(ErrValidation, "payment: amount must not be empty")
	}
	if p.Merchant.ID == "" {
		return newErr(ErrValidation, "payment: merchant party required")
	}
	if len(p.Agents) == 0 {
		return newErr(ErrValidation, "payment: at least one agent required")
	}
	return nil
}

func parsePayment(p *Plain) (Body, error) {
	var body Payment
	if err := json.Unmarshal(p.Body, &body); err != nil {
		return nil, newErr(ErrParse, "payment: %v", err)
	}
	body.transactionID = p.TransactionID()
	return &body, nil
}

func init() {
	Register(schemaBase+"Payment", parsePayment)
}
