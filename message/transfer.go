package message

import (
	"encoding/json"

	"github.com/tap-x-project/tap/caip"
)

// Transfer opens a Transfer transaction: an originator-initiated request to
// move an on-chain asset to a beneficiary, subject to multi-party
// authorization (§4.F, §4.H).
type Transfer struct {
	transactionID string

	Asset       string  `json:"asset"`
	Amount      string  `json:"amount"`
	Originator  Party   `json:"originator"`
	Beneficiary *Party  `json:"beneficiary,omitempty"`
	Agents      []Agent `json:"agents"`
	Memo        string  `json:"memo,omitempty"`
}

// NewTransfer builds a Transfer that opens a new transaction.
func NewTransfer(transactionID, asset, amount string, originator Party, agents []Agent) *Transfer {
	return &Transfer{
		transactionID: transactionID,
		Asset:         asset,
		Amount:        amount,
		Originator:    originator,
		Agents:        agents,
	}
}

func (t *Transfer) MessageType() string   { return schemaBase + "Transfer" }
func (t *Transfer) TransactionID() string { return t.transactionID }

func (t *Transfer) Validate() error {
	if _, err := caip.ParseAssetId(t.Asset); err != nil {
		return newErr(ErrValidation, "transfer: invalid asset %q: %v", t.Asset, err)
	}
	if t.Amount == "" {
		return newErr(ErrValidation, "transfer: amount must not be empty")
	}
	if t.Originator.ID == "" {
		return newErr(ErrValidation, "transfer: originator party required")
	}
	if len(t.Agents) == 0 {
		return newErr(ErrValidation, "transfer: at least one agent required")
	}
	return nil
}

func parseTransfer(p *Plain) (Body, error) {
	var t Transfer
	if err := json.Unmarshal(p.Body, &t); err != nil {
		return nil, newErr(ErrParse, "transfer: %v", err)
	}
	t.transactionID = p.TransactionID()
	return &t, nil
}

func init() {
	Register(schemaBase+"Transfer", parseTransfer)
}
