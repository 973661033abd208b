package message

import (
	"encoding/json"

	"github.com/tap-x-project/tap/caip"
)

// Authorize signals that the sending agent authorizes the referenced
// transaction to proceed (§4.H authorization predicate). Its transaction is
// carried by the enclosing plain message's thid, never as a body field.
type Authorize struct {
	transactionID string

	SettlementAddress string `json:"settlementAddress,omitempty"`
	Expiry            int64  `json:"expiry,omitempty"`
}

func (a *Authorize) MessageType() string   { return schemaBase + "Authorize" }
func (a *Authorize) TransactionID() string { return a.transactionID }

func (a *Authorize) Validate() error {
	if a.SettlementAddress != "" {
		if _, err := caip.ParseAccountId(a.SettlementAddress); err != nil {
			return newErr(ErrValidation, "authorize: invalid settlementAddress %q: %v", a.SettlementAddress, err)
		}
	}
	return nil
}

func parseAuthorize(p *Plain) (Body, error) {
	var a Authorize
	if err := json.Unmarshal(p.Body, &a); err != nil {
		return nil, newErr(ErrParse, "authorize: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "authorize: missing thid")
	}
	a.transactionID = p.TransactionID()
	return &a, nil
}

func init() {
	Register(schemaBase+"Authorize", parseAuthorize)
}
