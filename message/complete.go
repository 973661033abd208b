package message

import (
	"encoding/json"

	"github.com/tap-x-project/tap/caip"
)

// Complete closes a Payment transaction after settlement, confirming the
// final settlement address used.
type Complete struct {
	transactionID string

	SettlementAddress string `json:"settlementAddress"`
}

func (c *Complete) MessageType() string   { return schemaBase + "Complete" }
func (c *Complete) TransactionID() string { return c.transactionID }

func (c *Complete) Validate() error {
	if _, err := caip.ParseAccountId(c.SettlementAddress); err != nil {
		return newErr(ErrValidation, "complete: invalid settlementAddress %q: %v", c.SettlementAddress, err)
	}
	return nil
}

func parseComplete(p *Plain) (Body, error) {
	var c Complete
	if err := json.Unmarshal(p.Body, &c); err != nil {
		return nil, newErr(ErrParse, "complete: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "complete: missing thid")
	}
	c.transactionID = p.TransactionID()
	return &c, nil
}

func init() {
	Register(schemaBase+"Complete", parseComplete)
}
