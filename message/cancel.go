package message

import "encoding/json"

// Cancel withdraws a transaction before it settles.
type Cancel struct {
	transactionID string

	Reason string `json:"reason,omitempty"`
}

func (c *Cancel) MessageType() string   { return schemaBase + "Cancel" }
func (c *Cancel) TransactionID() string { return c.transactionID }

func (c *Cancel) Validate() error { return nil }

func parseCancel(p *Plain) (Body, error) {
	var c Cancel
	if err := json.Unmarshal(p.Body, &c); err != nil {
		return nil, newErr(ErrParse, "cancel: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "cancel: missing thid")
	}
	c.transactionID = p.TransactionID()
	return &c, nil
}

func init() {
	Register(schemaBase+"Cancel", parseCancel)
}
