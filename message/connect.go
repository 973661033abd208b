package message

import "encoding/json"

// Connect opens a Connect transaction: a request to establish an ongoing
// agent-to-agent relationship on behalf of a principal, independent of any
// single transfer (§4.H Connect lifecycle).
type Connect struct {
	transactionID string

	For         string `json:"for"`
	Role        string `json:"role,omitempty"`
	Constraints string `json:"constraints,omitempty"`
}

// NewConnect builds a Connect that opens a new transaction.
func NewConnect(transactionID, forDID string) *Connect {
	return &Connect{transactionID: transactionID, For: forDID}
}

func (c *Connect) MessageType() string   { return schemaBase + "Connect" }
func (c *Connect) TransactionID() string { return c.transactionID }

func (c *Connect) Validate() error {
	if c.For == "" {
		return newErr(ErrValidation, "connect: for (principal DID) required")
	}
	return nil
}

func parseConnect(p *Plain) (Body, error) {
	var c Connect
	if err := json.Unmarshal(p.Body, &c); err != nil {
		return nil, newErr(ErrParse, "connect: %v", err)
	}
	c.transactionID = p.TransactionID()
	return &c, nil
}

func init() {
	Register(schemaBase+"Connect", parseConnect)
}
