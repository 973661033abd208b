package message

import "encoding/json"

// ConfirmRelationship closes a Connect handshake, confirming the agent
// relationship requested by the initiating Connect.
type ConfirmRelationship struct {
	transactionID string

	For  string `json:"for"`
	Role string `json:"role,omitempty"`
}

func (c *ConfirmRelationship) MessageType() string   { return schemaBase + "ConfirmRelationship" }
func (c *ConfirmRelationship) TransactionID() string { return c.transactionID }

func (c *ConfirmRelationship) Validate() error {
	if c.For == "" {
		return newErr(ErrValidation, "confirmRelationship: for (principal DID) required")
	}
	return nil
}

func parseConfirmRelationship(p *Plain) (Body, error) {
	var c ConfirmRelationship
	if err := json.Unmarshal(p.Body, &c); err != nil {
		return nil, newErr(ErrParse, "confirmRelationship: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "confirmRelationship: missing thid")
	}
	c.transactionID = p.TransactionID()
	return &c, nil
}

func init() {
	Register(schemaBase+"ConfirmRelationship", parseConfirmRelationship)
}
