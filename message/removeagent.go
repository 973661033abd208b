package message

import "encoding/json"

// RemoveAgent drops a required authorizer from an open transaction.
type RemoveAgent struct {
	transactionID string

	Agent string `json:"agent"`
}

func (r *RemoveAgent) MessageType() string   { return schemaBase + "RemoveAgent" }
func (r *RemoveAgent) TransactionID() string { return r.transactionID }

func (r *RemoveAgent) Validate() error {
	if r.Agent == "" {
		return newErr(ErrValidation, "removeAgent: agent DID required")
	}
	return nil
}

func parseRemoveAgent(p *Plain) (Body, error) {
	var r RemoveAgent
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, newErr(ErrParse, "removeAgent: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "removeAgent: missing thid")
	}
	r.transactionID = p.TransactionID()
	return &r, nil
}

func init() {
	Register(schemaBase+"RemoveAgent", parseRemoveAgent)
}
