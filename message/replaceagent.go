package message

import "encoding/json"

// ReplaceAgent substitutes one required authorizer for another on an open
// transaction.
type ReplaceAgent struct {
	transactionID string

	Original string `json:"original"`
	Replacement Agent `json:"replacement"`
}

func (r *ReplaceAgent) MessageType() string   { return schemaBase + "ReplaceAgent" }
func (r *ReplaceAgent) TransactionID() string { return r.transactionID }

func (r *ReplaceAgent) Validate() error {
	if r.Original == "" {
		return newErr(ErrValidation, "replaceAgent: original DID required")
	}
	if r.Replacement.ID == "" {
		return newErr(ErrValidation, "replaceAgent: replacement agent required")
	}
	return nil
}

func parseReplaceAgent(p *Plain) (Body, error) {
	var r ReplaceAgent
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, newErr(ErrParse, "replaceAgent: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "replaceAgent: missing thid")
	}
	r.transactionID = p.TransactionID()
	return &r, nil
}

func init() {
	Register(schemaBase+"ReplaceAgent", parseReplaceAgent)
}
