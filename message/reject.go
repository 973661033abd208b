package message

import "encoding/json"

// Reject signals that the sending agent refuses to authorize the
// referenced transaction.
type Reject struct {
	transactionID string

	Reason string `json:"reason"`
	Code   string `json:"code,omitempty"`
}

func (r *Reject) MessageType() string   { return schemaBase + "Reject" }
func (r *Reject) TransactionID() string { return r.transactionID }

func (r *Reject) Validate() error {
	if r.Reason == "" {
		return newErr(ErrValidation, "reject: reason required")
	}
	return nil
}

func parseReject(p *Plain) (Body, error) {
	var r Reject
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, newErr(ErrParse, "reject: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "reject: missing thid")
	}
	r.transactionID = p.TransactionID()
	return &r, nil
}

func init() {
	Register(schemaBase+"Reject", parseReject)
}
