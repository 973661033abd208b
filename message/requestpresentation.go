package message

import "encoding/json"

// RequestPresentation asks the counterparty agent to attach travel-rule or
// other compliance data to the transaction, per a previously agreed Policy.
type RequestPresentation struct {
	transactionID string

	PresentationDefinition json.RawMessage `json:"presentationDefinition"`
	About                  string          `json:"about,omitempty"`
}

func (r *RequestPresentation) MessageType() string   { return schemaBase + "RequestPresentation" }
func (r *RequestPresentation) TransactionID() string { return r.transactionID }

func (r *RequestPresentation) Validate() error {
	if len(r.PresentationDefinition) == 0 {
		return newErr(ErrValidation, "requestPresentation: presentationDefinition required")
	}
	return nil
}

func parseRequestPresentation(p *Plain) (Body, error) {
	var r RequestPresentation
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, newErr(ErrParse, "requestPresentation: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "requestPresentation: missing thid")
	}
	r.transactionID = p.TransactionID()
	return &r, nil
}

func init() {
	Register(schemaBase+"RequestPresentation", parseRequestPresentation)
}
