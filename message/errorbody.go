package message

import "encoding/json"

// ErrorBody is sent back to the last sender when a transaction transitions
// to the Error state (§4.H, §7).
type ErrorBody struct {
	transactionID string

	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewErrorBody builds the Error body a Node sends back to the last sender
// when a transaction's state machine rejects an inbound message (§4.H).
func NewErrorBody(transactionID, kind, msg string) *ErrorBody {
	return &ErrorBody{transactionID: transactionID, Kind: kind, Message: msg}
}

func (e *ErrorBody) MessageType() string   { return schemaBase + "Error" }
func (e *ErrorBody) TransactionID() string { return e.transactionID }

func (e *ErrorBody) Validate() error {
	if e.Kind == "" {
		return newErr(ErrValidation, "error: kind required")
	}
	return nil
}

func parseErrorBody(p *Plain) (Body, error) {
	var e ErrorBody
	if err := json.Unmarshal(p.Body, &e); err != nil {
		return nil, newErr(ErrParse, "error: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "error: missing thid")
	}
	e.transactionID = p.TransactionID()
	return &e, nil
}

func init() {
	Register(schemaBase+"Error", parseErrorBody)
}
