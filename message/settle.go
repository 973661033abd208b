package message

import "encoding/json"

// Settle records that the authorized transfer has settled on-chain,
// carrying the opaque settlement handle the engine never interprets.
type Settle struct {
	transactionID string

	SettlementId string `json:"settlementId"`
	Amount       string `json:"amount,omitempty"`
}

func (s *Settle) MessageType() string   { return schemaBase + "Settle" }
func (s *Settle) TransactionID() string { return s.transactionID }

func (s *Settle) Validate() error {
	if s.SettlementId == "" {
		return newErr(ErrValidation, "settle: settlementId required")
	}
	return nil
}

func parseSettle(p *Plain) (Body, error) {
	var s Settle
	if err := json.Unmarshal(p.Body, &s); err != nil {
		return nil, newErr(ErrParse, "settle: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "settle: missing thid")
	}
	s.transactionID = p.TransactionID()
	return &s, nil
}

func init() {
	Register(schemaBase+"Settle", parseSettle)
}
