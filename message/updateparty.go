package message

import "encoding/json"

// UpdateParty amends the originator or beneficiary party of an open
// transaction, e.g. once travel-rule data resolves a counterparty's
// identity.
type UpdateParty struct {
	transactionID string

	PartyType string `json:"partyType"`
	Party     Party  `json:"party"`
}

func (u *UpdateParty) MessageType() string   { return schemaBase + "UpdateParty" }
func (u *UpdateParty) TransactionID() string { return u.transactionID }

func (u *UpdateParty) Validate() error {
	if u.PartyType != "originator" && u.PartyType != "beneficiary" {
		return newErr(ErrValidation, "updateParty: partyType must be originator or beneficiary, got %q", u.PartyType)
	}
	if u.Party.ID == "" {
		return newErr(ErrValidation, "updateParty: party required")
	}
	return nil
}

func parseUpdateParty(p *Plain) (Body, error) {
	var u UpdateParty
	if err := json.Unmarshal(p.Body, &u); err != nil {
		return nil, newErr(ErrParse, "updateParty: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "updateParty: missing thid")
	}
	u.transactionID = p.TransactionID()
	return &u, nil
}

func init() {
	Register(schemaBase+"UpdateParty", parseUpdateParty)
}
