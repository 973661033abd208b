package message

import "encoding/json"

// AddAgents registers additional agents as required authorizers of an open
// transaction (§4.H RequiredAuthorizers).
type AddAgents struct {
	transactionID string

	Agents []Agent `json:"agents"`
}

func (a *AddAgents) MessageType() string   { return schemaBase + "AddAgents" }
func (a *AddAgents) TransactionID() string { return a.transactionID }

func (a *AddAgents) Validate() error {
	if len(a.Agents) == 0 {
		return newErr(ErrValidation, "addAgents: at least one agent required")
	}
	return nil
}

func parseAddAgents(p *Plain) (Body, error) {
	var a AddAgents
	if err := json.Unmarshal(p.Body, &a); err != nil {
		return nil, newErr(ErrParse, "addAgents: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "addAgents: missing thid")
	}
	a.transactionID = p.TransactionID()
	return &a, nil
}

func init() {
	Register(schemaBase+"AddAgents", parseAddAgents)
}
