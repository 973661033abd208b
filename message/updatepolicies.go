package message

import "encoding/json"

// Policy is a single compliance/authorization requirement attached to a
// transaction, e.g. requiring presentation of travel-rule data before
// authorization.
type Policy struct {
	Type        string   `json:"@type"`
	FromAgent   string   `json:"fromAgent,omitempty"`
	FromRole    string   `json:"fromRole,omitempty"`
	Fields      []string `json:"fields,omitempty"`
	Description string   `json:"description,omitempty"`
}

// UpdatePolicies replaces the set of policies attached to an open
// transaction.
type UpdatePolicies struct {
	transactionID string

	Policies []Policy `json:"policies"`
}

func (u *UpdatePolicies) MessageType() string   { return schemaBase + "UpdatePolicies" }
func (u *UpdatePolicies) TransactionID() string { return u.transactionID }

func (u *UpdatePolicies) Validate() error {
	if len(u.Policies) == 0 {
		return newErr(ErrValidation, "updatePolicies: at least one policy required")
	}
	return nil
}

func parseUpdatePolicies(p *Plain) (Body, error) {
	var u UpdatePolicies
	if err := json.Unmarshal(p.Body, &u); err != nil {
		return nil, newErr(ErrParse, "updatePolicies: %v", err)
	}
	if p.TransactionID() == "" {
		return nil, newErr(ErrValidation, "updatePolicies: missing thid")
	}
	u.transactionID = p.TransactionID()
	return &u, nil
}

func init() {
	Register(schemaBase+"UpdatePolicies", parseUpdatePolicies)
}
