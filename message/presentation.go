package message

import "encoding/json"

// Presentation attaches compliance data (e.g. IVMS-101 travel-rule
// information) requested by a prior RequestPresentation. The data itself
// rides as an opaque Plain.Attachments entry; Presentation requires at
// least one.
type Presentation struct {
	transactionID   string
	attachmentCount int

	About string `json:"about,omitempty"`
}

func (p *Presentation) MessageType() string   { return schemaBase + "Presentation" }
func (p *Presentation) TransactionID() string { return p.transactionID }

func (p *Presentation) Validate() error {
	if p.attachmentCount == 0 {
		return newErr(ErrValidation, "presentation: at least one attachment required")
	}
	return nil
}

func parsePresentation(plain *Plain) (Body, error) {
	var p Presentation
	if err := json.Unmarshal(plain.Body, &p); err != nil {
		return nil, newErr(ErrParse, "presentation: %v", err)
	}
	if plain.TransactionID() == "" {
		return nil, newErr(ErrValidation, "presentation: missing thid")
	}
	p.transactionID = plain.TransactionID()
	p.attachmentCount = len(plain.Attachments)
	return &p, nil
}

func init() {
	Register(schemaBase+"Presentation", parsePresentation)
}
