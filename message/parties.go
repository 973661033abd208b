package message

// Party identifies a transaction counterparty. PII is represented only
// via NameHash (§8); raw name fields are never carried on the wire.
type Party struct {
	ID       string         `json:"@id"`
	NameHash string         `json:"nameHash,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Agent identifies a VASP agent acting for one side of a transaction.
type Agent struct {
	ID   string `json:"@id"`
	Role string `json:"role,omitempty"`
	For  string `json:"for"`
}
