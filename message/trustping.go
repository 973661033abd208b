package message

import "encoding/json"

// TrustPing is a DIDComm liveness check, independent of any TAP
// transaction: it carries its own id and is answered by a PingResponse
// threaded back via thid.
type TrustPing struct {
	ResponseRequested bool `json:"response_requested"`
}

func (t *TrustPing) MessageType() string { return schemaBase + "TrustPing" }
func (t *TrustPing) Validate() error     { return nil }

func parseTrustPing(p *Plain) (Body, error) {
	var t TrustPing
	if err := json.Unmarshal(p.Body, &t); err != nil {
		return nil, newErr(ErrParse, "trustPing: %v", err)
	}
	return &t, nil
}

// PingResponse answers a TrustPing, threaded back via thid.
type PingResponse struct {
	Comment string `json:"comment,omitempty"`
}

func (r *PingResponse) MessageType() string { return schemaBase + "PingResponse" }
func (r *PingResponse) Validate() error     { return nil }

func parsePingResponse(p *Plain) (Body, error) {
	var r PingResponse
	if err := json.Unmarshal(p.Body, &r); err != nil {
		return nil, newErr(ErrParse, "pingResponse: %v", err)
	}
	return &r, nil
}

func init() {
	Register(schemaBase+"TrustPing", parseTrustPing)
	Register(schemaBase+"PingResponse", parsePingResponse)
}
