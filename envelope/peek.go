package envelope

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// PeekRecipients reads the addressed recipient DIDs out of raw without
// verifying a signature or decrypting ciphertext, so a Node can pick
// which locally registered agent should handle an inbound blob before
// paying the cost of a full Unpack (§4.I: "the Node selects the first
// local agent in the recipient list").
//
// For a JWE envelope the per-recipient kid headers are the only
// plaintext recipient information available; for JWS and plain messages
// the "to" array is read directly out of the (unverified) payload.
func PeekRecipients(raw json.RawMessage) ([]string, error) {
	if isJWE(raw) {
		var env jweEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, newErr(ErrParse, "peeking JWE recipients: %v", err)
		}
		out := make([]string, 0, len(env.Recipients))
		for _, r := range env.Recipients {
			out = append(out, bareDID(r.Header.Kid))
		}
		return out, nil
	}

	if isJWS(raw) {
		var env jwsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, newErr(ErrParse, "peeking JWS recipients: %v", err)
		}
		payload, err := base64.RawURLEncoding.DecodeString(env.Payload)
		if err != nil {
			return nil, newErr(ErrParse, "decoding JWS payload: %v", err)
		}
		return peekPlainTo(payload)
	}

	return peekPlainTo(raw)
}

func peekPlainTo(body []byte) ([]string, error) {
	var plain plainMessageFields
	if err := json.Unmarshal(body, &plain); err != nil {
		return nil, newErr(ErrParse, "peeking plain message recipients: %v", err)
	}
	return plain.To, nil
}

// bareDID strips a verification-method fragment, e.g.
// "did:key:z6Mk...#x25519-synthetic" -> "did:key:z6Mk...".
func bareDID(kid string) string {
	if i := strings.IndexByte(kid, '#'); i >= 0 {
		return kid[:i]
	}
	return kid
}
