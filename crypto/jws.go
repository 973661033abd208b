package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// JWSTyp is the DIDComm v2 typ header for a signed plain message.
const JWSTyp = "application/didcomm-signed+json"

// JWSHeader is the JWS protected header: alg, kid, typ, fixed per §4.C.
type JWSHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ"`
}

// ErrJWSMalformed is returned when a compact JWS string does not have
// exactly three dot-separated segments.
var ErrJWSMalformed = errors.New("jws: malformed compact serialization")

// SignJWS produces a compact-serialization JWS over payload, using kp's
// fixed JWS algorithm (§4.C) and kid as the protected header's "kid".
func SignJWS(kp KeyPair, kid string, payload []byte) (string, error) {
	alg, err := JWSAlgorithm(kp.Type())
	if err != nil {
		return "", err
	}

	header := JWSHeader{Alg: alg, Kid: kid, Typ: JWSTyp}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("jws: marshal header: %w", err)
	}

	protected := base64.RawURLEncoding.EncodeToString(headerJSON)
	encPayload := base64.RawURLEncoding.EncodeToString(payload)
	signingInput := protected + "." + encPayload

	sig, err := kp.Sign([]byte(signingInput))
	if err != nil {
		return "", fmt.Errorf("jws: sign: %w", err)
	}

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// VerifyJWS parses a compact-serialization JWS, verifies it against kp,
// and returns the decoded header and payload.
func VerifyJWS(kp KeyPair, compact string) (JWSHeader, []byte, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return JWSHeader{}, nil, ErrJWSMalformed
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return JWSHeader{}, nil, fmt.Errorf("jws: decode header: %w", err)
	}
	var header JWSHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return JWSHeader{}, nil, fmt.Errorf("jws: unmarshal header: %w", err)
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return JWSHeader{}, nil, fmt.Errorf("jws: decode payload: %w", err)
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return JWSHeader{}, nil, fmt.Errorf("jws: decode signature: %w", err)
	}

	signingInput := parts[0] + "." + parts[1]
	if err := kp.Verify([]byte(signingInput), sig); err != nil {
		return JWSHeader{}, nil, fmt.Errorf("jws: %w", ErrInvalidSignature)
	}

	return header, payload, nil
}
