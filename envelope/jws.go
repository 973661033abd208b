package envelope

import (
	"encoding/base64"
	"encoding/json"

	sagecrypto "github.com/tap-x-project/tap/crypto"
)

// jwsEnvelope is the DIDComm JWS JSON serialization: a single flattened
// signature over the plain-message payload (§4.E Signed mode).
type jwsEnvelope struct {
	Payload    string         `json:"payload"`
	Signatures []jwsSignature `json:"signatures"`
}

type jwsSignature struct {
	Protected string `json:"protected"`
	Signature string `json:"signature"`
}

type jwsProtectedHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ"`
}

// PackSigned wraps plainBytes in a DIDComm JWS JSON serialization, signed by
// signKP under kid.
func PackSigned(plainBytes []byte, signKP sagecrypto.KeyPair, kid string) (json.RawMessage, error) {
	alg, err := sagecrypto.JWSAlgorithm(signKP.Type())
	if err != nil {
		return nil, newErr(ErrCrypto, "unsupported signing key type %s: %v", signKP.Type(), err)
	}

	header, err := json.Marshal(jwsProtectedHeader{Alg: alg, Kid: kid, Typ: "application/didcomm-signed+json"})
	if err != nil {
		return nil, newErr(ErrSerialization, "marshaling protected header: %v", err)
	}
	protected := base64.RawURLEncoding.EncodeToString(header)
	payload := base64.RawURLEncoding.EncodeToString(plainBytes)

	signingInput := protected + "." + payload
	sig, err := signKP.Sign([]byte(signingInput))
	if err != nil {
		return nil, newErr(ErrCrypto, "signing envelope: %v", err)
	}

	env := jwsEnvelope{
		Payload: payload,
		Signatures: []jwsSignature{{
			Protected: protected,
			Signature: base64.RawURLEncoding.EncodeToString(sig),
		}},
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, newErr(ErrSerialization, "marshaling JWS envelope: %v", err)
	}
	return out, nil
}

// isJWS reports whether raw looks like a DIDComm JWS JSON serialization.
func isJWS(raw json.RawMessage) bool {
	var probe struct {
		Signatures json.RawMessage `json:"signatures"`
		Payload    json.RawMessage `json:"payload"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return false
	}
	return len(probe.Signatures) > 0 && len(probe.Payload) > 0
}

// verifier is satisfied by any key pair that can check a signature; a
// signerKP supplied for verification need not carry a private key.
type verifier interface {
	Verify(message, signature []byte) error
}

// verifyJWS verifies env's first signature against signerKP and returns the
// decoded payload plus the kid the signature claims.
func verifyJWS(raw json.RawMessage, signerKP verifier) ([]byte, string, error) {
	var env jwsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, "", newErr(ErrParse, "decoding JWS envelope: %v", err)
	}
	if len(env.Signatures) == 0 {
		return nil, "", newErr(ErrParse, "JWS envelope carries no signatures")
	}
	sig := env.Signatures[0]

	headerBytes, err := base64.RawURLEncoding.DecodeString(sig.Protected)
	if err != nil {
		return nil, "", newErr(ErrParse, "decoding protected header: %v", err)
	}
	var header jwsProtectedHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, "", newErr(ErrParse, "unmarshaling protected header: %v", err)
	}

	signature, err := base64.RawURLEncoding.DecodeString(sig.Signature)
	if err != nil {
		return nil, "", newErr(ErrParse, "decoding signature: %v", err)
	}

	signingInput := sig.Protected + "." + env.Payload
	if err := signerKP.Verify([]byte(signingInput), signature); err != nil {
		return nil, "", newErr(ErrCrypto, "signature verification failed: %v", err)
	}

	payload, err := base64.RawURLEncoding.DecodeString(env.Payload)
	if err != nil {
		return nil, "", newErr(ErrParse, "decoding payload: %v", err)
	}
	return payload, header.Kid, nil
}
