package envelope

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"

	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/crypto/formats"
	"github.com/tap-x-project/tap/crypto/keys"
	"github.com/tap-x-project/tap/did"
)

// Unpack reverses Pack: it detects whether raw is a JWE, a JWS, or a bare
// plain message, unwraps as many layers as are present, and returns the
// innermost plaintext body plus metadata describing how it arrived (§4.E).
//
// ks resolves the local agent's own key-agreement keys during JWE decrypt.
// selfDID identifies the local agent for both JWE recipient matching and
// the check that an encrypted message's "to" list names it.
func Unpack(ctx context.Context, raw json.RawMessage, resolver *did.Resolver, ks localAgreementKey, selfDID did.DID) ([]byte, *Metadata, error) {
	meta := &Metadata{}

	body := raw
	if isJWE(body) {
		plaintext, authenticated, err := openJWE(ctx, body, ks, resolver, selfDID)
		if err != nil {
			return nil, nil, err
		}
		meta.IsEncrypted = true
		meta.IsAuthenticated = authenticated
		body = plaintext
	}

	if isJWS(body) {
		payload, kid, err := verifyJWSBySelfResolvingSigner(ctx, resolver, body)
		if err != nil {
			return nil, nil, err
		}
		meta.IsAuthenticated = true
		body = payload

		from, err := fromField(body)
		if err != nil {
			return nil, nil, err
		}
		if !recipientMatchesDID(kid, did.DID(from)) {
			return nil, nil, newErr(ErrCrypto, "signature kid %s does not match message from %s", kid, from)
		}
		meta.From = from
	}

	var plain plainMessageFields
	if err := json.Unmarshal(body, &plain); err != nil {
		return nil, nil, newErr(ErrParse, "decoding plain message: %v", err)
	}
	if meta.From == "" {
		meta.From = plain.From
	} else if meta.From != plain.From {
		return nil, nil, newErr(ErrCrypto, "signed from %q does not match body from %q", meta.From, plain.From)
	}
	meta.To = plain.To

	if meta.IsEncrypted {
		selfAddressed := false
		for _, to := range plain.To {
			if to == string(selfDID) {
				selfAddressed = true
				break
			}
		}
		if !selfAddressed {
			return nil, nil, newErr(ErrCrypto, "encrypted message does not address the local agent")
		}
	}

	return body, meta, nil
}

type plainMessageFields struct {
	From string   `json:"from"`
	To   []string `json:"to"`
}

func fromField(body []byte) (string, error) {
	var plain plainMessageFields
	if err := json.Unmarshal(body, &plain); err != nil {
		return "", newErr(ErrParse, "decoding plain message: %v", err)
	}
	return plain.From, nil
}

// verifyJWSBySelfResolvingSigner reads the protected header's kid out of raw,
// resolves the owning DID's verification method, imports its public key and
// verifies the envelope, returning the payload and the kid.
func verifyJWSBySelfResolvingSigner(ctx context.Context, resolver *did.Resolver, raw json.RawMessage) ([]byte, string, error) {
	var env jwsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, "", newErr(ErrParse, "decoding JWS envelope: %v", err)
	}
	if len(env.Signatures) == 0 {
		return nil, "", newErr(ErrParse, "JWS envelope carries no signatures")
	}
	kid, err := peekKid(env.Signatures[0].Protected)
	if err != nil {
		return nil, "", err
	}

	signerDID, err := senderDIDFromSkid(kid)
	if err != nil {
		return nil, "", err
	}
	doc, err := resolver.Resolve(ctx, signerDID)
	if err != nil {
		return nil, "", newErr(ErrDidResolution, "resolving signer %s: %v", signerDID, err)
	}
	vm, ok := doc.VerificationMethodByID(kid)
	if !ok {
		return nil, "", newErr(ErrCrypto, "signer %s carries no verification method %s", signerDID, kid)
	}
	v, err := verifierFromVerificationMethod(vm)
	if err != nil {
		return nil, "", err
	}

	payload, gotKid, err := verifyJWS(raw, v)
	if err != nil {
		return nil, "", err
	}
	return payload, gotKid, nil
}

func peekKid(protected string) (string, error) {
	headerBytes, err := base64.RawURLEncoding.DecodeString(protected)
	if err != nil {
		return "", newErr(ErrParse, "decoding protected header: %v", err)
	}
	var header jwsProtectedHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return "", newErr(ErrParse, "unmarshaling protected header: %v", err)
	}
	if header.Kid == "" {
		return "", newErr(ErrParse, "protected header carries no kid")
	}
	return header.Kid, nil
}

// verifierFromVerificationMethod imports vm's public key and wraps it in a
// verify-only key pair matching the key type the JWK declares.
func verifierFromVerificationMethod(vm did.VerificationMethod) (verifier, error) {
	var jwk struct {
		Kty string `json:"kty"`
		Crv string `json:"crv"`
	}
	if err := json.Unmarshal(vm.PublicKeyJWK, &jwk); err != nil {
		return nil, newErr(ErrParse, "inspecting verification method JWK: %v", err)
	}

	importer := formats.NewJWKImporter()
	pub, err := importer.ImportPublic(vm.PublicKeyJWK, sagecrypto.KeyFormatJWK)
	if err != nil {
		return nil, newErr(ErrCrypto, "importing verification method public key: %v", err)
	}

	switch {
	case jwk.Kty == "OKP" && jwk.Crv == "Ed25519":
		pk, ok := pub.(ed25519.PublicKey)
		if !ok {
			return nil, newErr(ErrCrypto, "malformed Ed25519 public key")
		}
		return keys.NewEd25519PublicKeyPair(pk)
	case jwk.Kty == "EC" && jwk.Crv == "P-256":
		pk, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, newErr(ErrCrypto, "malformed P-256 public key")
		}
		return keys.NewP256PublicKeyPair(pk)
	case jwk.Kty == "EC" && jwk.Crv == "secp256k1":
		pk, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, newErr(ErrCrypto, "malformed secp256k1 public key")
		}
		return &ecdsaVerifierKeyPair{publicKey: pk}, nil
	default:
		return nil, newErr(ErrCrypto, "unsupported verification method kty/crv %s/%s", jwk.Kty, jwk.Crv)
	}
}

// ecdsaVerifierKeyPair verifies raw 64-byte R||S ECDSA-over-SHA-256
// signatures for curves without a dedicated verify-only constructor in
// crypto/keys (secp256k1's importer returns a stdlib *ecdsa.PublicKey, not
// the dcrec type crypto/keys.NewSecp256k1PublicKeyPair expects).
type ecdsaVerifierKeyPair struct {
	publicKey *ecdsa.PublicKey
}

func (k *ecdsaVerifierKeyPair) Verify(message, signature []byte) error {
	if len(signature) != 64 {
		return newErr(ErrCrypto, "malformed signature")
	}
	hash := sha256.Sum256(message)
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	if !ecdsa.Verify(k.publicKey, hash[:], r, s) {
		return newErr(ErrCrypto, "signature verification failed")
	}
	return nil
}
