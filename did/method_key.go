package did

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/crypto/keys"
)

func b64url(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// multicodec varint prefixes, per https://github.com/multiformats/multicodec.
var (
	codecEd25519Pub   = []byte{0xed, 0x01}
	codecX25519Pub    = []byte{0xec, 0x01}
	codecSecp256k1Pub = []byte{0xe7, 0x01}
	codecP256Pub      = []byte{0x80, 0x24}
)

// KeyResolver implements did:key resolution: decode a multibase
// multicodec public key and deterministically synthesize a DID Document.
type KeyResolver struct{}

// NewKeyResolver creates a did:key MethodResolver.
func NewKeyResolver() *KeyResolver { return &KeyResolver{} }

func (KeyResolver) Resolve(_ context.Context, did DID) (*Document, error) {
	method, msi, err := splitMethod(did)
	if err != nil {
		return nil, err
	}
	if method != "key" {
		return nil, newErr("key", "not a did:key: %s", did)
	}

	codec, raw, err := decodeMultibaseKey(msi)
	if err != nil {
		return nil, newErr("key", "%v", err)
	}

	vmID := string(did) + "#" + msi

	switch {
	case bytesEqual(codec, codecEd25519Pub):
		return documentFromEd25519(did, vmID, raw)
	case bytesEqual(codec, codecSecp256k1Pub):
		return documentFromSecp256k1(did, vmID, raw)
	case bytesEqual(codec, codecP256Pub):
		return documentFromP256(did, vmID, raw)
	case bytesEqual(codec, codecX25519Pub):
		return documentFromX25519Only(did, vmID, raw)
	default:
		return nil, newErr("key", "unsupported multicodec prefix %x", codec)
	}
}

// decodeMultibaseKey decodes a base58btc ('z'-prefixed) multibase string
// into its multicodec varint prefix and raw key bytes. Only the 1- and
// 2-byte varint prefixes TAP's key types use are recognized.
func decodeMultibaseKey(s string) (codec, raw []byte, err error) {
	if len(s) == 0 || s[0] != 'z' {
		return nil, nil, fmt.Errorf("unsupported multibase prefix in %q", s)
	}
	decoded, err := base58.Decode(s[1:])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base58btc: %w", err)
	}
	if len(decoded) < 3 {
		return nil, nil, fmt.Errorf("key material too short")
	}
	if decoded[0]&0x80 != 0 {
		return decoded[:2], decoded[2:], nil
	}
	return decoded[:1], decoded[1:], nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func documentFromEd25519(did DID, vmID string, raw []byte) (*Document, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, newErr("key", "bad ed25519 key length %d", len(raw))
	}
	jwkBytes, err := jwkFromEd25519Public(raw)
	if err != nil {
		return nil, newErr("key", "%v", err)
	}

	xPub, err := keys.ConvertEd25519PubToX25519(ed25519.PublicKey(raw))
	if err != nil {
		return nil, newErr("key", "deriving key-agreement key: %v", err)
	}
	xJWK, err := jwkFromX25519Public(xPub)
	if err != nil {
		return nil, newErr("key", "%v", err)
	}
	kaID := string(did) + "#x25519-synthetic"

	return &Document{
		ID: did,
		VerificationMethod: []VerificationMethod{
			{ID: vmID, Type: "JsonWebKey2020", Controller: string(did), PublicKeyJWK: jwkBytes},
			{ID: kaID, Type: "JsonWebKey2020", Controller: string(did), PublicKeyJWK: xJWK},
		},
		Authentication: []string{vmID},
		KeyAgreement:   []string{kaID},
	}, nil
}

func documentFromX25519Only(did DID, vmID string, raw []byte) (*Document, error) {
	jwkBytes, err := jwkFromX25519Public(raw)
	if err != nil {
		return nil, newErr("key", "%v", err)
	}
	return &Document{
		ID: did,
		VerificationMethod: []VerificationMethod{
			{ID: vmID, Type: "JsonWebKey2020", Controller: string(did), PublicKeyJWK: jwkBytes},
		},
		KeyAgreement: []string{vmID},
	}, nil
}

func documentFromSecp256k1(did DID, vmID string, raw []byte) (*Document, error) {
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, newErr("key", "invalid compressed secp256k1 point: %v", err)
	}
	ecPub := pub.ToECDSA()
	jwkBytes, err := jwkFromECPublic("secp256k1", "ES256K", ecPub)
	if err != nil {
		return nil, newErr("key", "%v", err)
	}
	return &Document{
		ID: did,
		VerificationMethod: []VerificationMethod{
			{ID: vmID, Type: "JsonWebKey2020", Controller: string(did), PublicKeyJWK: jwkBytes},
		},
		Authentication: []string{vmID},
	}, nil
}

func documentFromP256(did DID, vmID string, raw []byte) (*Document, error) {
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), raw)
	if x == nil {
		return nil, newErr("key", "invalid compressed P-256 point")
	}
	ecPub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	jwkBytes, err := jwkFromECPublic("P-256", "ES256", ecPub)
	if err != nil {
		return nil, newErr("key", "%v", err)
	}
	return &Document{
		ID: did,
		VerificationMethod: []VerificationMethod{
			{ID: vmID, Type: "JsonWebKey2020", Controller: string(did), PublicKeyJWK: jwkBytes},
		},
		Authentication: []string{vmID},
	}, nil
}

func jwkFromECPublic(crv, alg string, pub *ecdsa.PublicKey) (json.RawMessage, error) {
	size := (pub.Curve.Params().BitSize + 7) / 8
	x := make([]byte, size)
	y := make([]byte, size)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)
	return json.Marshal(struct {
		Kty string `json:"kty"`
		Crv string `json:"crv"`
		X   string `json:"x"`
		Y   string `json:"y"`
		Alg string `json:"alg"`
	}{"EC", crv, b64url(x), b64url(y), alg})
}

func jwkFromEd25519Public(raw []byte) (json.RawMessage, error) {
	return json.Marshal(struct {
		Kty string `json:"kty"`
		Crv string `json:"crv"`
		X   string `json:"x"`
		Alg string `json:"alg"`
	}{"OKP", "Ed25519", b64url(raw), "EdDSA"})
}

func jwkFromX25519Public(raw []byte) (json.RawMessage, error) {
	return json.Marshal(struct {
		Kty string `json:"kty"`
		Crv string `json:"crv"`
		X   string `json:"x"`
		Use string `json:"use"`
	}{"OKP", "X25519", b64url(raw), "enc"})
}

// EncodePublicKey encodes a raw public key of type kt as a did:key
// identifier, e.g. for key manager use (§4.D).
func EncodePublicKey(kt sagecrypto.KeyType, raw []byte) (DID, error) {
	var codec []byte
	switch kt {
	case sagecrypto.KeyTypeEd25519:
		codec = codecEd25519Pub
	case sagecrypto.KeyTypeSecp256k1:
		codec = codecSecp256k1Pub
	case sagecrypto.KeyTypeP256:
		codec = codecP256Pub
	case sagecrypto.KeyTypeX25519:
		codec = codecX25519Pub
	default:
		return "", fmt.Errorf("unsupported key type for did:key: %s", kt)
	}
	buf := append(append([]byte{}, codec...), raw...)
	return DID("did:key:z" + base58.Encode(buf)), nil
}
