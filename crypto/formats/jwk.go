package formats

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/crypto/keys"
)

// JWK represents a JSON Web Key, as used for both signing keys (OKP/EC)
// and the key-agreement keys carried in a DID Document.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`
	Kid string `json:"kid,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
}

func init() {
	sagecrypto.SetFormatConstructors(NewJWKExporter, NewJWKImporter)
}

// jwkExporter implements KeyExporter for JWK format
type jwkExporter struct{}

// NewJWKExporter creates a new JWK exporter
func NewJWKExporter() sagecrypto.KeyExporter {
	return &jwkExporter{}
}

func (e *jwkExporter) Export(keyPair sagecrypto.KeyPair, format sagecrypto.KeyFormat) ([]byte, error) {
	if format != sagecrypto.KeyFormatJWK {
		return nil, sagecrypto.ErrInvalidKeyFormat
	}

	jwk := &JWK{Kid: keyPair.ID(), Use: "sig"}

	switch keyPair.Type() {
	case sagecrypto.KeyTypeEd25519:
		privateKey, ok := keyPair.PrivateKey().(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("invalid Ed25519 private key type")
		}
		publicKey := privateKey.Public().(ed25519.PublicKey)

		jwk.Kty = "OKP"
		jwk.Crv = "Ed25519"
		jwk.X = base64.RawURLEncoding.EncodeToString(publicKey)
		jwk.D = base64.RawURLEncoding.EncodeToString(privateKey.Seed())
		jwk.Alg = "EdDSA"

	case sagecrypto.KeyTypeSecp256k1:
		privateKey, ok := keyPair.PrivateKey().(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("invalid Secp256k1 private key type")
		}

		jwk.Kty = "EC"
		jwk.Crv = "secp256k1"
		jwk.X = base64.RawURLEncoding.EncodeToString(privateKey.X.Bytes())
		jwk.Y = base64.RawURLEncoding.EncodeToString(privateKey.Y.Bytes())
		jwk.D = base64.RawURLEncoding.EncodeToString(privateKey.D.Bytes())
		jwk.Alg = "ES256K"

	case sagecrypto.KeyTypeP256:
		privateKey, ok := keyPair.PrivateKey().(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("invalid P-256 private key type")
		}

		jwk.Kty = "EC"
		jwk.Crv = "P-256"
		jwk.X = base64.RawURLEncoding.EncodeToString(fixedWidth(privateKey.X, 32))
		jwk.Y = base64.RawURLEncoding.EncodeToString(fixedWidth(privateKey.Y, 32))
		jwk.D = base64.RawURLEncoding.EncodeToString(fixedWidth(privateKey.D, 32))
		jwk.Alg = "ES256"

	case sagecrypto.KeyTypeX25519:
		privKey, ok := keyPair.PrivateKey().(*ecdh.PrivateKey)
		if !ok {
			return nil, errors.New("invalid X25519 private key type")
		}
		pubKey := privKey.Public().(*ecdh.PublicKey)

		jwk.Use = "enc"
		jwk.Kty = "OKP"
		jwk.Crv = "X25519"
		jwk.X = base64.RawURLEncoding.EncodeToString(pubKey.Bytes())
		jwk.D = base64.RawURLEncoding.EncodeToString(privKey.Bytes())
		jwk.Alg = "ECDH-ES"

	default:
		return nil, sagecrypto.ErrInvalidKeyType
	}

	return json.Marshal(jwk)
}

func (e *jwkExporter) ExportPublic(keyPair sagecrypto.KeyPair, format sagecrypto.KeyFormat) ([]byte, error) {
	if format != sagecrypto.KeyFormatJWK {
		return nil, sagecrypto.ErrInvalidKeyFormat
	}

	jwk := &JWK{Kid: keyPair.ID(), Use: "sig"}

	switch keyPair.Type() {
	case sagecrypto.KeyTypeEd25519:
		publicKey, ok := keyPair.PublicKey().(ed25519.PublicKey)
		if !ok {
			return nil, errors.New("invalid Ed25519 public key type")
		}

		jwk.Kty = "OKP"
		jwk.Crv = "Ed25519"
		jwk.X = base64.RawURLEncoding.EncodeToString(publicKey)
		jwk.Alg = "EdDSA"

	case sagecrypto.KeyTypeSecp256k1:
		publicKey, ok := keyPair.PublicKey().(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.New("invalid Secp256k1 public key type")
		}

		jwk.Kty = "EC"
		jwk.Crv = "secp256k1"
		jwk.X = base64.RawURLEncoding.EncodeToString(publicKey.X.Bytes())
		jwk.Y = base64.RawURLEncoding.EncodeToString(publicKey.Y.Bytes())
		jwk.Alg = "ES256K"

	case sagecrypto.KeyTypeP256:
		publicKey, ok := keyPair.PublicKey().(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.New("invalid P-256 public key type")
		}

		jwk.Kty = "EC"
		jwk.Crv = "P-256"
		jwk.X = base64.RawURLEncoding.EncodeToString(fixedWidth(publicKey.X, 32))
		jwk.Y = base64.RawURLEncoding.EncodeToString(fixedWidth(publicKey.Y, 32))
		jwk.Alg = "ES256"

	case sagecrypto.KeyTypeX25519:
		pubKey, ok := keyPair.PublicKey().(*ecdh.PublicKey)
		if !ok {
			return nil, errors.New("invalid X25519 public key type")
		}

		jwk.Use = "enc"
		jwk.Kty = "OKP"
		jwk.Crv = "X25519"
		jwk.X = base64.RawURLEncoding.EncodeToString(pubKey.Bytes())
		jwk.Alg = "ECDH-ES"

	default:
		return nil, sagecrypto.ErrInvalidKeyType
	}

	return json.Marshal(jwk)
}

// jwkImporter implements KeyImporter for JWK format
type jwkImporter struct{}

// NewJWKImporter creates a new JWK importer
func NewJWKImporter() sagecrypto.KeyImporter {
	return &jwkImporter{}
}

func (i *jwkImporter) Import(data []byte, format sagecrypto.KeyFormat) (sagecrypto.KeyPair, error) {
	if format != sagecrypto.KeyFormatJWK {
		return nil, sagecrypto.ErrInvalidKeyFormat
	}

	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JWK: %w", err)
	}

	switch jwk.Kty {
	case "OKP":
		switch jwk.Crv {
		case "Ed25519":
			return i.importEd25519(&jwk)
		case "X25519":
			return i.importX25519(&jwk)
		default:
			return nil, fmt.Errorf("unsupported OKP curve: %s", jwk.Crv)
		}

	case "EC":
		switch jwk.Crv {
		case "secp256k1":
			return i.importSecp256k1(&jwk)
		case "P-256":
			return i.importP256(&jwk)
		default:
			return nil, fmt.Errorf("unsupported EC curve: %s", jwk.Crv)
		}

	default:
		return nil, fmt.Errorf("unsupported key type: %s", jwk.Kty)
	}
}

func (i *jwkImporter) ImportPublic(data []byte, format sagecrypto.KeyFormat) (crypto.PublicKey, error) {
	if format != sagecrypto.KeyFormatJWK {
		return nil, sagecrypto.ErrInvalidKeyFormat
	}

	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JWK: %w", err)
	}

	switch jwk.Kty {
	case "OKP":
		switch jwk.Crv {
		case "Ed25519":
			publicKeyBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
			if err != nil {
				return nil, fmt.Errorf("failed to decode public key: %w", err)
			}
			return ed25519.PublicKey(publicKeyBytes), nil

		case "X25519":
			publicKeyBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
			if err != nil {
				return nil, fmt.Errorf("failed to decode X25519 public key: %w", err)
			}
			publicKey, err := ecdh.X25519().NewPublicKey(publicKeyBytes)
			if err != nil {
				return nil, fmt.Errorf("failed to create X25519 public key: %w", err)
			}
			return publicKey, nil

		default:
			return nil, fmt.Errorf("unsupported OKP curve: %s", jwk.Crv)
		}

	case "EC":
		xBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
		if err != nil {
			return nil, fmt.Errorf("failed to decode X coordinate: %w", err)
		}
		yBytes, err := base64.RawURLEncoding.DecodeString(jwk.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to decode Y coordinate: %w", err)
		}

		switch jwk.Crv {
		case "secp256k1":
			return &ecdsa.PublicKey{
				Curve: secp256k1.S256(),
				X:     new(big.Int).SetBytes(xBytes),
				Y:     new(big.Int).SetBytes(yBytes),
			}, nil
		case "P-256":
			return &ecdsa.PublicKey{
				Curve: elliptic.P256(),
				X:     new(big.Int).SetBytes(xBytes),
				Y:     new(big.Int).SetBytes(yBytes),
			}, nil
		default:
			return nil, fmt.Errorf("unsupported EC curve: %s", jwk.Crv)
		}

	default:
		return nil, fmt.Errorf("unsupported key type: %s", jwk.Kty)
	}
}

func (i *jwkImporter) importEd25519(jwk *JWK) (sagecrypto.KeyPair, error) {
	if jwk.D == "" {
		return nil, errors.New("missing private key component")
	}

	seedBytes, err := base64.RawURLEncoding.DecodeString(jwk.D)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	privateKey := ed25519.NewKeyFromSeed(seedBytes)
	return keys.NewEd25519KeyPairFromPrivate(privateKey, jwk.Kid)
}

func (i *jwkImporter) importSecp256k1(jwk *JWK) (sagecrypto.KeyPair, error) {
	if jwk.D == "" {
		return nil, errors.New("missing private key component")
	}

	dBytes, err := base64.RawURLEncoding.DecodeString(jwk.D)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	privateKey := secp256k1.PrivKeyFromBytes(dBytes)
	return keys.NewSecp256k1KeyPairFromPrivate(privateKey, jwk.Kid)
}

func (i *jwkImporter) importP256(jwk *JWK) (sagecrypto.KeyPair, error) {
	if jwk.D == "" {
		return nil, errors.New("missing private key component")
	}

	dBytes, err := base64.RawURLEncoding.DecodeString(jwk.D)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	curve := elliptic.P256()
	priv := new(ecdsa.PrivateKey)
	priv.Curve = curve
	priv.D = new(big.Int).SetBytes(dBytes)
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(dBytes)

	return keys.NewP256KeyPair(priv)
}

func (i *jwkImporter) importX25519(jwk *JWK) (sagecrypto.KeyPair, error) {
	if jwk.D == "" {
		return nil, errors.New("missing private key component")
	}

	privateKeyBytes, err := base64.RawURLEncoding.DecodeString(jwk.D)
	if err != nil {
		return nil, fmt.Errorf("failed to decode X25519 private key: %w", err)
	}

	return keys.NewX25519KeyPairFromPrivate(privateKeyBytes, jwk.Kid)
}

// fixedWidth left-pads an unsigned big.Int to a fixed byte width, as
// required by JWK EC coordinate encoding (RFC 7518 §6.2.1.2).
func fixedWidth(n *big.Int, width int) []byte {
	out := make([]byte, width)
	n.FillBytes(out)
	return out
}

// ComputeKeyIDRFC9421 generates a kid based on the RFC 7638 JWK thumbprint
// over the key's required members.
func (jwk JWK) ComputeKeyIDRFC9421() (string, error) {
	m := map[string]string{"kty": jwk.Kty}
	if jwk.Crv != "" {
		m["crv"] = jwk.Crv
	}
	if jwk.X != "" {
		m["x"] = jwk.X
	}
	if jwk.Y != "" {
		m["y"] = jwk.Y
	}

	fields := make([]string, 0, len(m))
	for k := range m {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	buf := []byte{'{'}
	for i, k := range fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		valueJSON, err := json.Marshal(m[k])
		if err != nil {
			return "", fmt.Errorf("failed to marshal JWK thumbprint value: %w", err)
		}
		buf = append(buf, fmt.Sprintf("%q:%s", k, valueJSON)...)
	}
	buf = append(buf, '}')

	sum := sha256.Sum256(buf)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
