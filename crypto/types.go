package crypto

import (
	"crypto"
	"errors"
)

// KeyType represents the type of cryptographic key
type KeyType string

const (
	KeyTypeEd25519   KeyType = "Ed25519"
	KeyTypeSecp256k1 KeyType = "Secp256k1"
	KeyTypeP256      KeyType = "P256"
	KeyTypeX25519    KeyType = "X25519"
)

// JWSAlgorithm returns the fixed DIDComm JWS algorithm for a key type:
// Ed25519->EdDSA, P-256->ES256, secp256k1->ES256K.
func JWSAlgorithm(kt KeyType) (string, error) {
	switch kt {
	case KeyTypeEd25519:
		return "EdDSA", nil
	case KeyTypeP256:
		return "ES256", nil
	case KeyTypeSecp256k1:
		return "ES256K", nil
	default:
		return "", ErrInvalidKeyType
	}
}

// KeyFormat represents the format for key export/import
type KeyFormat string

const (
	KeyFormatJWK KeyFormat = "JWK"
)

// KeyPair represents a cryptographic key pair
type KeyPair interface {
	// PublicKey returns the public key
	PublicKey() crypto.PublicKey
	
	// PrivateKey returns the private key
	PrivateKey() crypto.PrivateKey
	
	// Type returns the key type
	Type() KeyType
	
	// Sign signs the given message
	Sign(message []byte) ([]byte, error)
	
	// Verify verifies the signature
	Verify(message, signature []byte) error
	
	// ID returns a unique identifier for this key pair
	ID() string
}

// KeyExporter handles key export operations
type KeyExporter interface {
	// Export exports the key pair in the specified format
	Export(keyPair KeyPair, format KeyFormat) ([]byte, error)
	
	// ExportPublic exports only the public key
	ExportPublic(keyPair KeyPair, format KeyFormat) ([]byte, error)
}

// KeyImporter handles key import operations
type KeyImporter interface {
	// Import imports a key pair from the specified format
	Import(data []byte, format KeyFormat) (KeyPair, error)
	
	// ImportPublic imports only a public key
	ImportPublic(data []byte, format KeyFormat) (crypto.PublicKey, error)
}

// KeyAgreer is implemented by key-agreement-capable key pairs (P-256,
// X25519). P-256 also signs (ES256); X25519's Sign/Verify return
// ErrSignNotSupported / ErrVerifyNotSupported. DeriveSharedSecret is how
// the envelope package computes the ECDH-ES "Z" input to Concat-KDF (§4.C).
type KeyAgreer interface {
	DeriveSharedSecret(peerPubBytes []byte) ([]byte, error)
}

// KeyManager is the key-generation and JWK export/import surface that
// Manager implements. It has no DID-keyed add/remove/list/lookup, no
// signing by DID and no CEK unwrapping.
type KeyManager interface {
	// GenerateKeyPair generates a new key pair
	GenerateKeyPair(keyType KeyType) (KeyPair, error)

	// GetExporter returns the key exporter
	GetExporter() KeyExporter

	// GetImporter returns the key importer
	GetImporter() KeyImporter
}

// Common errors
var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrInvalidKeyType   = errors.New("invalid key type")
	ErrInvalidKeyFormat = errors.New("invalid key format")
	ErrKeyExists        = errors.New("key already exists")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignNotSupported   = errors.New("key type does not support signing")
	ErrVerifyNotSupported = errors.New("key type does not support signature verification")
)