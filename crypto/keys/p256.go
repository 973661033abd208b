package keys

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	sagecrypto "github.com/tap-x-project/tap/crypto"
)

// p256KeyPair implements the KeyPair interface for P-256 (NIST secp256r1)
// keys, used for the ES256 JWS algorithm and as an ECDH-ES agreement key.
type p256KeyPair struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	id         string
}

func p256ID(pub *ecdsa.PublicKey) string {
	// Uncompressed point format: 0x04 || X || Y, marshaled manually to
	// avoid the deprecated elliptic.Marshal.
	pubKeyBytes := make([]byte, 1+32+32)
	pubKeyBytes[0] = 0x04
	pub.X.FillBytes(pubKeyBytes[1:33])
	pub.Y.FillBytes(pubKeyBytes[33:65])
	hash := sha256.Sum256(pubKeyBytes)
	return hex.EncodeToString(hash[:8])
}

// GenerateP256KeyPair generates a new P-256 key pair.
func GenerateP256KeyPair() (sagecrypto.KeyPair, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	publicKey := &privateKey.PublicKey
	return &p256KeyPair{privateKey: privateKey, publicKey: publicKey, id: p256ID(publicKey)}, nil
}

// NewP256KeyPair wraps an existing ECDSA P-256 private key, e.g. one
// imported from a JWK.
func NewP256KeyPair(privateKey *ecdsa.PrivateKey) (sagecrypto.KeyPair, error) {
	if privateKey.Curve != elliptic.P256() {
		return nil, sagecrypto.ErrInvalidKeyType
	}
	return &p256KeyPair{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		id:         p256ID(&privateKey.PublicKey),
	}, nil
}

// NewP256PublicKeyPair wraps a peer's P-256 public key for signature
// verification only; Sign and PrivateKey are unavailable.
func NewP256PublicKeyPair(publicKey *ecdsa.PublicKey) (sagecrypto.KeyPair, error) {
	if publicKey.Curve != elliptic.P256() {
		return nil, sagecrypto.ErrInvalidKeyType
	}
	return &p256KeyPair{publicKey: publicKey, id: p256ID(publicKey)}, nil
}

func (kp *p256KeyPair) PublicKey() crypto.PublicKey { return kp.publicKey }

func (kp *p256KeyPair) PrivateKey() crypto.PrivateKey { return kp.privateKey }

func (kp *p256KeyPair) Type() sagecrypto.KeyType { return sagecrypto.KeyTypeP256 }

func (kp *p256KeyPair) ID() string { return kp.id }

// Sign signs the given message using ECDSA over SHA-256, returning a raw
// 64-byte R||S signature (not DER) as used by JWS ES256.
func (kp *p256KeyPair) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, kp.privateKey, hash[:])
	if err != nil {
		return nil, err
	}
	signature := make([]byte, 64)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(signature[32-len(rBytes):32], rBytes)
	copy(signature[64-len(sBytes):64], sBytes)
	return signature, nil
}

// Verify verifies a raw 64-byte R||S ECDSA signature over SHA-256.
func (kp *p256KeyPair) Verify(message, signature []byte) error {
	if len(signature) != 64 {
		return sagecrypto.ErrInvalidSignature
	}
	hash := sha256.Sum256(message)
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	if !ecdsa.Verify(kp.publicKey, hash[:], r, s) {
		return sagecrypto.ErrInvalidSignature
	}
	return nil
}

// DeriveSharedSecret computes the raw ECDH output against a peer's P-256
// public key (uncompressed 0x04||X||Y form), for use as Z in the
// Concat-KDF (§4.C).
func (kp *p256KeyPair) DeriveSharedSecret(peerPubBytes []byte) ([]byte, error) {
	curve := ecdh.P256()
	ecdhPriv, err := curve.NewPrivateKey(kp.privateKey.D.FillBytes(make([]byte, 32)))
	if err != nil {
		return nil, err
	}
	peerPub, err := curve.NewPublicKey(peerPubBytes)
	if err != nil {
		return nil, err
	}
	return ecdhPriv.ECDH(peerPub)
}

// PublicKeyBytes returns the uncompressed 0x04||X||Y encoding of the
// public key, as used on the wire for ECDH-ES epk fields.
func (kp *p256KeyPair) PublicKeyBytes() []byte {
	out := make([]byte, 1+32+32)
	out[0] = 0x04
	kp.publicKey.X.FillBytes(out[1:33])
	kp.publicKey.Y.FillBytes(out[33:65])
	return out
}
