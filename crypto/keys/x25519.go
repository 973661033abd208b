package keys

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"
	sagecrypto "github.com/tap-x-project/tap/crypto"
)

// X25519KeyPair holds an X25519 private key and its corresponding public
// key. Used as the key-agreement key for ECDH-ES (§4.C); X25519 keys never
// sign.
type X25519KeyPair struct {
	privateKey *ecdh.PrivateKey
	publicKey  *ecdh.PublicKey
	id         string
}

// GenerateX25519KeyPair generates a new X25519 key pair.
func GenerateX25519KeyPair() (sagecrypto.KeyPair, error) {
	privateKey, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate X25519 key: %w", err)
	}
	publicKey := privateKey.PublicKey()

	hash := sha256.Sum256(publicKey.Bytes())
	id := hex.EncodeToString(hash[:8])

	return &X25519KeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
		id:         id,
	}, nil
}

// NewX25519KeyPairFromPrivate wraps a raw 32-byte X25519 scalar, e.g. one
// imported from a JWK. If id is empty, an ID is derived from the public
// key hash.
func NewX25519KeyPairFromPrivate(raw []byte, id ...string) (*X25519KeyPair, error) {
	priv, err := ecdh.X25519().NewPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid X25519 private key: %w", err)
	}
	pub := priv.PublicKey()
	kid := ""
	if len(id) > 0 {
		kid = id[0]
	}
	if kid == "" {
		hash := sha256.Sum256(pub.Bytes())
		kid = hex.EncodeToString(hash[:8])
	}
	return &X25519KeyPair{privateKey: priv, publicKey: pub, id: kid}, nil
}

func (kp *X25519KeyPair) PublicKey() crypto.PublicKey { return kp.publicKey }

// PublicBytesKey returns the raw 32-byte public key.
func (kp *X25519KeyPair) PublicBytesKey() []byte { return kp.publicKey.Bytes() }

func (kp *X25519KeyPair) PrivateKey() crypto.PrivateKey { return kp.privateKey }

func (kp *X25519KeyPair) Type() sagecrypto.KeyType { return sagecrypto.KeyTypeX25519 }

func (kp *X25519KeyPair) ID() string { return kp.id }

// Sign is unsupported: X25519 is a key-agreement-only curve.
func (kp *X25519KeyPair) Sign(message []byte) ([]byte, error) {
	return nil, sagecrypto.ErrSignNotSupported
}

// Verify is unsupported: X25519 is a key-agreement-only curve.
func (kp *X25519KeyPair) Verify(message, signature []byte) error {
	return sagecrypto.ErrVerifyNotSupported
}

// DeriveSharedSecret computes the raw 32-byte X25519 ECDH output against a
// peer's public key. Used as the Z input to the Concat-KDF in §4.C; callers
// must not use the raw DH output directly as a key.
func (kp *X25519KeyPair) DeriveSharedSecret(peerPubBytes []byte) ([]byte, error) {
	peerPub, err := ecdh.X25519().NewPublicKey(peerPubBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse peer public key: %w", err)
	}
	shared, err := kp.privateKey.ECDH(peerPub)
	if err != nil {
		return nil, fmt.Errorf("failed to compute shared secret: %w", err)
	}
	var zero [32]byte
	if subtle.ConstantTimeCompare(shared, zero[:]) == 1 {
		return nil, fmt.Errorf("x25519: low-order or identity point")
	}
	return shared, nil
}

// ConvertEd25519PrivToX25519 derives the X25519 private scalar corresponding
// to an Ed25519 signing key, per RFC 8032 §5.1.5. Used by the agent to
// derive its key-agreement key from a DID's signing key when no separate
// X25519 key is held; did:key derives the matching public key with
// ConvertEd25519PubToX25519.
func ConvertEd25519PrivToX25519(privKey crypto.PrivateKey) ([]byte, error) {
	edPriv, ok := privKey.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected ed25519.PrivateKey, got %T", privKey)
	}
	if l := len(edPriv); l != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("bad Ed25519 priv length: %d", l)
	}
	seed := edPriv.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	var xPriv [32]byte
	copy(xPriv[:], h[:32])
	return xPriv[:], nil
}

// ConvertEd25519PubToX25519 converts an Ed25519 public key (an Edwards
// curve point) to its Montgomery-form X25519 public key.
func ConvertEd25519PubToX25519(pubKey crypto.PublicKey) ([]byte, error) {
	edPub, ok := pubKey.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected ed25519.PublicKey, got %T", pubKey)
	}
	if l := len(edPub); l != ed25519.PublicKeySize {
		return nil, fmt.Errorf("bad Ed25519 pub length: %d", l)
	}
	p, err := new(edwards25519.Point).SetBytes(edPub)
	if err != nil {
		return nil, fmt.Errorf("invalid Ed25519 pub: %w", err)
	}
	return p.BytesMontgomery(), nil
}
