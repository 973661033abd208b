package keystore

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/json"
	"fmt"
	"sync"

	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/did"
)

// CryptoError is the §7 "Crypto" error kind. Sign on a DID with no key
// returns CryptoError{"no key for <did>"}.
type CryptoError struct{ Message string }

func (e *CryptoError) Error() string { return e.Message }

func noKeyForDID(d did.DID) error {
	return &CryptoError{Message: fmt.Sprintf("no key for %s", d)}
}

// Manager is the §4.D key manager: generates keys, derives their did:key
// form, and persists them (as JWKs) to a single file shared across the
// process under one lock.
type Manager struct {
	mu       sync.Mutex
	path     string
	exporter sagecrypto.KeyExporter
	importer sagecrypto.KeyImporter

	// keyPairs caches the decoded, live KeyPair for each DID so Sign/
	// DeriveSharedSecret don't need to re-import the JWK on every call.
	keyPairs map[did.DID]sagecrypto.KeyPair
	labels   map[did.DID]string
}

// NewManager builds a Manager rooted at path: an existing file is loaded
// and all its keys decoded eagerly; a missing file starts empty. If path
// is empty, DefaultPath() is used.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	f, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		path:     path,
		exporter: sagecrypto.NewJWKExporter(),
		importer: sagecrypto.NewJWKImporter(),
		keyPairs: make(map[did.DID]sagecrypto.KeyPair),
		labels:   make(map[did.DID]string),
	}

	for didStr, e := range f.Keys {
		kp, err := m.importer.Import(e.JWK, sagecrypto.KeyFormatJWK)
		if err != nil {
			return nil, fmt.Errorf("keystore: decoding key for %s: %w", didStr, err)
		}
		m.keyPairs[did.DID(didStr)] = kp
		m.labels[did.DID(didStr)] = e.Label
	}

	return m, nil
}

// GenerateKey generates a new key pair of the given type, derives its
// did:key identifier, persists it, and returns the DID.
func (m *Manager) GenerateKey(kt sagecrypto.KeyType, label string) (did.DID, error) {
	kp, err := sagecrypto.GenerateKeyPair(kt)
	if err != nil {
		return "", fmt.Errorf("keystore: generating key: %w", err)
	}
	return m.AddKey(kp, label)
}

// AddKey derives kp's did:key form and persists it under that DID.
func (m *Manager) AddKey(kp sagecrypto.KeyPair, label string) (did.DID, error) {
	raw, err := publicKeyBytes(kp)
	if err != nil {
		return "", fmt.Errorf("keystore: %w", err)
	}
	d, err := did.EncodePublicKey(kp.Type(), raw)
	if err != nil {
		return "", fmt.Errorf("keystore: deriving did:key: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyPairs[d] = kp
	m.labels[d] = label
	if err := m.persistLocked(); err != nil {
		delete(m.keyPairs, d)
		delete(m.labels, d)
		return "", err
	}
	return d, nil
}

// RemoveKey deletes the key for did, if present, and persists the change.
func (m *Manager) RemoveKey(d did.DID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keyPairs[d]; !ok {
		return noKeyForDID(d)
	}
	delete(m.keyPairs, d)
	delete(m.labels, d)
	return m.persistLocked()
}

// ListKeys returns all DIDs with stored keys.
func (m *Manager) ListKeys() []did.DID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]did.DID, 0, len(m.keyPairs))
	for d := range m.keyPairs {
		out = append(out, d)
	}
	return out
}

// Lookup returns the live KeyPair for a DID.
func (m *Manager) Lookup(d did.DID) (sagecrypto.KeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kp, ok := m.keyPairs[d]
	if !ok {
		return nil, noKeyForDID(d)
	}
	return kp, nil
}

// Sign signs payload with the key selected by did.
func (m *Manager) Sign(d did.DID, payload []byte) ([]byte, error) {
	kp, err := m.Lookup(d)
	if err != nil {
		return nil, err
	}
	return kp.Sign(payload)
}

// PublicJWK exports the public JWK for a key ID (DID).
func (m *Manager) PublicJWK(d did.DID) (json.RawMessage, error) {
	kp, err := m.Lookup(d)
	if err != nil {
		return nil, err
	}
	data, err := m.exporter.ExportPublic(kp, sagecrypto.KeyFormatJWK)
	if err != nil {
		return nil, fmt.Errorf("keystore: exporting public JWK for %s: %w", d, err)
	}
	return json.RawMessage(data), nil
}

// DeriveSharedSecret computes the ECDH-ES shared secret between the
// local key-agreement key for did and a peer's raw public key bytes, for
// unwrapping a recipient's CEK entry during JWE unpack (§4.E).
func (m *Manager) DeriveSharedSecret(d did.DID, peerPubBytes []byte) ([]byte, error) {
	kp, err := m.Lookup(d)
	if err != nil {
		return nil, err
	}
	agreer, ok := kp.(sagecrypto.KeyAgreer)
	if !ok {
		return nil, fmt.Errorf("keystore: key for %s does not support key agreement", d)
	}
	return agreer.DeriveSharedSecret(peerPubBytes)
}

// persistLocked serializes the in-memory key map to the keystore file.
// Callers must hold m.mu.
func (m *Manager) persistLocked() error {
	f := &file{Keys: make(map[string]entry, len(m.keyPairs))}
	for d, kp := range m.keyPairs {
		jwkBytes, err := m.exporter.Export(kp, sagecrypto.KeyFormatJWK)
		if err != nil {
			return fmt.Errorf("keystore: exporting key for %s: %w", d, err)
		}
		f.Keys[string(d)] = entry{KeyType: kp.Type(), Label: m.labels[d], JWK: jwkBytes}
	}
	return saveFile(m.path, f)
}

// publicKeyBytes extracts the raw public-key bytes did:key multicodec
// encoding needs, per key type: a raw Ed25519/X25519 point or a
// compressed secp256k1/P-256 point.
func publicKeyBytes(kp sagecrypto.KeyPair) ([]byte, error) {
	type rawPublic interface{ PublicBytesKey() []byte }
	if rp, ok := kp.(rawPublic); ok {
		return rp.PublicBytesKey(), nil
	}

	switch pub := kp.PublicKey().(type) {
	case ed25519.PublicKey:
		return []byte(pub), nil
	case *ecdsa.PublicKey:
		// MarshalCompressed only consults curve.Params().BitSize and the
		// parity of Y, so it applies uniformly to secp256k1 and P-256.
		return elliptic.MarshalCompressed(pub.Curve, pub.X, pub.Y), nil
	}
	return nil, fmt.Errorf("unsupported public key type %T for key type %s", kp.PublicKey(), kp.Type())
}
