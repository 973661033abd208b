package crypto

import "fmt"

// Manager provides centralized access to key generation and the JWK
// exporter/importer pair. Persistence of generated keys is the keystore
// package's responsibility (§4.D), not this package's.
type Manager struct {
	exporter KeyExporter
	importer KeyImporter
}

// NewManager creates a new crypto manager bound to the JWK format.
func NewManager(exporter KeyExporter, importer KeyImporter) *Manager {
	return &Manager{exporter: exporter, importer: importer}
}

// GenerateKeyPair generates a new key pair of the specified type.
func (m *Manager) GenerateKeyPair(keyType KeyType) (KeyPair, error) {
	return GenerateKeyPair(keyType)
}

// GetExporter returns the key exporter.
func (m *Manager) GetExporter() KeyExporter {
	return m.exporter
}

// GetImporter returns the key importer.
func (m *Manager) GetImporter() KeyImporter {
	return m.importer
}

// ExportKeyPair exports a key pair in the specified format.
func (m *Manager) ExportKeyPair(keyPair KeyPair, format KeyFormat) ([]byte, error) {
	if format != KeyFormatJWK {
		return nil, fmt.Errorf("unsupported key format: %s", format)
	}
	return m.exporter.Export(keyPair, format)
}

// ImportKeyPair imports a key pair from the specified format.
func (m *Manager) ImportKeyPair(data []byte, format KeyFormat) (KeyPair, error) {
	if format != KeyFormatJWK {
		return nil, fmt.Errorf("unsupported key format: %s", format)
	}
	return m.importer.Import(data, format)
}
