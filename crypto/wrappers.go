package crypto

// This file provides wrapper functions that are populated by the keys and
// formats subpackages at init time, avoiding a circular import between
// crypto and crypto/keys / crypto/formats.

var (
	generateEd25519Key   func() (KeyPair, error)
	generateSecp256k1Key func() (KeyPair, error)
	generateP256Key      func() (KeyPair, error)
	generateX25519Key    func() (KeyPair, error)

	newJWKExporter func() KeyExporter
	newJWKImporter func() KeyImporter
)

// SetKeyGenerators installs the key generation functions implemented by
// crypto/keys. Called from that package's init().
func SetKeyGenerators(ed25519Gen, secp256k1Gen, p256Gen, x25519Gen func() (KeyPair, error)) {
	generateEd25519Key = ed25519Gen
	generateSecp256k1Key = secp256k1Gen
	generateP256Key = p256Gen
	generateX25519Key = x25519Gen
}

// SetFormatConstructors installs the JWK exporter/importer implemented by
// crypto/formats. Called from that package's init().
func SetFormatConstructors(jwkExp func() KeyExporter, jwkImp func() KeyImporter) {
	newJWKExporter = jwkExp
	newJWKImporter = jwkImp
}

// GenerateKeyPair generates a new key pair of the given type.
func GenerateKeyPair(kt KeyType) (KeyPair, error) {
	switch kt {
	case KeyTypeEd25519:
		if generateEd25519Key == nil {
			panic("crypto: ed25519 key generator not initialized, import crypto/keys")
		}
		return generateEd25519Key()
	case KeyTypeSecp256k1:
		if generateSecp256k1Key == nil {
			panic("crypto: secp256k1 key generator not initialized, import crypto/keys")
		}
		return generateSecp256k1Key()
	case KeyTypeP256:
		if generateP256Key == nil {
			panic("crypto: p256 key generator not initialized, import crypto/keys")
		}
		return generateP256Key()
	case KeyTypeX25519:
		if generateX25519Key == nil {
			panic("crypto: x25519 key generator not initialized, import crypto/keys")
		}
		return generateX25519Key()
	default:
		return nil, ErrInvalidKeyType
	}
}

// NewJWKExporter creates a new JWK exporter.
func NewJWKExporter() KeyExporter {
	if newJWKExporter == nil {
		panic("crypto: JWK exporter constructor not initialized, import crypto/formats")
	}
	return newJWKExporter()
}

// NewJWKImporter creates a new JWK importer.
func NewJWKImporter() KeyImporter {
	if newJWKImporter == nil {
		panic("crypto: JWK importer constructor not initialized, import crypto/formats")
	}
	return newJWKImporter()
}
