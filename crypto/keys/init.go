package keys

import (
	sagecrypto "github.com/tap-x-project/tap/crypto"
)

func init() {
	sagecrypto.SetKeyGenerators(
		func() (sagecrypto.KeyPair, error) { return GenerateEd25519KeyPair() },
		func() (sagecrypto.KeyPair, error) { return GenerateSecp256k1KeyPair() },
		func() (sagecrypto.KeyPair, error) { return GenerateP256KeyPair() },
		func() (sagecrypto.KeyPair, error) { return GenerateX25519KeyPair() },
	)
}
