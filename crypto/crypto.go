// Package crypto provides the DIDComm v2 cryptographic primitives TAP
// depends on: key generation and signing, JWS sign/verify, ECDH-ES key
// agreement via Concat-KDF and AES Key Wrap, and AES-256-GCM content
// encryption.
//
// This file is intentionally minimal to avoid import cycles. The actual
// key-type implementations live in subpackages:
//   - crypto/keys: Ed25519, P-256, Secp256k1, X25519 key pairs
//   - crypto/formats: JWK export/import
package crypto
