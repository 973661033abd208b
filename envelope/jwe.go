package envelope

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	sagecrypto "github.com/tap-x-project/tap/crypto"
	"github.com/tap-x-project/tap/crypto/formats"
	"github.com/tap-x-project/tap/did"
)

const (
	jweAlg = "ECDH-ES+A256KW"
	jweEnc = "A256GCM"
)

// jweEnvelope is the JWE JSON serialization (RFC 7516 §7.2), specialized to
// one shared ECDH-ES agreement per message with per-recipient key wrap
// (§4.E Encrypted/AuthCrypt modes).
type jweEnvelope struct {
	Protected  string          `json:"protected"`
	Recipients []jweRecipient  `json:"recipients"`
	IV         string          `json:"iv"`
	Ciphertext string          `json:"ciphertext"`
	Tag        string          `json:"tag"`
}

type jweRecipient struct {
	Header       jweRecipientHeader `json:"header"`
	EncryptedKey string             `json:"encrypted_key"`
}

type jweRecipientHeader struct {
	Kid string `json:"kid"`
}

type jweProtectedHeader struct {
	Alg  string    `json:"alg"`
	Enc  string    `json:"enc"`
	Epk  *agreeJWK `json:"epk,omitempty"`
	Skid string    `json:"skid,omitempty"`
}

// agreeJWK is the minimal public JWK shape for an X25519/P-256 agreement
// key carried in a protected header's epk field.
type agreeJWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y,omitempty"`
}

func rawAgreementPublicBytes(pub interface{}) (sagecrypto.KeyType, []byte, error) {
	switch v := pub.(type) {
	case *ecdh.PublicKey:
		if v.Curve() != ecdh.X25519() {
			return "", nil, newErr(ErrCrypto, "unsupported ecdh curve for key agreement")
		}
		return sagecrypto.KeyTypeX25519, v.Bytes(), nil
	case *ecdsa.PublicKey:
		if v.Curve != elliptic.P256() {
			return "", nil, newErr(ErrCrypto, "unsupported ecdsa curve for key agreement")
		}
		out := make([]byte, 65)
		out[0] = 0x04
		v.X.FillBytes(out[1:33])
		v.Y.FillBytes(out[33:65])
		return sagecrypto.KeyTypeP256, out, nil
	default:
		return "", nil, newErr(ErrCrypto, "key type does not support agreement")
	}
}

func jwkFromAgreementKey(kt sagecrypto.KeyType, raw []byte) (*agreeJWK, error) {
	switch kt {
	case sagecrypto.KeyTypeX25519:
		return &agreeJWK{Kty: "OKP", Crv: "X25519", X: base64.RawURLEncoding.EncodeToString(raw)}, nil
	case sagecrypto.KeyTypeP256:
		if len(raw) != 65 || raw[0] != 0x04 {
			return nil, newErr(ErrCrypto, "malformed P-256 agreement public key")
		}
		return &agreeJWK{
			Kty: "EC",
			Crv: "P-256",
			X:   base64.RawURLEncoding.EncodeToString(raw[1:33]),
			Y:   base64.RawURLEncoding.EncodeToString(raw[33:65]),
		}, nil
	default:
		return nil, newErr(ErrCrypto, "unsupported agreement key type %s", kt)
	}
}

func agreementPubBytesFromJWK(jwk *agreeJWK) (sagecrypto.KeyType, []byte, error) {
	switch {
	case jwk.Kty == "OKP" && jwk.Crv == "X25519":
		x, err := base64.RawURLEncoding.DecodeString(jwk.X)
		if err != nil {
			return "", nil, newErr(ErrParse, "decoding epk.x: %v", err)
		}
		return sagecrypto.KeyTypeX25519, x, nil
	case jwk.Kty == "EC" && jwk.Crv == "P-256":
		x, err := base64.RawURLEncoding.DecodeString(jwk.X)
		if err != nil {
			return "", nil, newErr(ErrParse, "decoding epk.x: %v", err)
		}
		y, err := base64.RawURLEncoding.DecodeString(jwk.Y)
		if err != nil {
			return "", nil, newErr(ErrParse, "decoding epk.y: %v", err)
		}
		out := make([]byte, 65)
		out[0] = 0x04
		copy(out[1+32-len(x):33], x)
		copy(out[33+32-len(y):65], y)
		return sagecrypto.KeyTypeP256, out, nil
	default:
		return "", nil, newErr(ErrCrypto, "unsupported epk kty/crv %s/%s", jwk.Kty, jwk.Crv)
	}
}

// recipientAgreementKey resolves to's DID Document and returns its first
// key-agreement verification method's key type, raw public key bytes, and
// verification-method id (used as the recipient's kid on the wire).
func recipientAgreementKey(ctx context.Context, resolver *did.Resolver, to did.DID) (sagecrypto.KeyType, []byte, string, error) {
	doc, err := resolver.Resolve(ctx, to)
	if err != nil {
		return "", nil, "", newErr(ErrDidResolution, "resolving %s: %v", to, err)
	}
	if len(doc.KeyAgreement) == 0 {
		return "", nil, "", newErr(ErrCrypto, "%s exposes no key-agreement key", to)
	}
	vm, ok := doc.VerificationMethodByID(doc.KeyAgreement[0])
	if !ok {
		return "", nil, "", newErr(ErrCrypto, "%s key-agreement reference %s not found", to, doc.KeyAgreement[0])
	}
	pub, err := formats.NewJWKImporter().ImportPublic(vm.PublicKeyJWK, sagecrypto.KeyFormatJWK)
	if err != nil {
		return "", nil, "", newErr(ErrCrypto, "importing key-agreement JWK for %s: %v", to, err)
	}
	kt, raw, err := rawAgreementPublicBytes(pub)
	if err != nil {
		return "", nil, "", err
	}
	return kt, raw, vm.ID, nil
}

func aesGCMSeal(cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, err
	}
	iv = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, nil, err
	}
	sealed := gcm.Seal(nil, iv, plaintext, aad)
	tagLen := gcm.Overhead()
	return iv, sealed[:len(sealed)-tagLen], sealed[len(sealed)-tagLen:], nil
}

func aesGCMOpen(cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, newErr(ErrCrypto, "AES-GCM decryption failed: %v", err)
	}
	return plaintext, nil
}

// PackEncrypted anonymously encrypts plainBytes to recipients: a fresh
// ephemeral agreement key is generated per message (§4.E Encrypted mode).
func PackEncrypted(ctx context.Context, resolver *did.Resolver, plainBytes []byte, recipients []did.DID) (json.RawMessage, error) {
	return sealJWE(ctx, resolver, plainBytes, recipients, nil, "")
}

// PackAuthCrypt authenticates plainBytes to recipients using the sender's
// own static agreement key in the ECDH-ES agreement, rather than an
// ephemeral (§4.E AuthCrypt mode).
func PackAuthCrypt(ctx context.Context, resolver *did.Resolver, plainBytes []byte, senderKP sagecrypto.KeyPair, senderKid string, recipients []did.DID) (json.RawMessage, error) {
	if senderKP == nil {
		return nil, newErr(ErrCrypto, "AuthCrypt requires a sender key-agreement key pair")
	}
	return sealJWE(ctx, resolver, plainBytes, recipients, senderKP, senderKid)
}

func sealJWE(ctx context.Context, resolver *did.Resolver, plainBytes []byte, recipients []did.DID, senderKP sagecrypto.KeyPair, senderKid string) (json.RawMessage, error) {
	if len(recipients) == 0 {
		return nil, newErr(ErrCrypto, "at least one recipient required")
	}

	type resolved struct {
		kid string
		kt  sagecrypto.KeyType
		pub []byte
	}
	resolvedRecipients := make([]resolved, 0, len(recipients))
	for _, to := range recipients {
		kt, pub, kid, err := recipientAgreementKey(ctx, resolver, to)
		if err != nil {
			return nil, err
		}
		resolvedRecipients = append(resolvedRecipients, resolved{kid: kid, kt: kt, pub: pub})
	}
	agreementType := resolvedRecipients[0].kt
	for _, r := range resolvedRecipients {
		if r.kt != agreementType {
			return nil, newErr(ErrCrypto, "recipients mix incompatible key-agreement curves")
		}
	}

	var agreer sagecrypto.KeyAgreer
	header := jweProtectedHeader{Alg: jweAlg, Enc: jweEnc}
	var apu []byte
	if senderKP != nil {
		if senderKP.Type() != agreementType {
			return nil, newErr(ErrCrypto, "sender agreement key type %s does not match recipients' %s", senderKP.Type(), agreementType)
		}
		a, ok := senderKP.(sagecrypto.KeyAgreer)
		if !ok {
			return nil, newErr(ErrCrypto, "sender key pair does not support key agreement")
		}
		agreer = a
		header.Skid = senderKid
		apu = []byte(senderKid)
	} else {
		ephemeral, err := sagecrypto.GenerateKeyPair(agreementType)
		if err != nil {
			return nil, newErr(ErrCrypto, "generating ephemeral agreement key: %v", err)
		}
		a, ok := ephemeral.(sagecrypto.KeyAgreer)
		if !ok {
			return nil, newErr(ErrCrypto, "ephemeral key pair does not support key agreement")
		}
		agreer = a
		_, rawPub, err := rawAgreementPublicBytes(ephemeral.PublicKey())
		if err != nil {
			return nil, err
		}
		epk, err := jwkFromAgreementKey(agreementType, rawPub)
		if err != nil {
			return nil, err
		}
		header.Epk = epk
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, newErr(ErrSerialization, "marshaling protected header: %v", err)
	}
	protected := base64.RawURLEncoding.EncodeToString(headerBytes)

	cek := make([]byte, 32)
	if _, err := rand.Read(cek); err != nil {
		return nil, newErr(ErrCrypto, "generating CEK: %v", err)
	}

	jweRecipients := make([]jweRecipient, 0, len(resolvedRecipients))
	for _, r := range resolvedRecipients {
		z, err := agreer.DeriveSharedSecret(r.pub)
		if err != nil {
			return nil, newErr(ErrCrypto, "ECDH agreement with %s: %v", r.kid, err)
		}
		otherInfo := sagecrypto.BuildOtherInfo([]byte(jweAlg), apu, []byte(r.kid), 256)
		kek := sagecrypto.ConcatKDF(z, otherInfo, 256)
		wrapped, err := sagecrypto.AESKeyWrap(kek, cek)
		if err != nil {
			return nil, newErr(ErrCrypto, "wrapping CEK for %s: %v", r.kid, err)
		}
		jweRecipients = append(jweRecipients, jweRecipient{
			Header:       jweRecipientHeader{Kid: r.kid},
			EncryptedKey: base64.RawURLEncoding.EncodeToString(wrapped),
		})
	}

	iv, ciphertext, tag, err := aesGCMSeal(cek, plainBytes, []byte(protected))
	if err != nil {
		return nil, newErr(ErrCrypto, "content encryption: %v", err)
	}

	env := jweEnvelope{
		Protected:  protected,
		Recipients: jweRecipients,
		IV:         base64.RawURLEncoding.EncodeToString(iv),
		Ciphertext: base64.RawURLEncoding.EncodeToString(ciphertext),
		Tag:        base64.RawURLEncoding.EncodeToString(tag),
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, newErr(ErrSerialization, "marshaling JWE envelope: %v", err)
	}
	return out, nil
}

// isJWE reports whether raw looks like a JWE JSON serialization.
func isJWE(raw json.RawMessage) bool {
	var probe struct {
		Ciphertext json.RawMessage `json:"ciphertext"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return false
	}
	return len(probe.Ciphertext) > 0
}

// localAgreementKey is implemented by the caller's key store to look up a
// local key-agreement-capable key pair by DID.
type localAgreementKey interface {
	Lookup(d did.DID) (sagecrypto.KeyPair, error)
}

// recipientMatchesDID reports whether a recipient header's kid (a
// verification-method id, "<did>#<fragment>") belongs to d.
func recipientMatchesDID(kid string, d did.DID) bool {
	prefix := string(d)
	return kid == prefix || (len(kid) > len(prefix) && kid[:len(prefix)] == prefix && kid[len(prefix)] == '#')
}

// openJWE decrypts raw using the first local key that a recipient header
// addresses. selfDID identifies which resolved recipient kid belongs to the
// caller; resolver is used to resolve the sender's static agreement key
// when the protected header carries skid (AuthCrypt) rather than epk
// (Encrypted).
func openJWE(ctx context.Context, raw json.RawMessage, ks localAgreementKey, resolver *did.Resolver, selfDID did.DID) ([]byte, bool, error) {
	var env jweEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, newErr(ErrParse, "decoding JWE envelope: %v", err)
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(env.Protected)
	if err != nil {
		return nil, false, newErr(ErrParse, "decoding protected header: %v", err)
	}
	var header jweProtectedHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, false, newErr(ErrParse, "unmarshaling protected header: %v", err)
	}

	selfKP, err := ks.Lookup(selfDID)
	if err != nil {
		return nil, false, newErr(ErrCrypto, "no key-agreement key: %v", err)
	}
	agreer, ok := selfKP.(sagecrypto.KeyAgreer)
	if !ok {
		return nil, false, newErr(ErrCrypto, "no key-agreement key")
	}

	var recip *jweRecipient
	for i := range env.Recipients {
		if recipientMatchesDID(env.Recipients[i].Header.Kid, selfDID) {
			recip = &env.Recipients[i]
			break
		}
	}
	if recip == nil {
		return nil, false, newErr(ErrCrypto, "no key-agreement key")
	}
	recipKid := recip.Header.Kid

	var peerPub []byte
	var apu []byte
	isAuthenticated := header.Skid != ""
	switch {
	case header.Epk != nil:
		_, peerPub, err = agreementPubBytesFromJWK(header.Epk)
		if err != nil {
			return nil, false, err
		}
	case header.Skid != "":
		senderDID, err := senderDIDFromSkid(header.Skid)
		if err != nil {
			return nil, false, err
		}
		doc, err := resolver.Resolve(ctx, senderDID)
		if err != nil {
			return nil, false, newErr(ErrDidResolution, "resolving sender %s: %v", senderDID, err)
		}
		vm, ok := doc.VerificationMethodByID(header.Skid)
		if !ok {
			return nil, false, newErr(ErrCrypto, "sender %s carries no verification method %s", senderDID, header.Skid)
		}
		pub, err := formats.NewJWKImporter().ImportPublic(vm.PublicKeyJWK, sagecrypto.KeyFormatJWK)
		if err != nil {
			return nil, false, newErr(ErrCrypto, "importing sender agreement key: %v", err)
		}
		_, peerPub, err = rawAgreementPublicBytes(pub)
		if err != nil {
			return nil, false, err
		}
		apu = []byte(header.Skid)
	default:
		return nil, false, newErr(ErrCrypto, "protected header carries neither epk nor skid")
	}

	z, err := agreer.DeriveSharedSecret(peerPub)
	if err != nil {
		return nil, false, newErr(ErrCrypto, "ECDH agreement failed: %v", err)
	}
	otherInfo := sagecrypto.BuildOtherInfo([]byte(jweAlg), apu, []byte(recipKid), 256)
	kek := sagecrypto.ConcatKDF(z, otherInfo, 256)

	wrapped, err := base64.RawURLEncoding.DecodeString(recip.EncryptedKey)
	if err != nil {
		return nil, false, newErr(ErrParse, "decoding encrypted_key: %v", err)
	}
	cek, err := sagecrypto.AESKeyUnwrap(kek, wrapped)
	if err != nil {
		return nil, false, newErr(ErrCrypto, "unwrapping CEK: %v", err)
	}

	iv, err := base64.RawURLEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, false, newErr(ErrParse, "decoding iv: %v", err)
	}
	ciphertext, err := base64.RawURLEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, false, newErr(ErrParse, "decoding ciphertext: %v", err)
	}
	tag, err := base64.RawURLEncoding.DecodeString(env.Tag)
	if err != nil {
		return nil, false, newErr(ErrParse, "decoding tag: %v", err)
	}

	plaintext, err := aesGCMOpen(cek, iv, ciphertext, tag, []byte(env.Protected))
	if err != nil {
		return nil, false, err
	}
	return plaintext, isAuthenticated, nil
}

// senderDIDFromSkid strips the "#fragment" off a verification-method id to
// recover the owning DID.
func senderDIDFromSkid(skid string) (did.DID, error) {
	for i := 0; i < len(skid); i++ {
		if skid[i] == '#' {
			return did.DID(skid[:i]), nil
		}
	}
	return "", newErr(ErrCrypto, "skid %q is not a verification-method id", skid)
}
