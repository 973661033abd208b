package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
)

// ConcatKDF implements the NIST SP 800-56A Concatenation Key Derivation
// Function (Section 5.8.1), as used by JWE ECDH-ES (RFC 7518 §4.6) to turn
// an ECDH shared secret Z into a key-encryption key.
//
// otherInfo is built by the caller as
// AlgorithmID || PartyUInfo || PartyVInfo || SuppPubInfo, with each of
// AlgorithmID/PartyUInfo/PartyVInfo length-prefixed by a 4-byte
// big-endian length, and SuppPubInfo the 4-byte big-endian bit length of
// the derived key. ConcatKDF itself performs only the hash iteration; use
// BuildOtherInfo to construct otherInfo from its logical parts.
func ConcatKDF(z, otherInfo []byte, keyDataLenBits int) []byte {
	return concatKDF(sha256.New, z, otherInfo, keyDataLenBits)
}

func concatKDF(newHash func() hash.Hash, z, otherInfo []byte, keyDataLenBits int) []byte {
	h := newHash()
	hashLen := h.Size()
	keyLenBytes := keyDataLenBits / 8
	reps := (keyLenBytes + hashLen - 1) / hashLen

	out := make([]byte, 0, reps*hashLen)
	for counter := uint32(1); counter <= uint32(reps); counter++ {
		h.Reset()
		var ctr [4]byte
		binary.BigEndian.PutUint32(ctr[:], counter)
		h.Write(ctr[:])
		h.Write(z)
		h.Write(otherInfo)
		out = h.Sum(out)
	}
	return out[:keyLenBytes]
}

// lengthPrefixed returns the 4-byte big-endian length of b followed by b
// itself, per SP 800-56A's fixed-length encoding of variable-length
// fields.
func lengthPrefixed(b []byte) []byte {
	out := make([]byte, 4+len(b))
	binary.BigEndian.PutUint32(out[:4], uint32(len(b)))
	copy(out[4:], b)
	return out
}

// BuildOtherInfo assembles the Concat-KDF OtherInfo value from its logical
// components: AlgorithmID, PartyUInfo (sender), PartyVInfo (recipient),
// and SuppPubInfo (the derived key length in bits, as used by JWE
// ECDH-ES). PrivateInfo is omitted as JOSE does not use it.
func BuildOtherInfo(algorithmID, partyUInfo, partyVInfo []byte, keyDataLenBits int) []byte {
	var suppPubInfo [4]byte
	binary.BigEndian.PutUint32(suppPubInfo[:], uint32(keyDataLenBits))

	out := make([]byte, 0, len(algorithmID)+len(partyUInfo)+len(partyVInfo)+16)
	out = append(out, lengthPrefixed(algorithmID)...)
	out = append(out, lengthPrefixed(partyUInfo)...)
	out = append(out, lengthPrefixed(partyVInfo)...)
	out = append(out, suppPubInfo[:]...)
	return out
}
