package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashLength is the size of a transaction hash.
const HashLength = sha256.Size

// Hash is a transaction digest.
type Hash [HashLength]byte

// Bytes returns the hash as a slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the hash as lowercase hex without a prefix.
func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

// Transaction is a raw transaction supplied by the caller together with the
// signature produced over its hash.
type Transaction struct {
	Raw       []byte
	Hash      Hash
	Signature []byte
}

// HashTx returns the digest that is signed for a raw transaction.
func HashTx(raw []byte) Hash {
	return sha256.Sum256(raw)
}
