package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// EncryptedPrivateKeyVersion is the first byte of every EncryptedPrivateKey.
const EncryptedPrivateKeyVersion byte = 0xAA

// ErrInvalidEncryptedKey is returned when an encoded encrypted key cannot be parsed.
var ErrInvalidEncryptedKey = errors.New("invalid encrypted private key")

// EncryptedPrivateKey is a version tagged, password encrypted private key.
type EncryptedPrivateKey []byte

// ParseEncryptedPrivateKey decodes the base58check form produced by Encode.
func ParseEncryptedPrivateKey(encoded string) (EncryptedPrivateKey, error) {
	payload, version, err := base58.CheckDecode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncryptedKey, err)
	}
	if version != EncryptedPrivateKeyVersion {
		return nil, fmt.Errorf("%w: version %#x, want %#x", ErrInvalidEncryptedKey, version, EncryptedPrivateKeyVersion)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidEncryptedKey)
	}
	return append(EncryptedPrivateKey{version}, payload...), nil
}

// Encode returns the base58check form of the key.
func (k EncryptedPrivateKey) Encode() string {
	if len(k) == 0 {
		return ""
	}
	return base58.CheckEncode(k[1:], k[0])
}

// Equal compares the encrypted bytes.
func (k EncryptedPrivateKey) Equal(other EncryptedPrivateKey) bool {
	return bytes.Equal(k, other)
}

// String returns the base58check form.
func (k EncryptedPrivateKey) String() string {
	return k.Encode()
}
