package types

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

const (
	// AddressLength is the length of a raw address: the parity prefix of the
	// public key's Y coordinate followed by its 32-byte X coordinate.
	AddressLength = 33

	// AddressVersion tags an encoded account address.
	AddressVersion byte = 0x42
)

// ErrInvalidAddress is returned when an encoded address cannot be parsed.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a raw account address, without its version tag.
type Address [AddressLength]byte

// BytesToAddress copies b into an Address. b must be exactly AddressLength long.
func BytesToAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w: length %d, want %d", ErrInvalidAddress, len(b), AddressLength)
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress decodes a base58check encoded address.
func ParseAddress(encoded string) (Address, error) {
	payload, version, err := base58.CheckDecode(encoded)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if version != AddressVersion {
		return Address{}, fmt.Errorf("%w: version %#x, want %#x", ErrInvalidAddress, version, AddressVersion)
	}
	return BytesToAddress(payload)
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte { return a[:] }

// String returns the base58check encoding of the versioned address.
func (a Address) String() string {
	return base58.CheckEncode(a[:], AddressVersion)
}

// Identity returns the keystore identity of the address.
func (a Address) Identity() Identity {
	return Identity(a.String())
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == Address{}
}
