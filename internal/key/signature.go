package key

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	signatureHeader = 0x30
	integerMarker   = 0x02

	// MinimumSignatureLength is the size of a serialized signature whose r and s
	// are one byte each: header, length, and marker+length+byte twice.
	MinimumSignatureLength = 8
)

// ErrMalformedSignature is returned when serialized signature bytes are rejected.
var ErrMalformedSignature = errors.New("malformed signature")

// Signature is a raw ECDSA signature pair.
type Signature struct {
	R *big.Int
	S *big.Int
}

// CanonicalS returns s, or order-s when s is in the upper half of the order.
func CanonicalS(s, order *big.Int) *big.Int {
	halfOrder := new(big.Int).Rsh(order, 1)
	if s.Cmp(halfOrder) > 0 {
		return new(big.Int).Sub(order, s)
	}
	return new(big.Int).Set(s)
}

// Canonical returns the low-S form of sig.
func (sig Signature) Canonical(order *big.Int) Signature {
	return Signature{R: new(big.Int).Set(sig.R), S: CanonicalS(sig.S, order)}
}

// Equal reports whether both signatures carry the same r and s.
func (sig Signature) Equal(other Signature) bool {
	return sig.R.Cmp(other.R) == 0 && sig.S.Cmp(other.S) == 0
}

// SerializeSignature canonicalizes sig and frames it as
// 0x30 <len> 0x02 <len r> <r> 0x02 <len s> <s>.
func SerializeSignature(sig Signature, order *big.Int) []byte {
	r := signedBytes(sig.R)
	s := signedBytes(CanonicalS(sig.S, order))

	out := make([]byte, 0, 6+len(r)+len(s))
	out = append(out, signatureHeader, byte(4+len(r)+len(s)))
	out = append(out, integerMarker, byte(len(r)))
	out = append(out, r...)
	out = append(out, integerMarker, byte(len(s)))
	out = append(out, s...)
	return out
}

// ParseSignature is the strict inverse of SerializeSignature. Integers must be
// non-negative and below order, and no bytes may follow s.
func ParseSignature(data []byte, order *big.Int) (Signature, error) {
	if len(data) < MinimumSignatureLength {
		return Signature{}, fmt.Errorf("%w: length %d is shorter than %d", ErrMalformedSignature, len(data), MinimumSignatureLength)
	}
	if data[0] != signatureHeader {
		return Signature{}, fmt.Errorf("%w: header %#x, want %#x", ErrMalformedSignature, data[0], signatureHeader)
	}
	if int(data[1]) != len(data)-2 {
		return Signature{}, fmt.Errorf("%w: declared length %d, actual %d", ErrMalformedSignature, data[1], len(data)-2)
	}

	r, index, err := parseInteger(data, 2, order)
	if err != nil {
		return Signature{}, err
	}
	s, index, err := parseInteger(data, index, order)
	if err != nil {
		return Signature{}, err
	}
	if index != len(data) {
		return Signature{}, fmt.Errorf("%w: %d bytes remain after s", ErrMalformedSignature, len(data)-index)
	}
	return Signature{R: r, S: s}, nil
}

func parseInteger(data []byte, index int, order *big.Int) (*big.Int, int, error) {
	if index+2 > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated integer header at %d", ErrMalformedSignature, index)
	}
	if data[index] != integerMarker {
		return nil, 0, fmt.Errorf("%w: integer marker %#x, want %#x", ErrMalformedSignature, data[index], integerMarker)
	}
	length := int(data[index+1])
	index += 2
	if length == 0 || index+length > len(data) {
		return nil, 0, fmt.Errorf("%w: integer length %d out of bounds", ErrMalformedSignature, length)
	}
	raw := data[index : index+length]
	if raw[0]&0x80 != 0 {
		return nil, 0, fmt.Errorf("%w: negative integer", ErrMalformedSignature)
	}
	v := new(big.Int).SetBytes(raw)
	if v.Cmp(order) >= 0 {
		return nil, 0, fmt.Errorf("%w: integer is not less than the curve order", ErrMalformedSignature)
	}
	return v, index + length, nil
}

// signedBytes is the minimal big-endian two's complement form of a non-negative v.
func signedBytes(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) == 0 || b[0]&0x80 != 0 {
		return append([]byte{0x00}, b...)
	}
	return b
}
