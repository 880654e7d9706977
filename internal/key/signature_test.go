package key

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeSignatureMinimal(t *testing.T) {
	order := CurveOrder()
	sig := Signature{R: big.NewInt(1), S: big.NewInt(2)}

	data := SerializeSignature(sig, order)
	assert.Equal(t, []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02}, data)
	assert.Len(t, data, MinimumSignatureLength)

	parsed, err := ParseSignature(data, order)
	require.NoError(t, err)
	assert.True(t, sig.Equal(parsed))
}

func TestSerializeSignatureHighBit(t *testing.T) {
	order := CurveOrder()
	sig := Signature{R: big.NewInt(0x80), S: big.NewInt(0x7f)}

	data := SerializeSignature(sig, order)
	assert.Equal(t, []byte{0x30, 0x07, 0x02, 0x02, 0x00, 0x80, 0x02, 0x01, 0x7f}, data)

	parsed, err := ParseSignature(data, order)
	require.NoError(t, err)
	assert.True(t, sig.Equal(parsed))
}

func TestSerializeSignatureCanonicalizesS(t *testing.T) {
	order := CurveOrder()
	highS := new(big.Int).Sub(order, big.NewInt(5))
	sig := Signature{R: big.NewInt(9), S: highS}

	parsed, err := ParseSignature(SerializeSignature(sig, order), order)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), parsed.S)
	assert.True(t, sig.Canonical(order).Equal(parsed))

	half := new(big.Int).Rsh(order, 1)
	assert.Equal(t, half, CanonicalS(half, order))
	assert.Equal(t, half, CanonicalS(new(big.Int).Add(half, big.NewInt(1)), order))
}

func TestParseSignatureRejects(t *testing.T) {
	order := CurveOrder()
	orderBytes := append([]byte{0x00}, order.Bytes()...)
	tooLarge := []byte{0x30, byte(4 + len(orderBytes) + 1), 0x02, byte(len(orderBytes))}
	tooLarge = append(tooLarge, orderBytes...)
	tooLarge = append(tooLarge, 0x02, 0x01, 0x01)

	cases := map[string][]byte{
		"nil":             nil,
		"too short":       {0x30, 0x05, 0x02, 0x01, 0x01, 0x02, 0x01},
		"bad header":      {0x31, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02},
		"length mismatch": {0x30, 0x07, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02},
		"bad r marker":    {0x30, 0x06, 0x03, 0x01, 0x01, 0x02, 0x01, 0x02},
		"bad s marker":    {0x30, 0x06, 0x02, 0x01, 0x01, 0x04, 0x01, 0x02},
		"zero r length":   {0x30, 0x06, 0x02, 0x00, 0x02, 0x01, 0x01, 0x02},
		"r overruns":      {0x30, 0x06, 0x02, 0x09, 0x01, 0x02, 0x01, 0x02},
		"s overruns":      {0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x02, 0x02},
		"negative r":      {0x30, 0x06, 0x02, 0x01, 0x81, 0x02, 0x01, 0x02},
		"trailing bytes":  {0x30, 0x07, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02, 0x00},
		"r not below n":   tooLarge,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSignature(data, order)
			assert.ErrorIs(t, err, ErrMalformedSignature)
		})
	}
}
