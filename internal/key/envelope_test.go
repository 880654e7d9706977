package key

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x11}, PrivateKeyLength)

	blob, err := EncryptPrivateKey(raw, "password")
	require.NoError(t, err)
	assert.Equal(t, types.EncryptedPrivateKeyVersion, blob[0])
	assert.Len(t, blob, 1+len(raw)+16)

	again, err := EncryptPrivateKey(raw, "password")
	require.NoError(t, err)
	assert.True(t, blob.Equal(again), "envelope must be deterministic")

	decrypted, err := DecryptPrivateKey(blob, "password")
	require.NoError(t, err)
	assert.Equal(t, raw, decrypted)
}

func TestEnvelopeDecryptFailures(t *testing.T) {
	raw := bytes.Repeat([]byte{0x22}, PrivateKeyLength)
	blob, err := EncryptPrivateKey(raw, "password")
	require.NoError(t, err)

	_, err = DecryptPrivateKey(blob, "wrong")
	assert.ErrorIs(t, err, walleterrors.ErrDecryptionFailed)

	tampered := append(types.EncryptedPrivateKey(nil), blob...)
	tampered[5] ^= 0x01
	_, err = DecryptPrivateKey(tampered, "password")
	assert.ErrorIs(t, err, walleterrors.ErrDecryptionFailed)

	wrongVersion := append(types.EncryptedPrivateKey(nil), blob...)
	wrongVersion[0] = 0x42
	_, err = DecryptPrivateKey(wrongVersion, "password")
	assert.ErrorIs(t, err, walleterrors.ErrDecryptionFailed)

	_, err = DecryptPrivateKey(types.EncryptedPrivateKey{types.EncryptedPrivateKeyVersion}, "password")
	assert.ErrorIs(t, err, walleterrors.ErrDecryptionFailed)
}
