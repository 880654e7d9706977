package key

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

var referenceKeys = []struct {
	encrypted string
	password  string
	address   string
}{
	{
		encrypted: "47N1pMe88fNV4Kz9WpjNUNVGkgQc9pvPWdMSNcJ3bf1A1kM3jRXitXAPbxoQhYtCCuf6Wjprm",
		password:  "ieze33cp",
		address:   "AmNusYXGmi5zKxjyPvTKMpnLaCRP5qmQeXbeSf2GE72s2y3nhAG9",
	},
	{
		encrypted: "47JjJgk6i2zTjmWcv2KAGFKguUqtvEgmPB7N2F4FLyDN8Pm9vDH1mEeG5hjNNDnvJgUGDN56y",
		password:  "ieze33cp",
		address:   "AmNAvfJ9RxnVeybramFK15ZtVcBUES8sCzYWtLzY9HUbjCYQXZB5",
	},
}

func TestReferenceKeys(t *testing.T) {
	for _, ref := range referenceKeys {
		kp, err := FromEncoded(ref.encrypted, ref.password)
		require.NoError(t, err)
		assert.Equal(t, ref.address, kp.Address().String())

		exported, err := kp.EncodedExport(ref.password)
		require.NoError(t, err)
		assert.Equal(t, ref.encrypted, exported)

		_, err = FromEncoded(ref.encrypted, "wrong")
		assert.ErrorIs(t, err, walleterrors.ErrDecryptionFailed)
	}
}

func TestGenerateAndRebuild(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)
	assert.False(t, kp.Address().IsZero())

	rebuilt, err := FromRawPrivateKey(kp.RawPrivateKey())
	require.NoError(t, err)
	assert.True(t, kp.Equal(rebuilt))
	assert.Equal(t, kp.Address(), rebuilt.Address())

	blob, err := kp.Export("pw")
	require.NoError(t, err)
	imported, err := FromEncryptedBytes(blob, "pw")
	require.NoError(t, err)
	assert.True(t, kp.Equal(imported))

	assert.Contains(t, kp.String(), kp.Address().String())
}

func TestFromRawPrivateKeyInvalid(t *testing.T) {
	for _, d := range [][]byte{
		nil,
		make([]byte, PrivateKeyLength),
		bytes.Repeat([]byte{0x01}, PrivateKeyLength+1),
		crypto.S256().Params().N.Bytes(),
	} {
		_, err := FromRawPrivateKey(d)
		assert.ErrorIs(t, err, walleterrors.ErrInvalidKeyMaterial)
	}

	short, err := FromRawPrivateKey([]byte{0x07})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x07}, short.RawPrivateKey())
}

func TestSignVerify(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)
	other, err := Generate()
	require.NoError(t, err)

	message := []byte("transfer 10 aergo")
	signature, err := kp.Sign(message)
	require.NoError(t, err)

	assert.True(t, kp.Verify(message, signature))
	assert.False(t, kp.Verify([]byte("transfer 11 aergo"), signature))
	assert.False(t, other.Verify(message, signature))
	assert.False(t, kp.Verify(message, []byte{0x30, 0x00}))

	sig, err := ParseSignature(signature, CurveOrder())
	require.NoError(t, err)
	assert.True(t, sig.Equal(sig.Canonical(CurveOrder())), "signature must be low-S")

	hash := sha256.Sum256(message)
	ok, err := VerifyHash(kp.PublicKey(), hash[:], signature)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignVerifyTx(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	raw := []byte{0x01, 0x02, 0x03}
	tx, err := kp.SignTx(raw)
	require.NoError(t, err)
	assert.Equal(t, types.HashTx(raw), tx.Hash)
	assert.True(t, kp.VerifyTx(tx))

	tx.Raw[0] = 0xff
	assert.False(t, kp.VerifyTx(tx), "raw bytes no longer match the hash")
	assert.Equal(t, byte(0x01), raw[0], "signing must copy the raw bytes")

	tx, err = kp.SignTx(raw)
	require.NoError(t, err)
	tx.Signature[len(tx.Signature)-1] ^= 0x01
	assert.False(t, kp.VerifyTx(tx))
	assert.False(t, kp.VerifyTx(nil))
}
