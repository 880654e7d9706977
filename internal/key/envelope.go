package key

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

// EncryptPrivateKey seals a raw private key under password.
//
// The AES-256-GCM key and nonce are both derived from the password alone, so the
// same key and password always give the same blob. Existing exported keys depend
// on this, which is why the nonce is not randomized.
func EncryptPrivateKey(rawPrivateKey []byte, password string) (types.EncryptedPrivateKey, error) {
	aead, nonce, err := envelopeCipher(password)
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, rawPrivateKey, nil)
	return append(types.EncryptedPrivateKey{types.EncryptedPrivateKeyVersion}, sealed...), nil
}

// DecryptPrivateKey opens a blob produced by EncryptPrivateKey.
func DecryptPrivateKey(blob types.EncryptedPrivateKey, password string) ([]byte, error) {
	if len(blob) < 2 {
		return nil, fmt.Errorf("%w: encrypted key is too short", walleterrors.ErrDecryptionFailed)
	}
	if blob[0] != types.EncryptedPrivateKeyVersion {
		return nil, fmt.Errorf("%w: unsupported version %#x", walleterrors.ErrDecryptionFailed, blob[0])
	}
	aead, nonce, err := envelopeCipher(password)
	if err != nil {
		return nil, err
	}
	raw, err := aead.Open(nil, nonce, blob[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", walleterrors.ErrDecryptionFailed, err)
	}
	return raw, nil
}

func envelopeCipher(password string) (cipher.AEAD, []byte, error) {
	hashedPassword := sha256.Sum256([]byte(password))

	h := sha256.New()
	h.Write([]byte(password))
	h.Write(hashedPassword[:])
	encryptKey := h.Sum(nil)

	block, err := aes.NewCipher(encryptKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", walleterrors.ErrDecryptionFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", walleterrors.ErrDecryptionFailed, err)
	}
	nonce := make([]byte, aead.NonceSize())
	copy(nonce, hashedPassword[4:16])
	return aead, nonce, nil
}
