// Package key holds the secp256k1 key pair used to sign transactions, the
// canonical signature encoding, and the password envelope used to export keys.
package key

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

// PrivateKeyLength is the size of a padded secp256k1 scalar.
const PrivateKeyLength = 32

var logger = log.New("module", "key")

var _ Signer = (*KeyPair)(nil)

// Signer is the signing capability handed out by a keystore.
type Signer interface {
	// Address returns the address of the key the signer is bound to.
	Address() types.Address

	// Sign signs the SHA-256 digest of message and returns the serialized signature.
	Sign(message []byte) ([]byte, error)

	// Verify reports whether signature is a valid signature of message. It never fails.
	Verify(message, signature []byte) bool

	// SignTx signs the hash of a raw transaction.
	SignTx(raw []byte) (*types.Transaction, error)

	// VerifyTx reports whether tx carries a valid signature over its raw bytes.
	VerifyTx(tx *types.Transaction) bool

	// Export re-encrypts the private key under password.
	Export(password string) (types.EncryptedPrivateKey, error)
}

// KeyPair is an immutable secp256k1 key pair together with its derived address.
type KeyPair struct {
	privateKey *ecdsa.PrivateKey
	address    types.Address
}

// CurveOrder returns the order n of the secp256k1 group.
func CurveOrder() *big.Int {
	return new(big.Int).Set(crypto.S256().Params().N)
}

// Generate creates a key pair from a fresh random scalar.
func Generate() (*KeyPair, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", walleterrors.ErrKeyGenerationFailed, err)
	}
	return newKeyPair(privateKey), nil
}

// FromRawPrivateKey rebuilds a key pair from a big-endian scalar of at most 32 bytes.
func FromRawPrivateKey(d []byte) (*KeyPair, error) {
	if len(d) == 0 || len(d) > PrivateKeyLength {
		return nil, fmt.Errorf("%w: scalar length %d", walleterrors.ErrInvalidKeyMaterial, len(d))
	}
	privateKey, err := crypto.ToECDSA(common.LeftPadBytes(d, PrivateKeyLength))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", walleterrors.ErrInvalidKeyMaterial, err)
	}
	return newKeyPair(privateKey), nil
}

// FromEncryptedBytes decrypts an exported key with password and rebuilds the key pair.
func FromEncryptedBytes(blob types.EncryptedPrivateKey, password string) (*KeyPair, error) {
	raw, err := DecryptPrivateKey(blob, password)
	if err != nil {
		return nil, err
	}
	return FromRawPrivateKey(raw)
}

// FromEncoded is FromEncryptedBytes for the base58check text form of an exported key.
func FromEncoded(encoded string, password string) (*KeyPair, error) {
	blob, err := types.ParseEncryptedPrivateKey(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", walleterrors.ErrDecryptionFailed, err)
	}
	return FromEncryptedBytes(blob, password)
}

func newKeyPair(privateKey *ecdsa.PrivateKey) *KeyPair {
	return &KeyPair{
		privateKey: privateKey,
		address:    PubkeyToAddress(&privateKey.PublicKey),
	}
}

// PubkeyToAddress derives the address of a public key: the Y parity byte
// followed by the 32-byte X coordinate.
func PubkeyToAddress(pub *ecdsa.PublicKey) types.Address {
	var addr types.Address
	copy(addr[:], crypto.CompressPubkey(pub))
	return addr
}

// Address returns the address derived from the public key.
func (k *KeyPair) Address() types.Address { return k.address }

// PublicKey returns a copy of the public key.
func (k *KeyPair) PublicKey() *ecdsa.PublicKey {
	pub := k.privateKey.PublicKey
	return &pub
}

// RawPrivateKey returns the scalar as a minimal big-endian byte slice.
func (k *KeyPair) RawPrivateKey() []byte {
	return k.privateKey.D.Bytes()
}

// Equal reports whether both key pairs hold the same scalar.
func (k *KeyPair) Equal(other *KeyPair) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.privateKey.D.Cmp(other.privateKey.D) == 0
}

// Export encrypts the private key under password.
func (k *KeyPair) Export(password string) (types.EncryptedPrivateKey, error) {
	return EncryptPrivateKey(k.RawPrivateKey(), password)
}

// EncodedExport is Export in base58check text form.
func (k *KeyPair) EncodedExport(password string) (string, error) {
	blob, err := k.Export(password)
	if err != nil {
		return "", err
	}
	return blob.Encode(), nil
}

// SignHash signs a 32-byte digest and returns the serialized canonical signature.
func (k *KeyPair) SignHash(hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, k.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash: %w", err)
	}
	raw := Signature{
		R: new(big.Int).SetBytes(sig[:32]),
		S: new(big.Int).SetBytes(sig[32:64]),
	}
	serialized := SerializeSignature(raw, crypto.S256().Params().N)
	logger.Trace("Signed hash", "address", k.address, "signature", common.Bytes2Hex(serialized))
	return serialized, nil
}

// Sign signs the SHA-256 digest of message.
func (k *KeyPair) Sign(message []byte) ([]byte, error) {
	hash := sha256.Sum256(message)
	return k.SignHash(hash[:])
}

// VerifyHash reports whether signature is valid for hash under this key. Any
// parse error is reported as an invalid signature.
func (k *KeyPair) VerifyHash(hash, signature []byte) bool {
	ok, err := VerifyHash(k.PublicKey(), hash, signature)
	if err != nil {
		logger.Debug("Verification failed", "address", k.address, "err", err)
		return false
	}
	return ok
}

// Verify reports whether signature is valid for the SHA-256 digest of message.
func (k *KeyPair) Verify(message, signature []byte) bool {
	hash := sha256.Sum256(message)
	return k.VerifyHash(hash[:], signature)
}

// SignTx signs the hash of raw and returns the signed transaction. raw is copied.
func (k *KeyPair) SignTx(raw []byte) (*types.Transaction, error) {
	hash := types.HashTx(raw)
	signature, err := k.SignHash(hash[:])
	if err != nil {
		return nil, err
	}
	return &types.Transaction{
		Raw:       append([]byte(nil), raw...),
		Hash:      hash,
		Signature: signature,
	}, nil
}

// VerifyTx reports whether tx.Hash matches tx.Raw and tx.Signature is valid for it.
func (k *KeyPair) VerifyTx(tx *types.Transaction) bool {
	if tx == nil {
		return false
	}
	if types.HashTx(tx.Raw) != tx.Hash {
		logger.Debug("Transaction hash mismatch", "address", k.address, "hash", tx.Hash.Hex())
		return false
	}
	return k.VerifyHash(tx.Hash[:], tx.Signature)
}

// String prints the address only.
func (k *KeyPair) String() string {
	return fmt.Sprintf("KeyPair{address=%s}", k.address)
}

// VerifyHash checks a serialized signature against pub. The error is non-nil
// only when the signature bytes or the public key cannot be parsed.
func VerifyHash(pub *ecdsa.PublicKey, hash, signature []byte) (bool, error) {
	sig, err := ParseSignature(signature, crypto.S256().Params().N)
	if err != nil {
		return false, err
	}
	pubKey, err := secp256k1.ParsePubKey(crypto.FromECDSAPub(pub))
	if err != nil {
		return false, fmt.Errorf("%w: %v", walleterrors.ErrInvalidKeyMaterial, err)
	}

	var r, s secp256k1.ModNScalar
	r.SetByteSlice(sig.R.Bytes())
	s.SetByteSlice(sig.S.Bytes())
	return dcrecdsa.NewSignature(&r, &s).Verify(hash, pubKey), nil
}
