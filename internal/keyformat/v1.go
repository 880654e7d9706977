package keyformat

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/crypto/scrypt"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

const (
	// VersionV1 is the ks_version of the scrypt and aes-128-ctr layout.
	VersionV1 = "1"

	// StandardScryptN is the N parameter of Scrypt encryption algorithm, using 256MB
	// memory and taking approximately 1s CPU time on a modern processor.
	StandardScryptN = 1 << 18

	// StandardScryptP is the P parameter of Scrypt encryption algorithm, using 256MB
	// memory and taking approximately 1s CPU time on a modern processor.
	StandardScryptP = 1

	// LightScryptN is the N parameter of Scrypt encryption algorithm, using 4MB
	// memory and taking approximately 100ms CPU time on a modern processor.
	LightScryptN = 1 << 12

	// LightScryptP is the P parameter of Scrypt encryption algorithm, using 4MB
	// memory and taking approximately 100ms CPU time on a modern processor.
	LightScryptP = 6

	// maxScryptN bounds the memory a record read from disk can make us allocate.
	maxScryptN      = 1 << 20
	maxScryptKeyLen = 64

	scryptR      = 8
	scryptKeyLen = 32

	saltLength      = 32
	ivLength        = aes.BlockSize
	cipherKeyLength = 16

	cipherAlgorithm = "aes-128-ctr"
	kdfAlgorithm    = "scrypt"
)

// V1Record is the ks_version "1" keystore layout.
type V1Record struct {
	Address   string   `json:"address"`
	KSVersion string   `json:"ks_version"`
	Cipher    V1Cipher `json:"cipher"`
	KDF       V1KDF    `json:"kdf"`
}

// V1Cipher describes how the private key was encrypted.
type V1Cipher struct {
	Algorithm  string         `json:"algorithm"`
	Params     V1CipherParams `json:"params"`
	Ciphertext string         `json:"ciphertext"`
}

// V1CipherParams holds the hex encoded AES-CTR initial counter.
type V1CipherParams struct {
	IV string `json:"iv"`
}

// V1KDF describes how the cipher key was derived and carries the MAC.
type V1KDF struct {
	Algorithm string      `json:"algorithm"`
	Params    V1KDFParams `json:"params"`
	MAC       string      `json:"mac"`
}

// V1KDFParams are the scrypt costs and the hex encoded salt.
type V1KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n"`
	P     int    `json:"p"`
	R     int    `json:"r"`
	Salt  string `json:"salt"`
}

// Version returns the ks_version field.
func (r *V1Record) Version() string        { return r.KSVersion }
// EncodedAddress returns the address field as written.
func (r *V1Record) EncodedAddress() string { return r.Address }
func (r *V1Record) isRecord()              {}

// V1 encrypts key pairs into ks_version "1" records.
type V1 struct {
	scryptN int
	scryptP int
	logger  log.Logger
}

// NewV1 returns a V1 encrypter with the given scrypt costs. Zero values select
// the standard costs.
func NewV1(scryptN, scryptP int) *V1 {
	if scryptN == 0 {
		scryptN = StandardScryptN
	}
	if scryptP == 0 {
		scryptP = StandardScryptP
	}
	return &V1{
		scryptN: scryptN,
		scryptP: scryptP,
		logger:  log.New("module", "keyformat", "version", VersionV1),
	}
}

// Version returns VersionV1.
func (v *V1) Version() string { return VersionV1 }

// Encrypt produces the JSON bytes of a new record for kp.
func (v *V1) Encrypt(kp *key.KeyPair, password string) ([]byte, error) {
	rec, err := v.EncryptRecord(kp, password)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// EncryptRecord is Encrypt without the final JSON encoding.
func (v *V1) EncryptRecord(kp *key.KeyPair, password string) (*V1Record, error) {
	v.logger.Debug("Encrypt key", "address", kp.Address(), "n", v.scryptN, "p", v.scryptP)

	salt, err := randomBytes(saltLength)
	if err != nil {
		return nil, err
	}
	params := V1KDFParams{
		DKLen: scryptKeyLen,
		N:     v.scryptN,
		P:     v.scryptP,
		R:     scryptR,
		Salt:  hex.EncodeToString(salt),
	}
	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	iv, err := randomBytes(ivLength)
	if err != nil {
		return nil, err
	}
	ciphertext, err := aesCTRXOR(derivedKey[:cipherKeyLength], kp.RawPrivateKey(), iv)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt key: %w", err)
	}
	mac := generateMAC(derivedKey, ciphertext)

	return &V1Record{
		Address:   kp.Address().String(),
		KSVersion: VersionV1,
		Cipher: V1Cipher{
			Algorithm:  cipherAlgorithm,
			Params:     V1CipherParams{IV: hex.EncodeToString(iv)},
			Ciphertext: hex.EncodeToString(ciphertext),
		},
		KDF: V1KDF{
			Algorithm: kdfAlgorithm,
			Params:    params,
			MAC:       hex.EncodeToString(mac),
		},
	}, nil
}

func (r *V1Record) decrypt(password string) (*key.KeyPair, error) {
	if r.KSVersion != VersionV1 {
		return nil, fmt.Errorf("%w: keystore version must be %s", walleterrors.ErrInvalidKeyStoreFormat, VersionV1)
	}
	if r.Cipher.Algorithm != cipherAlgorithm {
		return nil, fmt.Errorf("%w: cipher algorithm must be %s", walleterrors.ErrInvalidKeyStoreFormat, cipherAlgorithm)
	}
	if r.KDF.Algorithm != kdfAlgorithm {
		return nil, fmt.Errorf("%w: kdf algorithm must be %s", walleterrors.ErrInvalidKeyStoreFormat, kdfAlgorithm)
	}
	params := r.KDF.Params
	if err := checkScryptParams(params); err != nil {
		return nil, err
	}

	salt, err := decodeHex("salt", params.Salt)
	if err != nil {
		return nil, err
	}
	iv, err := decodeHex("iv", r.Cipher.Params.IV)
	if err != nil {
		return nil, err
	}
	if len(iv) != ivLength {
		return nil, fmt.Errorf("%w: iv length %d, want %d", walleterrors.ErrInvalidKeyStoreFormat, len(iv), ivLength)
	}
	ciphertext, err := decodeHex("ciphertext", r.Cipher.Ciphertext)
	if err != nil {
		return nil, err
	}
	storedMAC, err := decodeHex("mac", r.KDF.MAC)
	if err != nil {
		return nil, err
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", walleterrors.ErrInvalidKeyStoreFormat, err)
	}
	if subtle.ConstantTimeCompare(generateMAC(derivedKey, ciphertext), storedMAC) != 1 {
		return nil, fmt.Errorf("%w: invalid mac value", walleterrors.ErrInvalidAuthentication)
	}

	rawD, err := aesCTRXOR(derivedKey[:cipherKeyLength], ciphertext, iv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", walleterrors.ErrInvalidKeyStoreFormat, err)
	}
	kp, err := key.FromRawPrivateKey(rawD)
	if err != nil {
		return nil, err
	}
	if kp.Address().String() != r.Address {
		return nil, fmt.Errorf("%w: address mismatch: record has %s but key derives %s",
			walleterrors.ErrInvalidAuthentication, r.Address, kp.Address())
	}
	return kp, nil
}

func checkScryptParams(p V1KDFParams) error {
	switch {
	case p.N <= 1 || p.N&(p.N-1) != 0:
		return fmt.Errorf("%w: scrypt n must be a power of two greater than 1", walleterrors.ErrInvalidKeyStoreFormat)
	case p.N > maxScryptN:
		return fmt.Errorf("%w: scrypt n %d exceeds %d", walleterrors.ErrInvalidKeyStoreFormat, p.N, maxScryptN)
	case p.R <= 0 || p.P <= 0 || uint64(p.R)*uint64(p.P) >= 1<<30:
		return fmt.Errorf("%w: invalid scrypt r=%d p=%d", walleterrors.ErrInvalidKeyStoreFormat, p.R, p.P)
	case p.DKLen < scryptKeyLen || p.DKLen > maxScryptKeyLen:
		return fmt.Errorf("%w: dklen %d out of range [%d, %d]", walleterrors.ErrInvalidKeyStoreFormat, p.DKLen, scryptKeyLen, maxScryptKeyLen)
	}
	return nil
}

// generateMAC is keccak256(derivedKey[16:32] || ciphertext).
func generateMAC(derivedKey, ciphertext []byte) []byte {
	return crypto.Keccak256(derivedKey[16:32], ciphertext)
}

func aesCTRXOR(cipherKey, inText, iv []byte) ([]byte, error) {
	aesBlock, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(aesBlock, iv)
	outText := make([]byte, len(inText))
	stream.XORKeyStream(outText, inText)
	return outText, nil
}

func decodeHex(field, value string) ([]byte, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not hex: %v", walleterrors.ErrInvalidKeyStoreFormat, field, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", walleterrors.ErrInvalidKeyStoreFormat, field)
	}
	return b, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("reading from crypto/rand failed: %w", err)
	}
	return b, nil
}
