// Package keyformat encodes key pairs into password protected keystore records
// and decodes them back.
package keyformat

import (
	"encoding/json"
	"fmt"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

// FieldVersion is the JSON field carrying the record format version.
const FieldVersion = "ks_version"

// Record is a decoded keystore record. The set of implementations is closed:
// one per supported format version.
type Record interface {
	// Version returns the ks_version of the record.
	Version() string
	// EncodedAddress returns the address stored alongside the ciphertext.
	EncodedAddress() string

	isRecord()
}

// Encrypter turns a key pair into the bytes of a record of one format version.
type Encrypter interface {
	Version() string
	Encrypt(kp *key.KeyPair, password string) ([]byte, error)
}

// NewEncrypter returns the encrypter for version using the given scrypt costs.
func NewEncrypter(version string, scryptN, scryptP int) (Encrypter, error) {
	switch version {
	case VersionV1:
		return NewV1(scryptN, scryptP), nil
	default:
		return nil, fmt.Errorf("%w: unsupported keystore version %q", walleterrors.ErrInvalidKeyStoreFormat, version)
	}
}

// Decode parses record bytes, resolving the format from the ks_version field.
func Decode(data []byte) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", walleterrors.ErrInvalidKeyStoreFormat, err)
	}
	rawVersion, ok := fields[FieldVersion]
	if !ok {
		return nil, fmt.Errorf("%w: no %s field", walleterrors.ErrInvalidKeyStoreFormat, FieldVersion)
	}
	var version string
	if err := json.Unmarshal(rawVersion, &version); err != nil {
		return nil, fmt.Errorf("%w: %s is not a string", walleterrors.ErrInvalidKeyStoreFormat, FieldVersion)
	}

	switch version {
	case VersionV1:
		rec := new(V1Record)
		if err := json.Unmarshal(data, rec); err != nil {
			return nil, fmt.Errorf("%w: %v", walleterrors.ErrInvalidKeyStoreFormat, err)
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: unsupported keystore version %q", walleterrors.ErrInvalidKeyStoreFormat, version)
	}
}

// Decrypt decodes data and recovers the key pair with password.
func Decrypt(data []byte, password string) (*key.KeyPair, error) {
	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return DecryptRecord(rec, password)
}

// DecryptRecord recovers the key pair held by an already decoded record.
func DecryptRecord(rec Record, password string) (*key.KeyPair, error) {
	switch r := rec.(type) {
	case *V1Record:
		return r.decrypt(password)
	default:
		return nil, fmt.Errorf("%w: unsupported record %T", walleterrors.ErrInvalidKeyStoreFormat, rec)
	}
}
