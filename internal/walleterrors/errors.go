// Package walleterrors holds the error kinds returned at the boundary of the key
// management packages. Callers match them with errors.Is.
package walleterrors

import "errors"

var (
	ErrKeyGenerationFailed   = errors.New("key generation failed")
	ErrInvalidKeyMaterial    = errors.New("invalid key material")
	ErrDecryptionFailed      = errors.New("error decrypting key")
	ErrInvalidAuthentication = errors.New("invalid authentication")
	ErrUnknownIdentity       = errors.New("unknown identity")
	ErrDuplicateIdentity     = errors.New("identity already exists")
	ErrInvalidKeyStoreFormat = errors.New("invalid keystore format")
	ErrStorageIO             = errors.New("keystore storage failure")

	ErrLocked = errors.New("the identity is locked")
)
