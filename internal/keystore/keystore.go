// Package keystore keeps password protected key pairs under stable identities.
package keystore

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

// KeyStore defines the repository of key pairs. Every key is identified by the
// Identity of the Authentication it was saved with, and unlocked by its password.
type KeyStore interface {
	// Save stores kp encrypted with the authentication's password. It fails with
	// ErrDuplicateIdentity when the identity is already stored.
	Save(auth types.Authentication, kp *key.KeyPair) error

	// Load decrypts the key stored under the identity and returns a signer bound to it.
	Load(auth types.Authentication) (key.Signer, error)

	// Remove deletes the key stored under the identity. The password is checked first.
	Remove(auth types.Authentication) error

	// Export returns the stored private key encrypted under password.
	Export(auth types.Authentication, password string) (types.EncryptedPrivateKey, error)

	// ListIdentities returns every identity in the store, in no particular order.
	ListIdentities() ([]types.Identity, error)

	// Contains reports whether a key is stored under identity. No password is needed.
	Contains(identity types.Identity) (bool, error)
}

// keyPairLoader is implemented by the stores of this package. A composite store
// needs the decrypted key pair of its base, not only a signer.
type keyPairLoader interface {
	loadKeyPair(auth types.Authentication) (*key.KeyPair, error)
}

var identityRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// validateIdentity rejects identities that cannot be mapped onto a file name or
// a storage path unambiguously.
func validateIdentity(identity types.Identity) error {
	if !identityRegex.MatchString(identity.Value()) {
		return fmt.Errorf("%w: identity %q must be alphanumeric", walleterrors.ErrInvalidAuthentication, identity)
	}
	return nil
}

func encryptError(err error) error {
	if errors.Is(err, walleterrors.ErrInvalidKeyStoreFormat) {
		return err
	}
	return fmt.Errorf("%w: failed to encrypt key: %v", walleterrors.ErrInvalidKeyStoreFormat, err)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", walleterrors.ErrStorageIO, op, err)
}
