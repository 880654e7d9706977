package signer

import (
	"github.com/xueqianLu/aergosigner/internal/types"
)

// KeyManager defines the interface for managing keys held in a keystore and
// signing with them. Keys must be unlocked before they can sign.
type KeyManager interface {
	// GetAccounts returns the identities of all keys in the underlying keystore.
	GetAccounts() ([]types.Identity, error)

	// CreateKey generates a new key pair, stores it under its address encrypted
	// with password and leaves it unlocked.
	CreateKey(password string) (types.Address, error)

	// ImportKey decrypts an exported key with oldPassword and stores it under its
	// address encrypted with newPassword.
	ImportKey(encrypted types.EncryptedPrivateKey, oldPassword, newPassword string) (types.Address, error)

	// ExportKey re-encrypts the key stored under auth with password.
	ExportKey(auth types.Authentication, password string) (types.EncryptedPrivateKey, error)

	// Unlock loads the key stored under auth and keeps it ready for signing.
	Unlock(auth types.Authentication) (types.Address, error)

	// Lock forgets the unlocked key of identity. It reports whether it was unlocked.
	Lock(identity types.Identity) bool

	// SignTx signs a raw transaction with the unlocked key of identity.
	SignTx(identity types.Identity, raw []byte) (*types.Transaction, error)

	// SignMessage signs the SHA-256 digest of message with the unlocked key of identity.
	SignMessage(identity types.Identity, message []byte) ([]byte, error)

	// VerifyTx checks the signature of tx against the unlocked key of identity.
	VerifyTx(identity types.Identity, tx *types.Transaction) (bool, error)
}
