package signer

import (
	"github.com/xueqianLu/aergosigner/internal/types"
)

// Signer provides transaction and message signing functionality.
type Signer struct {
	keyManager KeyManager
}

// NewSigner creates a new Signer with a given KeyManager.
func NewSigner(keyManager KeyManager) *Signer {
	return &Signer{
		keyManager: keyManager,
	}
}

// GetAccounts returns the list of accounts managed by the underlying KeyManager.
func (s *Signer) GetAccounts() ([]types.Identity, error) {
	return s.keyManager.GetAccounts()
}

// CreateKey creates a new account in the KeyManager and returns its address.
func (s *Signer) CreateKey(password string) (types.Address, error) {
	return s.keyManager.CreateKey(password)
}

// Unlock makes the account of auth available for signing.
func (s *Signer) Unlock(auth types.Authentication) (types.Address, error) {
	return s.keyManager.Unlock(auth)
}

// Lock forgets the unlocked key of the specified account.
func (s *Signer) Lock(identity types.Identity) bool {
	return s.keyManager.Lock(identity)
}

// SignTx signs a transaction with the specified account.
func (s *Signer) SignTx(identity types.Identity, raw []byte) (*types.Transaction, error) {
	return s.keyManager.SignTx(identity, raw)
}

// SignMessage signs a message with the specified account.
func (s *Signer) SignMessage(identity types.Identity, message []byte) ([]byte, error) {
	return s.keyManager.SignMessage(identity, message)
}

// VerifyTx checks a signed transaction against the specified account.
func (s *Signer) VerifyTx(identity types.Identity, tx *types.Transaction) (bool, error) {
	return s.keyManager.VerifyTx(identity, tx)
}
