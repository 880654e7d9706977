package signer

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/keystore"
	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

var _ KeyManager = (*StoreKeyManager)(nil)

// StoreKeyManager manages keys kept in a keystore. Unlocked signers are held in
// memory until locked.
type StoreKeyManager struct {
	store  keystore.KeyStore
	logger log.Logger

	mu       sync.RWMutex
	unlocked map[types.Identity]key.Signer
}

// NewStoreKeyManager creates a key manager over store with every key locked.
func NewStoreKeyManager(store keystore.KeyStore) *StoreKeyManager {
	return &StoreKeyManager{
		store:    store,
		logger:   log.New("module", "signer"),
		unlocked: make(map[types.Identity]key.Signer),
	}
}

// CreateKey generates a new key pair and saves it to the keystore (encrypted).
func (km *StoreKeyManager) CreateKey(password string) (types.Address, error) {
	kp, err := key.Generate()
	if err != nil {
		return types.Address{}, err
	}
	identity := kp.Address().Identity()
	if err := km.store.Save(types.NewAuthentication(identity, password), kp); err != nil {
		return types.Address{}, err
	}

	km.mu.Lock()
	defer km.mu.Unlock()
	km.unlocked[identity] = kp

	km.logger.Info("Created key", "address", kp.Address())
	return kp.Address(), nil
}

// ImportKey stores an exported key under its address with a new password.
func (km *StoreKeyManager) ImportKey(encrypted types.EncryptedPrivateKey, oldPassword, newPassword string) (types.Address, error) {
	kp, err := key.FromEncryptedBytes(encrypted, oldPassword)
	if err != nil {
		return types.Address{}, err
	}
	identity := kp.Address().Identity()
	if err := km.store.Save(types.NewAuthentication(identity, newPassword), kp); err != nil {
		return types.Address{}, err
	}
	km.logger.Info("Imported key", "address", kp.Address())
	return kp.Address(), nil
}

// ExportKey exports the stored key without unlocking it.
func (km *StoreKeyManager) ExportKey(auth types.Authentication, password string) (types.EncryptedPrivateKey, error) {
	return km.store.Export(auth, password)
}

// GetAccounts returns all account identities of the keystore.
func (km *StoreKeyManager) GetAccounts() ([]types.Identity, error) {
	return km.store.ListIdentities()
}

// Unlock loads the key of auth and keeps its signer until Lock.
func (km *StoreKeyManager) Unlock(auth types.Authentication) (types.Address, error) {
	signer, err := km.store.Load(auth)
	if err != nil {
		return types.Address{}, err
	}

	km.mu.Lock()
	defer km.mu.Unlock()
	km.unlocked[auth.Identity] = signer

	km.logger.Debug("Unlocked key", "identity", auth.Identity, "address", signer.Address())
	return signer.Address(), nil
}

// Lock drops the unlocked signer of identity.
func (km *StoreKeyManager) Lock(identity types.Identity) bool {
	km.mu.Lock()
	defer km.mu.Unlock()

	_, ok := km.unlocked[identity]
	delete(km.unlocked, identity)
	if ok {
		km.logger.Debug("Locked key", "identity", identity)
	}
	return ok
}

// SignTx signs a transaction using an unlocked key.
func (km *StoreKeyManager) SignTx(identity types.Identity, raw []byte) (*types.Transaction, error) {
	signer, err := km.signer(identity)
	if err != nil {
		return nil, err
	}
	tx, err := signer.SignTx(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

// SignMessage signs a message using an unlocked key.
func (km *StoreKeyManager) SignMessage(identity types.Identity, message []byte) ([]byte, error) {
	signer, err := km.signer(identity)
	if err != nil {
		return nil, err
	}
	signature, err := signer.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return signature, nil
}

// VerifyTx verifies tx with an unlocked key.
func (km *StoreKeyManager) VerifyTx(identity types.Identity, tx *types.Transaction) (bool, error) {
	signer, err := km.signer(identity)
	if err != nil {
		return false, err
	}
	return signer.VerifyTx(tx), nil
}

func (km *StoreKeyManager) signer(identity types.Identity) (key.Signer, error) {
	km.mu.RLock()
	signer, ok := km.unlocked[identity]
	km.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", walleterrors.ErrLocked, identity)
	}
	return signer, nil
}
