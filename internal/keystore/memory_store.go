package keystore

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/keyformat"
	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

// MemoryStore keeps encrypted records in process memory. Nothing survives a restart.
type MemoryStore struct {
	encrypter keyformat.Encrypter
	logger    log.Logger

	mu      sync.RWMutex
	records map[types.Identity][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(encrypter keyformat.Encrypter) *MemoryStore {
	return &MemoryStore{
		encrypter: encrypter,
		logger:    log.New("module", "keystore", "store", "memory"),
		records:   make(map[types.Identity][]byte),
	}
}

// Save encrypts kp under auth. It fails with ErrDuplicateIdentity when the identity exists.
func (ms *MemoryStore) Save(auth types.Authentication, kp *key.KeyPair) error {
	if kp == nil {
		return fmt.Errorf("%w: key must not be nil", walleterrors.ErrInvalidKeyMaterial)
	}
	if auth.Identity == "" {
		return fmt.Errorf("%w: identity must not be empty", walleterrors.ErrInvalidAuthentication)
	}
	ms.logger.Debug("Save key", "identity", auth.Identity, "address", kp.Address())

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.records[auth.Identity]; ok {
		return fmt.Errorf("%w: %s", walleterrors.ErrDuplicateIdentity, auth.Identity)
	}
	record, err := ms.encrypter.Encrypt(kp, auth.Password)
	if err != nil {
		return encryptError(err)
	}
	ms.records[auth.Identity] = record
	return nil
}

// Load decrypts the key of auth.
func (ms *MemoryStore) Load(auth types.Authentication) (key.Signer, error) {
	kp, err := ms.loadKeyPair(auth)
	if err != nil {
		return nil, err
	}
	return kp, nil
}

// Remove deletes the record of auth after checking its password.
func (ms *MemoryStore) Remove(auth types.Authentication) error {
	ms.logger.Debug("Remove key", "identity", auth.Identity)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	record, ok := ms.records[auth.Identity]
	if !ok {
		return fmt.Errorf("%w: %s", walleterrors.ErrUnknownIdentity, auth.Identity)
	}
	if _, err := keyformat.Decrypt(record, auth.Password); err != nil {
		return err
	}
	delete(ms.records, auth.Identity)
	return nil
}

// Export re-encrypts the key of auth with password.
func (ms *MemoryStore) Export(auth types.Authentication, password string) (types.EncryptedPrivateKey, error) {
	kp, err := ms.loadKeyPair(auth)
	if err != nil {
		return nil, err
	}
	return kp.Export(password)
}

// ListIdentities returns the stored identities in no particular order.
func (ms *MemoryStore) ListIdentities() ([]types.Identity, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	identities := make([]types.Identity, 0, len(ms.records))
	for identity := range ms.records {
		identities = append(identities, identity)
	}
	return identities, nil
}

// Contains reports whether identity is stored.
func (ms *MemoryStore) Contains(identity types.Identity) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	_, ok := ms.records[identity]
	return ok, nil
}

func (ms *MemoryStore) loadKeyPair(auth types.Authentication) (*key.KeyPair, error) {
	ms.logger.Debug("Load key", "identity", auth.Identity)

	ms.mu.RLock()
	record, ok := ms.records[auth.Identity]
	ms.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", walleterrors.ErrUnknownIdentity, auth.Identity)
	}
	return keyformat.Decrypt(record, auth.Password)
}
