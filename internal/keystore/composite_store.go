package keystore

import (
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/log"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/keyformat"
	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

// CompositeStore layers an in-memory store over a base store. It never writes to
// the base: saved keys live in memory only, and keys loaded from the base are
// cached in memory. Remove only drops the memory copy, so a key still present
// in the base comes back on the next Load. Export reads through without caching.
type CompositeStore struct {
	base   KeyStore
	loader keyPairLoader
	memory *MemoryStore
	logger log.Logger

	mu sync.Mutex
}

// NewCompositeStore wraps base. The base must be one of the stores of this package.
func NewCompositeStore(base KeyStore, encrypter keyformat.Encrypter) (*CompositeStore, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: base keystore must not be nil", walleterrors.ErrStorageIO)
	}
	loader, ok := base.(keyPairLoader)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported base keystore %T", walleterrors.ErrStorageIO, base)
	}
	return &CompositeStore{
		base:   base,
		loader: loader,
		memory: NewMemoryStore(encrypter),
		logger: log.New("module", "keystore", "store", "composite"),
	}, nil
}

// Save keeps kp in the memory layer. An identity the base already holds is a
// duplicate too, so a saved key never shadows a stored one.
func (cs *CompositeStore) Save(auth types.Authentication, kp *key.KeyPair) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	inBase, err := cs.base.Contains(auth.Identity)
	if err != nil {
		return err
	}
	if inBase {
		return fmt.Errorf("%w: %s", walleterrors.ErrDuplicateIdentity, auth.Identity)
	}
	return cs.memory.Save(auth, kp)
}

// Load returns the cached key or loads it from the base and caches it.
func (cs *CompositeStore) Load(auth types.Authentication) (key.Signer, error) {
	kp, err := cs.loadKeyPair(auth)
	if err != nil {
		return nil, err
	}
	return kp, nil
}

// Remove drops the memory copy only. It fails for identities held only by the base.
func (cs *CompositeStore) Remove(auth types.Authentication) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return cs.memory.Remove(auth)
}

// Export re-encrypts the key of auth with password. Nothing is cached.
func (cs *CompositeStore) Export(auth types.Authentication, password string) (types.EncryptedPrivateKey, error) {
	cs.mu.Lock()
	kp, _, err := cs.lookup(auth)
	cs.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return kp.Export(password)
}

// ListIdentities returns the union of the memory and base identities.
func (cs *CompositeStore) ListIdentities() ([]types.Identity, error) {
	memoryIdentities, err := cs.memory.ListIdentities()
	if err != nil {
		return nil, err
	}
	baseIdentities, err := cs.base.ListIdentities()
	if err != nil {
		return nil, err
	}
	set := mapset.NewThreadUnsafeSet(memoryIdentities...)
	set.Append(baseIdentities...)
	return set.ToSlice(), nil
}

// Contains reports whether the memory layer or the base holds identity.
func (cs *CompositeStore) Contains(identity types.Identity) (bool, error) {
	inMemory, err := cs.memory.Contains(identity)
	if err != nil || inMemory {
		return inMemory, err
	}
	return cs.base.Contains(identity)
}

func (cs *CompositeStore) loadKeyPair(auth types.Authentication) (*key.KeyPair, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	kp, cached, err := cs.lookup(auth)
	if err != nil || cached {
		return kp, err
	}
	if err := cs.memory.Save(auth, kp); err != nil {
		return nil, err
	}
	cs.logger.Debug("Cached key from base keystore", "identity", auth.Identity)
	return kp, nil
}

// lookup finds the key of auth in memory, then in the base, without caching it.
// The bool reports a memory hit. It must be called with cs.mu held.
func (cs *CompositeStore) lookup(auth types.Authentication) (*key.KeyPair, bool, error) {
	cached, err := cs.memory.Contains(auth.Identity)
	if err != nil {
		return nil, false, err
	}
	if cached {
		kp, err := cs.memory.loadKeyPair(auth)
		return kp, true, err
	}
	kp, err := cs.loader.loadKeyPair(auth)
	return kp, false, err
}
