package keystore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/vault/api"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/keyformat"
	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

// vaultRecordField is the secret field holding the keystore record JSON.
const vaultRecordField = "keystore"

// VaultStore keeps keystore records in a HashiCorp Vault KV (version 1) mount,
// one secret per identity at <path>/<identity>. The records are the same JSON
// documents a FileStore writes, so Vault only ever sees ciphertext.
type VaultStore struct {
	vaultClient *api.Client
	path        string
	encrypter   keyformat.Encrypter
	logger      log.Logger

	mu sync.Mutex // guards the existence check and the write
}

// NewVaultStore returns a store writing below path, e.g. "secret/aergosigner".
func NewVaultStore(vaultClient *api.Client, path string, encrypter keyformat.Encrypter) (*VaultStore, error) {
	if vaultClient == nil {
		return nil, fmt.Errorf("%w: vault client must not be nil", walleterrors.ErrStorageIO)
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, fmt.Errorf("%w: vault path must not be empty", walleterrors.ErrStorageIO)
	}
	logger := log.New("module", "keystore", "store", "vault", "path", path)
	logger.Debug("Opened vault keystore", "address", vaultClient.Address(), "version", encrypter.Version())
	return &VaultStore{
		vaultClient: vaultClient,
		path:        path,
		encrypter:   encrypter,
		logger:      logger,
	}, nil
}

// Save encrypts kp under auth. It fails with ErrDuplicateIdentity when the identity exists.
func (vs *VaultStore) Save(auth types.Authentication, kp *key.KeyPair) error {
	if kp == nil {
		return fmt.Errorf("%w: key must not be nil", walleterrors.ErrInvalidKeyMaterial)
	}
	if err := validateIdentity(auth.Identity); err != nil {
		return err
	}
	vs.logger.Debug("Save key", "identity", auth.Identity, "address", kp.Address())

	vs.mu.Lock()
	defer vs.mu.Unlock()

	record, err := vs.readRecord(auth.Identity)
	if err != nil {
		return err
	}
	if record != nil {
		return fmt.Errorf("%w: %s", walleterrors.ErrDuplicateIdentity, auth.Identity)
	}

	content, err := vs.encrypter.Encrypt(kp, auth.Password)
	if err != nil {
		return encryptError(err)
	}
	_, err = vs.vaultClient.Logical().Write(vs.secretPath(auth.Identity), map[string]interface{}{
		vaultRecordField: string(content),
	})
	if err != nil {
		return storageError("failed to write key to vault", err)
	}
	return nil
}

// Load decrypts the key of auth.
func (vs *VaultStore) Load(auth types.Authentication) (key.Signer, error) {
	kp, err := vs.loadKeyPair(auth)
	if err != nil {
		return nil, err
	}
	return kp, nil
}

// Remove deletes the key of auth after checking its password.
func (vs *VaultStore) Remove(auth types.Authentication) error {
	vs.logger.Debug("Remove key", "identity", auth.Identity)

	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, err := vs.readKeyPair(auth); err != nil {
		return err
	}
	if _, err := vs.vaultClient.Logical().Delete(vs.secretPath(auth.Identity)); err != nil {
		return storageError("failed to delete key from vault", err)
	}
	return nil
}

// Export re-encrypts the key of auth with password.
func (vs *VaultStore) Export(auth types.Authentication, password string) (types.EncryptedPrivateKey, error) {
	kp, err := vs.loadKeyPair(auth)
	if err != nil {
		return nil, err
	}
	return kp.Export(password)
}

// ListIdentities returns the stored identities in no particular order.
func (vs *VaultStore) ListIdentities() ([]types.Identity, error) {
	secret, err := vs.vaultClient.Logical().List(vs.path)
	if err != nil {
		return nil, storageError("failed to list keys in vault", err)
	}
	if secret == nil || secret.Data["keys"] == nil {
		return []types.Identity{}, nil
	}

	keys, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected format for keys from vault", walleterrors.ErrStorageIO)
	}
	identities := make([]types.Identity, 0, len(keys))
	for _, k := range keys {
		name, ok := k.(string)
		if !ok || validateIdentity(types.Identity(name)) != nil {
			continue
		}
		identities = append(identities, types.Identity(name))
	}
	return identities, nil
}

// Contains reports whether identity is stored.
func (vs *VaultStore) Contains(identity types.Identity) (bool, error) {
	if validateIdentity(identity) != nil {
		return false, nil
	}
	record, err := vs.readRecord(identity)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

func (vs *VaultStore) loadKeyPair(auth types.Authentication) (*key.KeyPair, error) {
	vs.logger.Debug("Load key", "identity", auth.Identity)

	vs.mu.Lock()
	defer vs.mu.Unlock()

	return vs.readKeyPair(auth)
}

// readKeyPair must be called with vs.mu held.
func (vs *VaultStore) readKeyPair(auth types.Authentication) (*key.KeyPair, error) {
	if err := validateIdentity(auth.Identity); err != nil {
		return nil, err
	}
	record, err := vs.readRecord(auth.Identity)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", walleterrors.ErrUnknownIdentity, auth.Identity)
	}
	return keyformat.Decrypt(record, auth.Password)
}

// readRecord returns nil without an error when no secret exists for identity.
func (vs *VaultStore) readRecord(identity types.Identity) ([]byte, error) {
	secret, err := vs.vaultClient.Logical().Read(vs.secretPath(identity))
	if err != nil {
		return nil, storageError("failed to read key from vault", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}
	content, ok := secret.Data[vaultRecordField].(string)
	if !ok {
		return nil, fmt.Errorf("%w: field %q not found in vault secret", walleterrors.ErrInvalidKeyStoreFormat, vaultRecordField)
	}
	return []byte(content), nil
}

func (vs *VaultStore) secretPath(identity types.Identity) string {
	return vs.path + "/" + identity.Value()
}
