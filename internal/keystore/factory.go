package keystore

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/vault/api"

	"github.com/xueqianLu/aergosigner/internal/config"
	"github.com/xueqianLu/aergosigner/internal/keyformat"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

// Keystore types accepted in config.KeyStoreConfig.Type and .Base.
const (
	TypeFile      = "file"
	TypeMemory    = "memory"
	TypeVault     = "vault"
	TypeComposite = "composite"
)

// New builds the keystore selected by cfg.
func New(cfg config.KeyStoreConfig) (KeyStore, error) {
	encrypter, err := keyformat.NewEncrypter(cfg.EncryptVersion, cfg.Scrypt.N, cfg.Scrypt.P)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case TypeMemory:
		return NewMemoryStore(encrypter), nil
	case TypeComposite:
		if cfg.Base == TypeComposite || cfg.Base == TypeMemory {
			return nil, fmt.Errorf("%w: unsupported composite base %q", walleterrors.ErrStorageIO, cfg.Base)
		}
		base, err := newPersistentStore(cfg.Base, cfg, encrypter)
		if err != nil {
			return nil, err
		}
		return NewCompositeStore(base, encrypter)
	default:
		return newPersistentStore(cfg.Type, cfg, encrypter)
	}
}

func newPersistentStore(kind string, cfg config.KeyStoreConfig, encrypter keyformat.Encrypter) (KeyStore, error) {
	switch kind {
	case TypeFile, "":
		return NewFileStore(cfg.File.Root, encrypter)
	case TypeVault:
		vaultClient, err := newVaultClient(cfg.Vault)
		if err != nil {
			return nil, err
		}
		return NewVaultStore(vaultClient, cfg.Vault.MountPath, encrypter)
	default:
		return nil, fmt.Errorf("%w: unknown keystore type %q", walleterrors.ErrStorageIO, kind)
	}
}

func newVaultClient(cfg config.VaultConfig) (*api.Client, error) {
	vaultConfig := api.DefaultConfig()
	if err := vaultConfig.ReadEnvironment(); err != nil {
		log.Warn("Could not read Vault environment variables", "err", err)
	}
	if cfg.Address != "" {
		vaultConfig.Address = cfg.Address
	}
	vaultClient, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, storageError("failed to create vault client", err)
	}
	if cfg.Token != "" {
		vaultClient.SetToken(cfg.Token)
	}
	return vaultClient, nil
}
