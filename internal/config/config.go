package config

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	KeyStore KeyStoreConfig `mapstructure:"keystore"`
}

// KeyStoreConfig selects and configures the keystore backend.
type KeyStoreConfig struct {
	Type           string       `mapstructure:"type"` // "file", "memory", "vault" or "composite"
	Base           string       `mapstructure:"base"` // base of a composite store: "file" or "vault"
	EncryptVersion string       `mapstructure:"encrypt_version"`
	Scrypt         ScryptConfig `mapstructure:"scrypt"`
	File           FileConfig   `mapstructure:"file"`
	Vault          VaultConfig  `mapstructure:"vault"`
}

// ScryptConfig holds the KDF cost used when writing new keystore records.
type ScryptConfig struct {
	N int `mapstructure:"n"`
	P int `mapstructure:"p"`
}

// FileConfig holds the configuration for the file keystore.
type FileConfig struct {
	Root string `mapstructure:"root"`
}

// VaultConfig holds the Vault configuration.
type VaultConfig struct {
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
}

// LoadConfig reads config.yaml from the given directories (the working
// directory when none are given) and overlays AERGOSIGNER_* environment
// variables, e.g. AERGOSIGNER_KEYSTORE_FILE_ROOT.
func LoadConfig(paths ...string) (config Config, err error) {
	v := viper.New()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("aergosigner")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("keystore.type", "file")
	v.SetDefault("keystore.base", "file")
	v.SetDefault("keystore.encrypt_version", "1")
	v.SetDefault("keystore.scrypt.n", 1<<18)
	v.SetDefault("keystore.scrypt.p", 1)
	v.SetDefault("keystore.file.root", "./keystore")
	v.SetDefault("keystore.vault.address", "http://127.0.0.1:8200")
	v.SetDefault("keystore.vault.token", "")
	v.SetDefault("keystore.vault.mount_path", "secret/aergosigner")

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	log.Info("Loaded config", "file", v.ConfigFileUsed(), "keystore", config.KeyStore.Type,
		"base", config.KeyStore.Base, "root", config.KeyStore.File.Root, "vault", config.KeyStore.Vault.Address)
	return
}
