package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.KeyStore.Type)
	assert.Equal(t, "file", cfg.KeyStore.Base)
	assert.Equal(t, "1", cfg.KeyStore.EncryptVersion)
	assert.Equal(t, 1<<18, cfg.KeyStore.Scrypt.N)
	assert.Equal(t, 1, cfg.KeyStore.Scrypt.P)
	assert.Equal(t, "./keystore", cfg.KeyStore.File.Root)
	assert.Equal(t, "http://127.0.0.1:8200", cfg.KeyStore.Vault.Address)
	assert.Equal(t, "secret/aergosigner", cfg.KeyStore.Vault.MountPath)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
keystore:
  type: composite
  base: vault
  scrypt:
    n: 4096
    p: 6
  vault:
    address: http://vault:8200
    token: s.abc
    mount_path: kv/keys
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "composite", cfg.KeyStore.Type)
	assert.Equal(t, "vault", cfg.KeyStore.Base)
	assert.Equal(t, 4096, cfg.KeyStore.Scrypt.N)
	assert.Equal(t, 6, cfg.KeyStore.Scrypt.P)
	assert.Equal(t, "http://vault:8200", cfg.KeyStore.Vault.Address)
	assert.Equal(t, "s.abc", cfg.KeyStore.Vault.Token)
	assert.Equal(t, "kv/keys", cfg.KeyStore.Vault.MountPath)
	assert.Equal(t, "./keystore", cfg.KeyStore.File.Root)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("AERGOSIGNER_KEYSTORE_TYPE", "memory")
	t.Setenv("AERGOSIGNER_KEYSTORE_FILE_ROOT", "/var/lib/keys")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.KeyStore.Type)
	assert.Equal(t, "/var/lib/keys", cfg.KeyStore.File.Root)
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("keystore: [\n"), 0600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
