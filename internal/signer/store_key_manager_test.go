package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/keyformat"
	"github.com/xueqianLu/aergosigner/internal/keystore"
	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

func newTestKeyManager(t *testing.T) *StoreKeyManager {
	store, err := keystore.NewFileStore(t.TempDir(), keyformat.NewV1(1<<10, 1))
	require.NoError(t, err)
	return NewStoreKeyManager(store)
}

func TestCreateKeyAndSign(t *testing.T) {
	km := newTestKeyManager(t)
	s := NewSigner(km)

	address, err := s.CreateKey("password")
	require.NoError(t, err)

	accounts, err := s.GetAccounts()
	require.NoError(t, err)
	assert.Equal(t, []types.Identity{address.Identity()}, accounts)

	tx, err := s.SignTx(address.Identity(), []byte("raw tx"))
	require.NoError(t, err)
	ok, err := s.VerifyTx(address.Identity(), tx)
	require.NoError(t, err)
	assert.True(t, ok)

	signature, err := s.SignMessage(address.Identity(), []byte("hello"))
	require.NoError(t, err)
	assert.NotEmpty(t, signature)
}

func TestLockUnlock(t *testing.T) {
	km := newTestKeyManager(t)
	s := NewSigner(km)

	address, err := s.CreateKey("password")
	require.NoError(t, err)
	identity := address.Identity()

	assert.True(t, s.Lock(identity))
	assert.False(t, s.Lock(identity))

	_, err = s.SignTx(identity, []byte("raw tx"))
	assert.ErrorIs(t, err, walleterrors.ErrLocked)
	_, err = s.SignMessage(identity, []byte("hello"))
	assert.ErrorIs(t, err, walleterrors.ErrLocked)
	_, err = s.VerifyTx(identity, &types.Transaction{})
	assert.ErrorIs(t, err, walleterrors.ErrLocked)

	_, err = s.Unlock(types.NewAuthentication(identity, "wrong"))
	assert.ErrorIs(t, err, walleterrors.ErrInvalidAuthentication)

	unlocked, err := s.Unlock(types.NewAuthentication(identity, "password"))
	require.NoError(t, err)
	assert.Equal(t, address, unlocked)

	_, err = s.SignTx(identity, []byte("raw tx"))
	assert.NoError(t, err)
}

func TestImportExportKey(t *testing.T) {
	km := newTestKeyManager(t)

	kp, err := key.Generate()
	require.NoError(t, err)
	exported, err := kp.Export("old")
	require.NoError(t, err)

	address, err := km.ImportKey(exported, "old", "new")
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), address)

	_, err = km.ImportKey(exported, "old", "new")
	assert.ErrorIs(t, err, walleterrors.ErrDuplicateIdentity)
	_, err = km.ImportKey(exported, "wrong", "new")
	assert.ErrorIs(t, err, walleterrors.ErrDecryptionFailed)

	auth := types.NewAuthentication(address.Identity(), "new")
	_, err = km.SignTx(auth.Identity, []byte("raw tx"))
	assert.ErrorIs(t, err, walleterrors.ErrLocked, "imported keys start locked")

	reexported, err := km.ExportKey(auth, "again")
	require.NoError(t, err)
	imported, err := key.FromEncryptedBytes(reexported, "again")
	require.NoError(t, err)
	assert.True(t, kp.Equal(imported))
}
