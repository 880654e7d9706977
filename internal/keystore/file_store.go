package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/xueqianLu/aergosigner/internal/key"
	"github.com/xueqianLu/aergosigner/internal/keyformat"
	"github.com/xueqianLu/aergosigner/internal/types"
	"github.com/xueqianLu/aergosigner/internal/walleterrors"
)

const (
	keyFileSplitter = "__"
	keyFilePostfix  = "keystore.txt"

	dirPerm = 0700
)

var keyFileRegex = regexp.MustCompile(`^[a-zA-Z0-9]+__keystore\.txt$`)

// FileStore keeps one keystore file per identity under a root directory, in the
// layout used by the reference command line wallet.
type FileStore struct {
	root      string
	encrypter keyformat.Encrypter
	logger    log.Logger

	mu sync.Mutex // guards the directory between the identity scan and the write
}

// NewFileStore opens the keystore directory root, creating it when missing.
func NewFileStore(root string, encrypter keyformat.Encrypter) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: keystore root must not be empty", walleterrors.ErrStorageIO)
	}
	info, err := os.Stat(root)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: keystore target %s is a file", walleterrors.ErrStorageIO, root)
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(root, dirPerm); err != nil {
			return nil, storageError("failed to create key directory", err)
		}
	case err != nil:
		return nil, storageError("failed to stat key directory", err)
	}

	logger := log.New("module", "keystore", "store", "file", "root", root)
	logger.Debug("Opened file keystore", "version", encrypter.Version())
	return &FileStore{
		root:      root,
		encrypter: encrypter,
		logger:    logger,
	}, nil
}

// Root returns the directory holding the key files.
func (fs *FileStore) Root() string { return fs.root }

// Save encrypts kp under auth. It fails with ErrDuplicateIdentity when the identity exists.
func (fs *FileStore) Save(auth types.Authentication, kp *key.KeyPair) error {
	if kp == nil {
		return fmt.Errorf("%w: key must not be nil", walleterrors.ErrInvalidKeyMaterial)
	}
	if err := validateIdentity(auth.Identity); err != nil {
		return err
	}
	fs.logger.Debug("Save key", "identity", auth.Identity, "address", kp.Address())

	fs.mu.Lock()
	defer fs.mu.Unlock()

	exists, err := fs.hasIdentity(auth.Identity)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", walleterrors.ErrDuplicateIdentity, auth.Identity)
	}

	content, err := fs.encrypter.Encrypt(kp, auth.Password)
	if err != nil {
		return encryptError(err)
	}
	path := fs.keyFilePath(auth.Identity)
	if err := writeKeyFile(path, content); err != nil {
		return storageError("failed to save encrypted key", err)
	}
	fs.logger.Debug("Saved key file", "path", path)
	return nil
}

// Load decrypts the key of auth.
func (fs *FileStore) Load(auth types.Authentication) (key.Signer, error) {
	fs.logger.Debug("Load key", "identity", auth.Identity)

	kp, err := fs.loadKeyPair(auth)
	if err != nil {
		return nil, err
	}
	return kp, nil
}

// Remove deletes the key of auth after checking its password.
func (fs *FileStore) Remove(auth types.Authentication) error {
	fs.logger.Debug("Remove key", "identity", auth.Identity)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.readKeyPair(auth); err != nil {
		return err
	}
	if err := os.Remove(fs.keyFilePath(auth.Identity)); err != nil {
		return storageError("failed to remove key file", err)
	}
	return nil
}

// Export re-encrypts the key of auth with password.
func (fs *FileStore) Export(auth types.Authentication, password string) (types.EncryptedPrivateKey, error) {
	fs.logger.Debug("Export key", "identity", auth.Identity)

	kp, err := fs.loadKeyPair(auth)
	if err != nil {
		return nil, err
	}
	return kp.Export(password)
}

// ListIdentities returns the identities of the matching key files.
func (fs *FileStore) ListIdentities() ([]types.Identity, error) {
	names, err := fs.listMatchingFiles()
	if err != nil {
		return nil, err
	}
	identities := make([]types.Identity, 0, len(names))
	for _, name := range names {
		identities = append(identities, identityFromFilename(name))
	}
	return identities, nil
}

// Contains reports whether identity is stored.
func (fs *FileStore) Contains(identity types.Identity) (bool, error) {
	if validateIdentity(identity) != nil {
		return false, nil
	}
	return fs.hasIdentity(identity)
}

func (fs *FileStore) loadKeyPair(auth types.Authentication) (*key.KeyPair, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.readKeyPair(auth)
}

// readKeyPair must be called with fs.mu held.
func (fs *FileStore) readKeyPair(auth types.Authentication) (*key.KeyPair, error) {
	if err := validateIdentity(auth.Identity); err != nil {
		return nil, err
	}
	exists, err := fs.hasIdentity(auth.Identity)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", walleterrors.ErrUnknownIdentity, auth.Identity)
	}

	path := fs.keyFilePath(auth.Identity)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, storageError("failed to read key file", err)
	}
	fs.logger.Trace("Loaded key file", "path", path)
	return keyformat.Decrypt(content, auth.Password)
}

func (fs *FileStore) hasIdentity(identity types.Identity) (bool, error) {
	names, err := fs.listMatchingFiles()
	if err != nil {
		return false, err
	}
	target := keyFilename(identity)
	for _, name := range names {
		if name == target {
			return true, nil
		}
	}
	return false, nil
}

func (fs *FileStore) listMatchingFiles() ([]string, error) {
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		return nil, storageError("failed to read key directory", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !keyFileRegex.MatchString(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	fs.logger.Trace("Matching files", "files", names)
	return names, nil
}

func (fs *FileStore) keyFilePath(identity types.Identity) string {
	return filepath.Join(fs.root, keyFilename(identity))
}

func keyFilename(identity types.Identity) string {
	return identity.Value() + keyFileSplitter + keyFilePostfix
}

func identityFromFilename(name string) types.Identity {
	return types.Identity(strings.TrimSuffix(name, keyFileSplitter+keyFilePostfix))
}

// writeKeyFile writes content to a hidden temporary file next to file, then
// moves it into place. CreateTemp assigns mode 0600.
func writeKeyFile(file string, content []byte) error {
	f, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".tmp")
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), file)
}
