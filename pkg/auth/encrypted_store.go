package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation parameters for the credentials file.
const (
	saltSize       = 32
	keySize        = 32
	kdfIterations  = 100000
	envelopeFormat = 2
)

// PassphraseEnv overrides the generated passphrase of the encrypted store.
const PassphraseEnv = "FLICKRGRID_PASSPHRASE"

// envelope is the on-disk form of the credentials file. Only the key pairs
// are sealed; the salt and timestamps stay readable.
type envelope struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Sealed   []byte    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore keeps every account in a single AES-GCM sealed JSON
// file. The key is derived with PBKDF2 from FLICKRGRID_PASSPHRASE or, when
// that is unset, from a random passphrase stored beside the file.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.RWMutex
}

// NewEncryptedFileStore opens the store at path, creating its directory and
// passphrase on first use. The credentials file itself is written lazily.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	pass, err := loadPassphrase(filepath.Join(dir, ".passphrase"))
	if err != nil {
		return nil, err
	}
	return &EncryptedFileStore{path: path, passphrase: pass}, nil
}

// Store adds or replaces an account.
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		accounts[account.Name] = *account
		return nil
	})
}

// Retrieve decrypts the file and returns one account.
func (e *EncryptedFileStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	accounts, _, err := e.read()
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	account, ok := accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns the stored accounts ordered by name.
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	accounts, _, err := e.read()
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	out := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		a := account
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes an account. The file is removed with its last account.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(accounts map[string]Account) error {
		if _, ok := accounts[name]; !ok {
			return ErrCredentialsNotFound
		}
		delete(accounts, name)
		return nil
	})
}

// Exists reports whether name can be retrieved.
func (e *EncryptedFileStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}

// update applies fn to the decrypted accounts and writes the result back
// under the write lock.
func (e *EncryptedFileStore) update(fn func(map[string]Account) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, salt, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}

	if len(accounts) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}
	return e.write(accounts, salt)
}

// read returns the decrypted accounts and the file's salt. A missing file
// reads as an empty set with no salt.
func (e *EncryptedFileStore) read() (map[string]Account, []byte, error) {
	accounts := make(map[string]Account)

	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return accounts, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(content, &env); err != nil {
		return nil, nil, fmt.Errorf("credentials file is corrupt: %w", err)
	}
	if len(env.Salt) == 0 {
		return nil, nil, errors.New("credentials file has no salt")
	}

	gcm, err := e.aead(env.Salt)
	if err != nil {
		return nil, nil, err
	}
	n := gcm.NonceSize()
	if len(env.Sealed) < n {
		return nil, nil, errors.New("credentials file is truncated")
	}
	plain, err := gcm.Open(nil, env.Sealed[:n], env.Sealed[n:], nil)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot decrypt credentials (wrong %s?): %w", PassphraseEnv, err)
	}

	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, nil, fmt.Errorf("credentials payload is corrupt: %w", err)
	}
	return accounts, env.Salt, nil
}

// write seals accounts with a fresh nonce and replaces the file. A nil salt
// starts a new file.
func (e *EncryptedFileStore) write(accounts map[string]Account, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plain, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}

	gcm, err := e.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	content, err := json.MarshalIndent(envelope{
		Version:  envelopeFormat,
		Salt:     salt,
		Sealed:   gcm.Seal(nonce, nonce, plain, nil),
		Modified: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

// aead derives the file key for salt and returns its AES-GCM cipher.
func (e *EncryptedFileStore) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, kdfIterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadPassphrase prefers FLICKRGRID_PASSPHRASE, then the contents of path,
// and otherwise writes a new random passphrase to path with mode 0600.
func loadPassphrase(path string) ([]byte, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return []byte(pass), nil
	}

	if stored, err := os.ReadFile(path); err == nil && len(stored) > 0 {
		return stored, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := []byte(base64.RawURLEncoding.EncodeToString(raw))
	if err := os.WriteFile(path, pass, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}
