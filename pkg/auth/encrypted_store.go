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
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnvVar overrides the generated encryption passphrase
const PassphraseEnvVar = "TWEETCLOUD_PASSPHRASE"

const (
	vaultVersion    = 2
	vaultKDF        = "pbkdf2-sha256"
	vaultIterations = 100000
	vaultSaltSize   = 32
	vaultKeySize    = 32
)

// ErrWrongPassphrase is returned when the vault cannot be decrypted
var ErrWrongPassphrase = errors.New("credential file cannot be decrypted with this passphrase")

// vaultFile is the on-disk JSON layout. Byte slices are base64 encoded by
// encoding/json.
type vaultFile struct {
	Version    int       `json:"version"`
	KDF        string    `json:"kdf"`
	Iterations int       `json:"iterations"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	Modified   time.Time `json:"modified"`
}

// additionalData binds the ciphertext to the header it was written with
func (v *vaultFile) additionalData() []byte {
	return []byte(fmt.Sprintf("tweetcloud/v%d/%s/%d", v.Version, v.KDF, v.Iterations))
}

// EncryptedFileStore keeps every account in one AES-GCM sealed JSON file
// whose key is derived from a passphrase with PBKDF2
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

// NewEncryptedFileStore creates an encrypted file-based credential store.
// An empty passphrase is resolved from TWEETCLOUD_PASSPHRASE or a generated
// passphrase file next to the store.
func NewEncryptedFileStore(filePath, passphrase string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if passphrase == "" {
		var err error
		if passphrase, err = resolvePassphrase(filepath.Dir(filePath)); err != nil {
			return nil, fmt.Errorf("failed to get passphrase: %w", err)
		}
	}

	return &EncryptedFileStore{path: filePath, passphrase: passphrase}, nil
}

// Store adds or replaces an account
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}

	return e.update(func(accounts map[string]Account) error {
		accounts[account.Name] = *account
		return nil
	})
}

// Retrieve gets one account
func (e *EncryptedFileStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	account, ok := accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns every account in the file
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.read()
	if errors.Is(err, ErrCredentialsNotFound) {
		return []*Account{}, nil
	}
	if err != nil {
		return nil, err
	}

	list := make([]*Account, 0, len(accounts))
	for name := range accounts {
		account := accounts[name]
		list = append(list, &account)
	}
	return list, nil
}

// Delete removes an account. The file is removed with the last account.
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

// Exists reports whether the account can be read
func (e *EncryptedFileStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}

// update applies fn to the decrypted accounts and writes the result back
func (e *EncryptedFileStore) update(fn func(map[string]Account) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if errors.Is(err, ErrCredentialsNotFound) {
		accounts = make(map[string]Account)
	} else if err != nil {
		return err
	}

	if err := fn(accounts); err != nil {
		return err
	}

	if len(accounts) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credential file: %w", err)
		}
		return nil
	}
	return e.write(accounts)
}

// read decrypts the file. A missing file reads as ErrCredentialsNotFound.
func (e *EncryptedFileStore) read() (map[string]Account, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var vault vaultFile
	if err := json.Unmarshal(content, &vault); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	if vault.Version != vaultVersion || vault.KDF != vaultKDF {
		return nil, fmt.Errorf("unsupported credential file version %d (%s)", vault.Version, vault.KDF)
	}

	gcm, err := newGCM(e.passphrase, vault.Salt, vault.Iterations)
	if err != nil {
		return nil, err
	}
	if len(vault.Nonce) != gcm.NonceSize() {
		return nil, errors.New("credential file has an invalid nonce")
	}

	plaintext, err := gcm.Open(nil, vault.Nonce, vault.Ciphertext, vault.additionalData())
	if err != nil {
		return nil, ErrWrongPassphrase
	}

	accounts := make(map[string]Account)
	if err := json.Unmarshal(plaintext, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

// write seals accounts with a fresh salt and nonce and replaces the file
func (e *EncryptedFileStore) write(accounts map[string]Account) error {
	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	vault := vaultFile{
		Version:    vaultVersion,
		KDF:        vaultKDF,
		Iterations: vaultIterations,
		Salt:       make([]byte, vaultSaltSize),
		Modified:   time.Now().UTC(),
	}
	if _, err := rand.Read(vault.Salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(e.passphrase, vault.Salt, vault.Iterations)
	if err != nil {
		return err
	}
	vault.Nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(vault.Nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	vault.Ciphertext = gcm.Seal(nil, vault.Nonce, plaintext, vault.additionalData())

	content, err := json.MarshalIndent(&vault, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}

func newGCM(passphrase string, salt []byte, iterations int) (cipher.AEAD, error) {
	if len(salt) == 0 || iterations <= 0 {
		return nil, errors.New("credential file has invalid key parameters")
	}

	key := pbkdf2.Key([]byte(passphrase), salt, iterations, vaultKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// resolvePassphrase prefers TWEETCLOUD_PASSPHRASE, then the passphrase file
// in dir, generating that file on first use
func resolvePassphrase(dir string) (string, error) {
	if pass := os.Getenv(PassphraseEnvVar); pass != "" {
		return pass, nil
	}

	passFile := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(passFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.RawURLEncoding.EncodeToString(raw)

	if err := os.WriteFile(passFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
