package auth

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"tweetcloud/pkg/config"
)

// Account holds the four OAuth 1.0a secrets of one Twitter application/user pair
type Account struct {
	Name              string    `json:"name"`
	APIKey            string    `json:"api_key"`
	APISecretKey      string    `json:"api_secret_key"`
	AccessToken       string    `json:"access_token"`
	AccessTokenSecret string    `json:"access_token_secret"`
	LastModified      time.Time `json:"last_modified"`
}

// Validate checks that every secret is present
func (a *Account) Validate() error {
	if a == nil || a.Name == "" {
		return errors.New("account name is required")
	}
	if a.APIKey == "" || a.APISecretKey == "" {
		return errors.New("API key and API secret key are required")
	}
	if a.AccessToken == "" || a.AccessTokenSecret == "" {
		return errors.New("access token and access token secret are required")
	}
	return nil
}

// ApplyTo copies the secrets into cfg, leaving values already set there alone
func (a *Account) ApplyTo(cfg *config.TwitterConfig) {
	if cfg.APIKey == "" {
		cfg.APIKey = a.APIKey
	}
	if cfg.APISecretKey == "" {
		cfg.APISecretKey = a.APISecretKey
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = a.AccessToken
	}
	if cfg.AccessTokenSecret == "" {
		cfg.AccessTokenSecret = a.AccessTokenSecret
	}
}

// CredentialStore persists accounts by name. Retrieve and Delete return
// ErrCredentialsNotFound for unknown names; read-only stores return
// ErrStoreUnavailable from Store and Delete.
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(name string) (*Account, error)
	List() ([]*Account, error)
	Delete(name string) error
	Exists(name string) bool
}

// Manager tries an ordered chain of stores
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager backed by the system keychain,
// an encrypted file and the environment, in that order
func NewManager() (*Manager, error) {
	m := &Manager{}
	if kr, err := NewKeyringStore(); err == nil {
		m.stores = append(m.stores, kr)
	}

	dir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	file, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}

	m.stores = append(m.stores, file, NewEnvironmentStore())
	return m, nil
}

// NewManagerWithStores creates a Manager over an explicit store chain
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store validates account, stamps it and saves it in the first store that
// accepts it
func (m *Manager) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	account.LastModified = time.Now()

	var failures []error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		failures = append(failures, err)
	}
	if len(failures) == 0 {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("failed to store credentials: %w", errors.Join(failures...))
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault prefers complete environment credentials, then the most
// recently modified stored account
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, store := range m.stores {
		if env, ok := store.(*EnvironmentStore); ok {
			if account, err := env.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	if accounts, err := m.List(); err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}
	return nil, ErrCredentialsNotFound
}

// List merges the accounts of every store, newest first. An account found in
// several stores is reported once, using its most recently modified copy.
// Stores that fail to list are skipped.
func (m *Manager) List() ([]*Account, error) {
	newest := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, a := range accounts {
			if seen, ok := newest[a.Name]; !ok || a.LastModified.After(seen.LastModified) {
				newest[a.Name] = a
			}
		}
	}

	result := slices.Collect(maps.Values(newest))
	slices.SortFunc(result, func(a, b *Account) int {
		if c := b.LastModified.Compare(a.LastModified); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	if result == nil {
		result = []*Account{}
	}
	return result, nil
}

// Delete removes the account from every store holding it
func (m *Manager) Delete(name string) error {
	deleted := false
	var hard error
	for _, store := range m.stores {
		err := store.Delete(name)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			hard = err
		}
	}

	switch {
	case deleted:
		return nil
	case hard != nil:
		return fmt.Errorf("failed to delete credentials: %w", hard)
	}
	return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// DeleteAll removes every listed account. Individual failures are ignored.
func (m *Manager) DeleteAll() error {
	accounts, err := m.List()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		_ = m.Delete(a.Name)
	}
	return nil
}

// getConfigDir returns (and creates) the per-user tweetcloud config dir
func getConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "tweetcloud")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// SanitizeAccount creates a copy of the account with secrets masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Name:              account.Name,
		APIKey:            maskString(account.APIKey),
		APISecretKey:      maskString(account.APISecretKey),
		AccessToken:       maskString(account.AccessToken),
		AccessTokenSecret: maskString(account.AccessTokenSecret),
		LastModified:      account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
