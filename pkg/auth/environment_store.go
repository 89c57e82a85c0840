package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvAPIKey            = "TWEETCLOUD_API_KEY"
	EnvAPISecretKey      = "TWEETCLOUD_API_SECRET_KEY"
	EnvAccessToken       = "TWEETCLOUD_ACCESS_TOKEN"
	EnvAccessTokenSecret = "TWEETCLOUD_ACCESS_TOKEN_SECRET"
)

// EnvironmentStore is a read-only CredentialStore over environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve builds an account from the four environment secrets. The
// environment carries no name, so the requested one (or "default") is used.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	if !e.Exists(name) {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "default"
	}

	return &Account{
		Name:              name,
		APIKey:            os.Getenv(EnvAPIKey),
		APISecretKey:      os.Getenv(EnvAPISecretKey),
		AccessToken:       os.Getenv(EnvAccessToken),
		AccessTokenSecret: os.Getenv(EnvAccessTokenSecret),
		LastModified:      time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists reports whether all four secrets are set
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvAPIKey) != "" &&
		os.Getenv(EnvAPISecretKey) != "" &&
		os.Getenv(EnvAccessToken) != "" &&
		os.Getenv(EnvAccessTokenSecret) != ""
}
