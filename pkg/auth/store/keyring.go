package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/kauth-dev/kauth/pkg/logger"
)

const (
	keyringService = "kauth"
	keyringKey     = "context"
)

// KeyringStore keeps the context in the OS keyring (Keychain, Secret
// Service, Windows Credential Manager). Same contract as FileStore, but the
// tokens never touch disk in plaintext.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed context store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

// Load reads the persisted context from the keyring.
func (s *KeyringStore) Load() (*AuthContext, error) {
	data, err := keyring.Get(s.service, keyringKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read context from keyring: %w", err)
	}

	var ctx AuthContext
	if err := json.Unmarshal([]byte(data), &ctx); err != nil {
		logger.Warn("keyring context entry is malformed, treating as not logged in")
		return nil, nil
	}
	if ctx.AccessToken == "" {
		return nil, nil
	}
	return &ctx, nil
}

// Save replaces the persisted context in the keyring.
func (s *KeyringStore) Save(ctx *AuthContext) error {
	data, err := json.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("unable to serialize context: %w", err)
	}
	if err := keyring.Set(s.service, keyringKey, string(data)); err != nil {
		return fmt.Errorf("unable to write context to keyring: %w", err)
	}
	return nil
}

// Clear removes the persisted context from the keyring.
func (s *KeyringStore) Clear() error {
	if err := keyring.Delete(s.service, keyringKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("unable to remove context from keyring: %w", err)
	}
	return nil
}
