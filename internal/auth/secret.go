package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"blog-backend/internal/database"
)

const secretBytes = 32

// SecretStore persists the generated session secret
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetIfAbsent(ctx context.Context, key, value string) (string, error)
}

// LoadOrCreateSecret returns the session signing secret. A configured
// override wins; otherwise the stored secret is used, generating and
// persisting one on first start.
func LoadOrCreateSecret(ctx context.Context, store SecretStore, override string) ([]byte, error) {
	if override != "" {
		return []byte(override), nil
	}

	stored, err := store.Get(ctx, database.SettingSessionSecret)
	switch {
	case err == nil:
		return decodeSecret(stored)
	case !errors.Is(err, database.ErrSettingNotFound):
		return nil, fmt.Errorf("load session secret: %w", err)
	}

	secret, err := NewSecret()
	if err != nil {
		return nil, err
	}
	// another process may have won the race, keep whatever got stored
	stored, err = store.SetIfAbsent(ctx, database.SettingSessionSecret, secret)
	if err != nil {
		return nil, fmt.Errorf("store session secret: %w", err)
	}
	return decodeSecret(stored)
}

// NewSecret generates a hex encoded random secret
func NewSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func decodeSecret(stored string) ([]byte, error) {
	secret, err := hex.DecodeString(stored)
	if err != nil || len(secret) == 0 {
		return nil, errors.New("stored session secret is corrupt")
	}
	return secret, nil
}
