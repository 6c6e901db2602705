package secret

import (
	"fmt"
	"os"
	"strings"
)

// SecretStore looks up sensitive values such as database passwords.
type SecretStore interface {
	// Get returns the secret stored under key. A missing key yields an
	// empty slice and a nil error.
	Get(key string) ([]byte, error)
}

// EnvStore reads secrets from environment variables.
type EnvStore struct{}

func (EnvStore) Get(key string) ([]byte, error) {
	v, _ := os.LookupEnv(key)
	return []byte(v), nil
}

// Resolve reads the secret named by ref, written "env:NAME" or
// "keychain:ACCOUNT". stores maps each scheme to its backend.
func Resolve(ref string, stores map[string]SecretStore) (string, error) {
	scheme, key, ok := strings.Cut(ref, ":")
	if !ok || key == "" {
		return "", fmt.Errorf("secret reference %q: want scheme:key", ref)
	}
	store, ok := stores[scheme]
	if !ok {
		return "", fmt.Errorf("secret reference %q: unknown scheme %q", ref, scheme)
	}
	v, err := store.Get(key)
	if err != nil {
		return "", fmt.Errorf("secret reference %q: %w", ref, err)
	}
	if len(v) == 0 {
		return "", fmt.Errorf("secret reference %q: not set", ref)
	}
	return string(v), nil
}

// DefaultStores returns the env and keychain backends.
func DefaultStores() map[string]SecretStore {
	return map[string]SecretStore{
		"env":      EnvStore{},
		"keychain": NewKeychainStore(),
	}
}
