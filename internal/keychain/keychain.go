// Package keychain stashes the raw master key in the OS credential
// store as a CLI convenience. It sits outside the library boundary: the
// CLI driver retrieves a key here and always passes it through the
// vault's direct-bytes constructor parameter, so this package never
// becomes part of master-key resolution itself.
package keychain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName is the identifier used for keychain storage.
	ServiceName = "vaultkeeper"
	// AccountName is the base account identifier for the master key.
	// For vault-specific entries, this becomes "master-key-<vaultID>".
	AccountName = "master-key"
)

var (
	ErrKeychainUnavailable = errors.New("system keychain is not available")
	ErrKeyNotFound         = errors.New("master key not found in keychain")
)

// KeychainService provides cross-platform system keychain integration
// for one vault's master key.
type KeychainService struct {
	available bool
	vaultID   string
}

// New creates a KeychainService for a specific vault. vaultID should be
// the vault directory name (e.g. "my-vault"); pass "" for the default
// single-vault entry.
func New(vaultID string) *KeychainService {
	return &KeychainService{vaultID: sanitizeVaultID(vaultID)}
}

// sanitizeVaultID normalizes vaultID for safe use as a keychain account
// name: keeps alphanumerics, dash, underscore; replaces everything else
// with underscore.
func sanitizeVaultID(vaultID string) string {
	if vaultID == "" || vaultID == "." {
		return ""
	}
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, vaultID)
	if safe == "" {
		return ""
	}
	return safe
}

func (ks *KeychainService) accountName() string {
	if ks.vaultID == "" {
		return AccountName
	}
	return fmt.Sprintf("%s-%s", AccountName, ks.vaultID)
}

// Ping tests if the system keychain is accessible.
func (ks *KeychainService) Ping() error {
	if ks.available {
		return nil
	}
	testAccount := "vaultkeeper-availability-test"
	if err := keyring.Set(ServiceName, testAccount, "test"); err != nil {
		return fmt.Errorf("%w: %v", ErrKeychainUnavailable, err)
	}
	_ = keyring.Delete(ServiceName, testAccount)
	ks.available = true
	return nil
}

// IsAvailable reports whether the system keychain is available,
// probing on demand if not already cached.
func (ks *KeychainService) IsAvailable() bool {
	if !ks.available {
		_ = ks.Ping()
	}
	return ks.available
}

// Store saves a 32-byte master key to the system keychain, base64
// encoded (keyring backends store strings, not arbitrary binary).
func (ks *KeychainService) Store(key []byte) error {
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := keyring.Set(ServiceName, ks.accountName(), encoded); err != nil {
		return fmt.Errorf("failed to store master key in keychain: %w", err)
	}
	return nil
}

// Retrieve fetches and decodes the master key from the system keychain.
// Returns ErrKeyNotFound if none is stored.
func (ks *KeychainService) Retrieve() ([]byte, error) {
	encoded, err := keyring.Get(ServiceName, ks.accountName())
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to retrieve master key from keychain: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("stored keychain entry is not valid base64: %w", err)
	}
	return key, nil
}

// Delete removes the master key from the system keychain. Not an error
// if no entry exists.
func (ks *KeychainService) Delete() error {
	if err := keyring.Delete(ServiceName, ks.accountName()); err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete master key from keychain: %w", err)
	}
	return nil
}

// Clear is an alias for Delete, kept for parity with the rest of the
// service layer's naming.
func (ks *KeychainService) Clear() error {
	return ks.Delete()
}
