// Package vault is the facade that wires Crypto, Storage, VersionStore
// and AuditLog into the public operations an application embeds: set,
// get, delete, rotate, list_versions, list_keys, get_audit_log, save.
package vault

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arimxyer/vaultkeeper/internal/auditlog"
	"github.com/arimxyer/vaultkeeper/internal/crypto"
	"github.com/arimxyer/vaultkeeper/internal/storage"
	"github.com/arimxyer/vaultkeeper/internal/versionstore"
)

const defaultVaultPath = ".vault/secrets.yaml"

// Options configures Vault construction. All fields are optional; zero
// values select the defaults and resolution order from spec.md §4.5.
type Options struct {
	MasterKey    []byte // direct bytes, highest-priority source
	KeyFilePath  string // explicit key file, third-priority source; "" falls back to $VAULT_MASTER_KEY_FILE
	VaultPath    string // "" falls back to $VAULT_FILE, then .vault/secrets.yaml relative to cwd
	AuditLogPath string // "" disables on-disk persistence, not auditing
	AutoSave     *bool  // nil means true
}

// Vault is a single open vault: a live master key, a loaded version
// history, and the storage/audit collaborators that persist them.
type Vault struct {
	masterKey *crypto.MasterKey
	cs        *crypto.CryptoService
	storage   *storage.StorageService
	store     *versionstore.Store
	audit     *auditlog.Logger
	autoSave  bool
}

// Open constructs a Vault, resolving the master key via the five-step
// order in spec.md §4.5, loading the vault document (a corrupt document
// is non-fatal: it starts empty and the failure is recorded), and
// opening the audit log. An INIT entry is always recorded.
func Open(opts Options) (*Vault, error) {
	if opts.KeyFilePath == "" {
		opts.KeyFilePath = os.Getenv("VAULT_MASTER_KEY_FILE")
	}
	keyBytes, err := resolveMasterKey(opts)
	if err != nil {
		return nil, err
	}
	mk, err := crypto.NewMasterKey(keyBytes)
	crypto.ClearBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyLength, err)
	}

	vaultPath := opts.VaultPath
	if vaultPath == "" {
		vaultPath = os.Getenv("VAULT_FILE")
	}
	if vaultPath == "" {
		vaultPath = defaultVaultPath
	}
	ss := storage.NewStorageService(vaultPath)

	al, err := auditlog.Open(opts.AuditLogPath, mk.Bytes())
	if err != nil {
		mk.Close()
		return nil, fmt.Errorf("%w: opening audit log: %v", ErrVault, err)
	}

	autoSave := true
	if opts.AutoSave != nil {
		autoSave = *opts.AutoSave
	}

	v := &Vault{
		masterKey: mk,
		cs:        crypto.NewCryptoService(),
		storage:   ss,
		audit:     al,
		autoSave:  autoSave,
	}

	doc, err := ss.Load()
	if err != nil {
		v.store = versionstore.New()
		v.audit.Log(auditlog.OpInit, "", false, fmt.Sprintf("corrupted vault, starting empty: %v", err), nil)
	} else {
		v.store = versionstore.FromDocument(doc)
		v.audit.Log(auditlog.OpInit, "", true, "", nil)
	}

	return v, nil
}

// resolveMasterKey implements spec.md §4.5's five-step order, first hit
// wins.
func resolveMasterKey(opts Options) ([]byte, error) {
	var tried []string

	if len(opts.MasterKey) > 0 {
		key := make([]byte, len(opts.MasterKey))
		copy(key, opts.MasterKey)
		return key, nil
	}
	tried = append(tried, "direct bytes")

	if raw := os.Getenv("VAULT_MASTER_KEY"); raw != "" {
		if key, err := base64.StdEncoding.DecodeString(raw); err == nil {
			return key, nil
		}
		// Decoding failure is silently skipped per spec; the caller may
		// have a legitimate key file fallback.
	}
	tried = append(tried, "VAULT_MASTER_KEY env")

	if opts.KeyFilePath != "" {
		if _, err := os.Stat(opts.KeyFilePath); err == nil {
			key, err := os.ReadFile(opts.KeyFilePath)
			if err != nil {
				return nil, fmt.Errorf("%w: reading key file %q: %v", ErrMasterKeyNotFound, opts.KeyFilePath, err)
			}
			return key, nil
		}
	}
	tried = append(tried, "explicit key file")

	if home, err := os.UserHomeDir(); err == nil {
		defaultPath := filepath.Join(home, ".vault", "master.key")
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			if key, err := os.ReadFile(defaultPath); err == nil {
				return key, nil
			}
			// Read errors at the default location fall through per spec.
		}
	}
	tried = append(tried, "default ~/.vault/master.key")

	return nil, fmt.Errorf("%w (tried: %v)", ErrMasterKeyNotFound, tried)
}

// Close zeroes the live master key. It does not persist or close the
// underlying storage/audit handles, which are scoped per-operation.
func (v *Vault) Close() {
	v.masterKey.Close()
}

func (v *Vault) persistIfAutoSave() error {
	if !v.autoSave {
		return nil
	}
	return v.Save()
}

// Save persists the current in-memory version history to the vault
// file, via Storage's atomic write.
func (v *Vault) Save() error {
	doc := v.store.ToDocument()
	if err := v.storage.Save(doc); err != nil {
		return translateStorageErr(err)
	}
	return nil
}

// Set encrypts plaintext under the live master key, appends it as a new
// version of key, and (if auto_save) persists. Returns the new version
// number.
func (v *Vault) Set(key string, plaintext []byte, metadata map[string]any) (uint32, error) {
	blob, err := versionstore.EncryptToBlob(v.cs, plaintext, v.masterKey.Bytes())
	if err != nil {
		v.audit.Log(auditlog.OpSet, key, false, err.Error(), nil)
		return 0, translateCryptoErr(err)
	}
	version := v.store.AddVersion(key, blob, metadata)

	if err := v.persistIfAutoSave(); err != nil {
		v.audit.Log(auditlog.OpSet, key, false, err.Error(), nil)
		return 0, err
	}
	v.audit.Log(auditlog.OpSet, key, true, "", map[string]any{"version": version})
	return version, nil
}

// Get decrypts and returns key's value. version nil means the latest
// surviving version.
func (v *Vault) Get(key string, version *uint32) ([]byte, error) {
	sv, ok := v.store.GetVersion(key, version)
	if !ok {
		v.audit.Log(auditlog.OpGet, key, false, ErrSecretNotFound.Error(), nil)
		return nil, fmt.Errorf("%w: %q", ErrSecretNotFound, key)
	}

	plaintext, err := versionstore.DecryptBlob(v.cs, sv.Encrypted, v.masterKey.Bytes())
	if err != nil {
		v.audit.Log(auditlog.OpGet, key, false, err.Error(), nil)
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrVault, err)
	}

	v.audit.Log(auditlog.OpGet, key, true, "", nil)
	return plaintext, nil
}

// Delete removes key and its entire version history. Reports whether it
// existed.
func (v *Vault) Delete(key string) (bool, error) {
	existed := v.store.DeleteKey(key)
	if err := v.persistIfAutoSave(); err != nil {
		v.audit.Log(auditlog.OpDelete, key, false, err.Error(), nil)
		return existed, err
	}
	v.audit.Log(auditlog.OpDelete, key, existed, "", nil)
	return existed, nil
}

// Rotate re-encrypts every version under newKey (generating one if nil),
// swaps the live master key, and persists. Returns the new key bytes so
// the caller can externalize them; Rotate never writes the key file
// itself.
func (v *Vault) Rotate(newKey []byte) ([]byte, error) {
	if newKey == nil {
		generated, err := v.cs.GenerateKey()
		if err != nil {
			v.audit.Log(auditlog.OpRotate, "", false, err.Error(), nil)
			return nil, fmt.Errorf("%w: %v", ErrVault, err)
		}
		newKey = generated
	}
	if len(newKey) != crypto.KeyLength {
		v.audit.Log(auditlog.OpRotate, "", false, ErrKeyLength.Error(), nil)
		return nil, ErrKeyLength
	}

	count, err := v.store.RotateKey(v.masterKey.Bytes(), newKey, v.cs)
	if err != nil {
		v.audit.Log(auditlog.OpRotate, "", false, err.Error(), nil)
		return nil, fmt.Errorf("%w: %v", ErrRotation, err)
	}

	newMK, err := crypto.NewMasterKey(newKey)
	if err != nil {
		v.audit.Log(auditlog.OpRotate, "", false, err.Error(), nil)
		return nil, fmt.Errorf("%w: %v", ErrKeyLength, err)
	}
	v.masterKey.Close()
	v.masterKey = newMK

	if err := v.persistIfAutoSave(); err != nil {
		v.audit.Log(auditlog.OpRotate, "", false, err.Error(), map[string]any{"versions_rotated": count})
		return nil, err
	}

	out := make([]byte, len(newKey))
	copy(out, newKey)
	v.audit.Log(auditlog.OpRotate, "", true, "", map[string]any{"versions_rotated": count})
	return out, nil
}

// ListVersions returns every surviving version summary for key, oldest
// first.
func (v *Vault) ListVersions(key string) []versionstore.VersionSummary {
	v.audit.Log(auditlog.OpListVersions, key, true, "", nil)
	return v.store.ListVersions(key)
}

// ListKeys returns every key name in insertion order.
func (v *Vault) ListKeys() []string {
	return v.store.GetAllKeys()
}

// GetAuditLog returns audit entries, optionally filtered to one key and
// capped to the most recent limit entries (limit<=0 means unlimited).
func (v *Vault) GetAuditLog(key string, limit int) []auditlog.QueriedEntry {
	return v.audit.Query(key, limit)
}

func translateCryptoErr(err error) error {
	switch {
	case errors.Is(err, crypto.ErrInvalidKeyLength):
		return fmt.Errorf("%w: %v", ErrKeyLength, err)
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	default:
		return fmt.Errorf("%w: %v", ErrVault, err)
	}
}

func translateStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrVaultCorrupted):
		return fmt.Errorf("%w: %v", ErrCorruptedVault, err)
	default:
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
}
