// Package versionstore holds the in-memory, per-key version history that
// backs the vault: an ordered sequence of encrypted versions per key,
// with a monotonic current_version counter that targeted deletion never
// decrements.
package versionstore

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/arimxyer/vaultkeeper/internal/crypto"
	"github.com/arimxyer/vaultkeeper/internal/storage"
)

// Blob mirrors storage.Blob's shape at the VersionStore/Crypto boundary:
// base64 ciphertext (AEAD tag included) and base64 nonce.
type Blob struct {
	Ciphertext string
	Nonce      string
}

// SecretVersion is one historical snapshot of a key's encrypted value.
type SecretVersion struct {
	Version   uint32
	Encrypted Blob
	Timestamp string
	Metadata  map[string]any
}

// VersionSummary is the version-list view with no encrypted material,
// returned by ListVersions.
type VersionSummary struct {
	Version   uint32
	Timestamp string
	Metadata  map[string]any
}

type versionedKey struct {
	versions       []SecretVersion
	currentVersion uint32
}

// Store is the pure in-memory structure over a vault's keys and their
// version histories. It has no knowledge of encryption or persistence;
// those are supplied by the caller (the Vault facade).
type Store struct {
	entries []string // key names, insertion order
	byName  map[string]*versionedKey
}

// New returns an empty Store.
func New() *Store {
	return &Store{byName: make(map[string]*versionedKey)}
}

// nowUTC is overridable in tests so timestamp assertions are deterministic.
var nowUTC = func() time.Time { return time.Now().UTC() }

// AddVersion appends a new version for key, advancing current_version by
// exactly one regardless of how many versions have been deleted. Returns
// the new version number.
func (s *Store) AddVersion(key string, blob Blob, metadata map[string]any) uint32 {
	vk, ok := s.byName[key]
	if !ok {
		vk = &versionedKey{}
		s.byName[key] = vk
		s.entries = append(s.entries, key)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	n := vk.currentVersion + 1
	vk.versions = append(vk.versions, SecretVersion{
		Version:   n,
		Encrypted: blob,
		Timestamp: nowUTC().Format("2006-01-02T15:04:05.000Z"),
		Metadata:  metadata,
	})
	vk.currentVersion = n
	return n
}

// GetVersion returns the version matching the given version number, or
// (if version is nil) the most recently appended surviving version.
// Returns ok=false if the key is absent or has no versions.
func (s *Store) GetVersion(key string, version *uint32) (SecretVersion, bool) {
	vk, ok := s.byName[key]
	if !ok || len(vk.versions) == 0 {
		return SecretVersion{}, false
	}
	if version == nil {
		return vk.versions[len(vk.versions)-1], true
	}
	for _, v := range vk.versions {
		if v.Version == *version {
			return v, true
		}
	}
	return SecretVersion{}, false
}

// ListVersions returns every surviving version for key in ascending
// version order, without encrypted material. Empty if key is absent.
func (s *Store) ListVersions(key string) []VersionSummary {
	vk, ok := s.byName[key]
	if !ok {
		return nil
	}
	out := make([]VersionSummary, len(vk.versions))
	for i, v := range vk.versions {
		out[i] = VersionSummary{Version: v.Version, Timestamp: v.Timestamp, Metadata: v.Metadata}
	}
	return out
}

// DeleteKey removes key and its entire version history. Reports whether
// it existed.
func (s *Store) DeleteKey(key string) bool {
	if _, ok := s.byName[key]; !ok {
		return false
	}
	delete(s.byName, key)
	for i, name := range s.entries {
		if name == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return true
}

// DeleteVersion removes exactly the matching version from key's history.
// current_version is NOT decremented. If this empties the key's version
// list, the key itself is removed (versions must stay non-empty).
// Reports whether a version was removed.
func (s *Store) DeleteVersion(key string, version uint32) bool {
	vk, ok := s.byName[key]
	if !ok {
		return false
	}
	for i, v := range vk.versions {
		if v.Version == version {
			vk.versions = append(vk.versions[:i], vk.versions[i+1:]...)
			if len(vk.versions) == 0 {
				s.DeleteKey(key)
			}
			return true
		}
	}
	return false
}

// GetAllKeys returns every key name in insertion order.
func (s *Store) GetAllKeys() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Has reports whether key exists in the store.
func (s *Store) Has(key string) bool {
	_, ok := s.byName[key]
	return ok
}

// RotateKey decrypts every version of every key under oldKey and
// re-encrypts it under newKey, replacing the blobs only once every
// version has been re-encrypted. It has no partial-failure tolerance:
// the first decryption or re-encryption failure aborts before any blob
// is mutated, returning that error unwrapped (Vault.Rotate wraps it in
// ErrRotation) and leaving the store byte-for-byte as it was. See Rotate
// in the vault package for the full protocol, including the live-key
// swap and persist.
func (s *Store) RotateKey(oldKey, newKey []byte, cs *crypto.CryptoService) (int, error) {
	type plan struct {
		key   string
		idx   int
		blob  Blob
		clear []byte
	}
	var plans []plan

	for _, key := range s.entries {
		vk := s.byName[key]
		for i, v := range vk.versions {
			clear, err := DecryptBlob(cs, v.Encrypted, oldKey)
			if err != nil {
				return 0, err
			}
			plans = append(plans, plan{key: key, idx: i, clear: clear})
		}
	}

	blobs := make([]Blob, len(plans))
	for i, p := range plans {
		blob, err := EncryptToBlob(cs, p.clear, newKey)
		if err != nil {
			return 0, err
		}
		blobs[i] = blob
	}

	for i, p := range plans {
		s.byName[p.key].versions[p.idx].Encrypted = blobs[i]
	}

	return len(plans), nil
}

// ToDocument converts the store into a storage.Document for persistence,
// preserving insertion order of keys and ascending order of versions.
func (s *Store) ToDocument() *storage.Document {
	doc := storage.NewDocument()
	for _, key := range s.entries {
		vk := s.byName[key]
		versions := make([]storage.Version, len(vk.versions))
		for i, v := range vk.versions {
			versions[i] = storage.Version{
				Version:   v.Version,
				Encrypted: storage.Blob{Ciphertext: v.Encrypted.Ciphertext, Nonce: v.Encrypted.Nonce},
				Timestamp: v.Timestamp,
				Metadata:  v.Metadata,
			}
		}
		doc.Put(&storage.KeyEntry{Name: key, CurrentVersion: vk.currentVersion, Versions: versions})
	}
	return doc
}

func decodeBlob(b Blob) (ciphertext, nonce []byte, err error) {
	if b.Ciphertext == "" {
		return nil, nil, fmt.Errorf("%w: ciphertext field is missing", ErrMalformedBlob)
	}
	if b.Nonce == "" {
		return nil, nil, fmt.Errorf("%w: nonce field is missing", ErrMalformedBlob)
	}
	ciphertext, err = base64.StdEncoding.DecodeString(b.Ciphertext)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ciphertext: %v", ErrMalformedBlob, err)
	}
	nonce, err = base64.StdEncoding.DecodeString(b.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: nonce: %v", ErrMalformedBlob, err)
	}
	return ciphertext, nonce, nil
}

func encodeSegment(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// EncryptToBlob encrypts plaintext under key and returns the resulting
// Blob in the base64 text form the vault document stores.
func EncryptToBlob(cs *crypto.CryptoService, plaintext, key []byte) (Blob, error) {
	sealed, err := cs.Encrypt(plaintext, key)
	if err != nil {
		return Blob{}, err
	}
	nonce := sealed[:crypto.NonceLength]
	ciphertext := sealed[crypto.NonceLength:]
	return Blob{Ciphertext: encodeSegment(ciphertext), Nonce: encodeSegment(nonce)}, nil
}

// DecryptBlob decrypts blob under key, returning the plaintext.
func DecryptBlob(cs *crypto.CryptoService, blob Blob, key []byte) ([]byte, error) {
	ciphertext, nonce, err := decodeBlob(blob)
	if err != nil {
		return nil, err
	}
	return cs.Decrypt(append(nonce, ciphertext...), key)
}

// FromDocument rebuilds a Store from a storage.Document, preserving
// current_version verbatim rather than recomputing it from the
// surviving versions.
func FromDocument(doc *storage.Document) *Store {
	s := New()
	for _, name := range doc.Keys() {
		entry, _ := doc.Get(name)
		vk := &versionedKey{currentVersion: entry.CurrentVersion}
		for _, v := range entry.Versions {
			vk.versions = append(vk.versions, SecretVersion{
				Version:   v.Version,
				Encrypted: Blob{Ciphertext: v.Encrypted.Ciphertext, Nonce: v.Encrypted.Nonce},
				Timestamp: v.Timestamp,
				Metadata:  v.Metadata,
			})
		}
		s.byName[name] = vk
		s.entries = append(s.entries, name)
	}
	return s
}
