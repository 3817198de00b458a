// Package auditlog implements the vault's append-only, tamper-evident
// audit trail: one JSON-Lines entry per operation, HMAC-signed with a
// key derived from the live master key via HKDF.
package auditlog

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/crypto/hkdf"
)

// hkdfInfo binds the derived signing key to this specific use, so the
// same master key used for HKDF elsewhere would not collide.
const hkdfInfo = "vaultkeeper audit v1"

// Operation is one of the audited vault operations.
type Operation string

const (
	OpInit         Operation = "INIT"
	OpGet          Operation = "GET"
	OpSet          Operation = "SET"
	OpDelete       Operation = "DELETE"
	OpRotate       Operation = "ROTATE"
	OpListVersions Operation = "LIST_VERSIONS"
)

// Entry is one audit record.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Operation Operation      `json:"operation"`
	Key       string         `json:"key,omitempty"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	HMAC      string         `json:"hmac"`
}

func canonicalString(e Entry) string {
	return fmt.Sprintf("%s|%s|%s|%t", e.Timestamp, e.Operation, e.Key, e.Success)
}

func sign(e *Entry, key []byte) {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(canonicalString(*e)))
	e.HMAC = hex.EncodeToString(mac.Sum(nil))
}

func verify(e Entry, key []byte) bool {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(canonicalString(e)))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(e.HMAC))
}

// DeriveSigningKey derives a 32-byte HMAC key from the live master key
// via HKDF-SHA256. There is no passphrase in this design, so PBKDF2 (the
// teacher's choice) does not apply; HKDF is the idiomatic derivation for
// stretching one high-entropy key into another for a distinct purpose.
func DeriveSigningKey(masterKey []byte) ([]byte, error) {
	kdf := hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive audit signing key: %w", err)
	}
	return key, nil
}

// QueriedEntry is an Entry plus the result of re-verifying its HMAC
// against the caller's signing key.
type QueriedEntry struct {
	Entry
	TamperDetected bool
}

// Logger appends signed entries to a JSON-Lines file and serves filtered
// queries over the in-memory copy loaded at construction.
type Logger struct {
	path       string
	signingKey []byte
	entries    []Entry
}

// Open returns a Logger for path, deriving its signing key from
// masterKey. An empty path yields an in-memory-only logger. Existing
// entries are loaded if the file exists; a load failure is logged but
// never fails construction, matching the policy that audit-log failures
// are never fatal.
func Open(path string, masterKey []byte) (*Logger, error) {
	key, err := DeriveSigningKey(masterKey)
	if err != nil {
		return nil, err
	}
	l := &Logger{path: path, signingKey: key}
	if path == "" {
		return l, nil
	}
	if err := l.loadExisting(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load existing audit log: %v\n", err)
	}
	return l, nil
}

func (l *Logger) loadExisting() error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue // skip an unparseable line rather than failing the whole log
		}
		l.entries = append(l.entries, e)
	}
	return scanner.Err()
}

// Log signs and appends one entry, in memory always and on disk if a
// path was configured. Append failures are logged to stderr, not
// returned: per spec.md §7, audit-log write failures are never fatal to
// the operation being audited.
func (l *Logger) Log(op Operation, key string, success bool, errStr string, metadata map[string]any) {
	e := Entry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Operation: op,
		Key:       key,
		Success:   success,
		Error:     errStr,
		Metadata:  metadata,
	}
	sign(&e, l.signingKey)
	l.entries = append(l.entries, e)

	if l.path == "" {
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to marshal audit entry: %v\n", err)
		return
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open audit log for append: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to append audit entry: %v\n", err)
	}
}

// Query returns entries matching key (all entries if key is empty),
// oldest first, capped to the most recent limit entries (limit <= 0
// means unlimited). Each entry's HMAC is re-verified; a mismatch sets
// TamperDetected rather than dropping the entry, so tampering is
// reported, not hidden.
func (l *Logger) Query(key string, limit int) []QueriedEntry {
	var matched []Entry
	for _, e := range l.entries {
		if key != "" && e.Key != key {
			continue
		}
		matched = append(matched, e)
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	out := make([]QueriedEntry, len(matched))
	for i, e := range matched {
		out[i] = QueriedEntry{Entry: e, TamperDetected: !verify(e, l.signingKey)}
	}
	return out
}

// ClearLogs discards all entries, in memory and on disk. spec.md §9
// leaves retention policy to the operator; this is the one primitive
// the core exposes for it.
func (l *Logger) ClearLogs() error {
	l.entries = nil
	if l.path == "" {
		return nil
	}
	if err := os.Truncate(l.path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear audit log: %w", err)
	}
	return nil
}
