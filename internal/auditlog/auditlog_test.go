package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testKey() []byte {
	return make([]byte, 32)
}

func TestLogger_AppendAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	key := testKey()

	l, err := Open(path, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.Log(OpSet, "DB_URL", true, "", map[string]any{"version": 1})
	l.Log(OpGet, "DB_URL", true, "", nil)
	l.Log(OpGet, "MISSING", false, "secret not found", nil)

	reopened, err := Open(path, key)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	entries := reopened.Query("", 0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries after reload, got %d", len(entries))
	}
	for _, e := range entries {
		if e.TamperDetected {
			t.Errorf("unexpected tamper flag on freshly loaded entry %+v", e)
		}
	}
	if entries[2].Key != "MISSING" || entries[2].Success {
		t.Errorf("unexpected third entry: %+v", entries[2])
	}
}

func TestLogger_TamperDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	key := testKey()

	l, err := Open(path, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.Log(OpSet, "K", true, "", nil)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read audit file: %v", err)
	}
	tampered := []byte(strings.Replace(string(data), `"success":true`, `"success":false`, 1))
	if err := os.WriteFile(path, tampered, 0600); err != nil {
		t.Fatalf("failed to write tampered file: %v", err)
	}

	reopened, err := Open(path, key)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	entries := reopened.Query("", 0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].TamperDetected {
		t.Error("expected tamper detection on modified entry")
	}
}

func TestLogger_DifferentMasterKeyFlagsTamper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	key := testKey()

	l, err := Open(path, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.Log(OpRotate, "K", true, "", nil)

	otherKey := testKey()
	otherKey[0] = 0x42
	reopened, err := Open(path, otherKey)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	entries := reopened.Query("", 0)
	if len(entries) != 1 || !entries[0].TamperDetected {
		t.Error("expected entry signed under a different master key to fail verification")
	}
}

func TestLogger_QueryFiltersByKey(t *testing.T) {
	l, err := Open("", testKey())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.Log(OpSet, "A", true, "", nil)
	l.Log(OpSet, "B", true, "", nil)
	l.Log(OpDelete, "A", true, "", nil)

	entries := l.Query("A", 0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for key A, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Key != "A" {
			t.Errorf("unexpected entry for key %q in filtered query", e.Key)
		}
	}
}

func TestLogger_QueryRespectsLimit(t *testing.T) {
	l, err := Open("", testKey())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		l.Log(OpGet, "K", true, "", nil)
	}

	entries := l.Query("K", 2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries with limit=2, got %d", len(entries))
	}
}

func TestLogger_InMemoryOnlyWithEmptyPath(t *testing.T) {
	l, err := Open("", testKey())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.Log(OpInit, "", true, "", nil)
	if len(l.Query("", 0)) != 1 {
		t.Fatal("expected in-memory logger to record entries")
	}
}

func TestLogger_ClearLogs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	l, err := Open(path, testKey())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.Log(OpSet, "K", true, "", nil)

	if err := l.ClearLogs(); err != nil {
		t.Fatalf("ClearLogs failed: %v", err)
	}
	if len(l.Query("", 0)) != 0 {
		t.Error("expected no entries after ClearLogs")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read audit file after clear: %v", err)
	}
	if len(data) != 0 {
		t.Error("expected audit file to be truncated after ClearLogs")
	}
}

func TestLogger_MalformedLinesAreSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	if err := os.WriteFile(path, []byte("not json\n{\"timestamp\":\"x\"}\n"), 0600); err != nil {
		t.Fatalf("failed to seed audit file: %v", err)
	}

	l, err := Open(path, testKey())
	if err != nil {
		t.Fatalf("Open should tolerate malformed lines: %v", err)
	}
	l.Log(OpSet, "K", true, "", nil)
	entries := l.Query("", 0)
	if len(entries) == 0 {
		t.Fatal("expected at least the newly logged entry")
	}
}
