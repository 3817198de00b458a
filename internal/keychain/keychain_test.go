package keychain

import (
	"testing"
)

func testKey(b byte) []byte {
	k := make([]byte, 32)
	k[0] = b
	return k
}

func TestNew(t *testing.T) {
	ks := New("")
	if ks.vaultID != "" {
		t.Errorf("vaultID = %q, want empty string", ks.vaultID)
	}

	ksVault := New("test-vault")
	if ksVault.vaultID != "test-vault" {
		t.Errorf("vaultID = %q, want %q", ksVault.vaultID, "test-vault")
	}

	t.Logf("keychain available: %v", ks.IsAvailable())
}

func TestStoreAndRetrieve(t *testing.T) {
	ks := New("keychain-test")
	if !ks.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ks.Delete()
	defer func() { _ = ks.Delete() }()

	key := testKey(0x42)
	if err := ks.Store(key); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := ks.Retrieve()
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if string(got) != string(key) {
		t.Errorf("retrieved key does not match stored key")
	}
}

func TestRetrieveNonExistent(t *testing.T) {
	ks := New("keychain-test-missing")
	if !ks.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ks.Delete()

	if _, err := ks.Retrieve(); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ks := New("keychain-test-delete")
	if !ks.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}

	if err := ks.Store(testKey(1)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := ks.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := ks.Retrieve(); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestDeleteNonExistentIsNotAnError(t *testing.T) {
	ks := New("keychain-test-delete-missing")
	if !ks.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	_ = ks.Delete()
	if err := ks.Delete(); err != nil {
		t.Errorf("deleting an absent entry should not error: %v", err)
	}
}

func TestClearIsAliasForDelete(t *testing.T) {
	ks := New("keychain-test-clear")
	if !ks.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	if err := ks.Store(testKey(2)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := ks.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := ks.Retrieve(); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after Clear, got %v", err)
	}
}

func TestMultipleStoreOverwrites(t *testing.T) {
	ks := New("keychain-test-overwrite")
	if !ks.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	defer func() { _ = ks.Delete() }()

	if err := ks.Store(testKey(3)); err != nil {
		t.Fatalf("first Store failed: %v", err)
	}
	if err := ks.Store(testKey(4)); err != nil {
		t.Fatalf("second Store failed: %v", err)
	}
	got, err := ks.Retrieve()
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if got[0] != 4 {
		t.Errorf("expected the second Store to win, got first byte %d", got[0])
	}
}

func TestSanitizeVaultID(t *testing.T) {
	cases := map[string]string{
		"":            "",
		".":           "",
		"my-vault":    "my-vault",
		"my vault!":   "my_vault_",
		"under_score": "under_score",
	}
	for in, want := range cases {
		if got := sanitizeVaultID(in); got != want {
			t.Errorf("sanitizeVaultID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAccountName(t *testing.T) {
	global := New("")
	if global.accountName() != AccountName {
		t.Errorf("expected global account name %q, got %q", AccountName, global.accountName())
	}

	scoped := New("my-vault")
	want := AccountName + "-my-vault"
	if scoped.accountName() != want {
		t.Errorf("expected scoped account name %q, got %q", want, scoped.accountName())
	}
}

func TestVaultIsolation(t *testing.T) {
	a := New("vault-a")
	b := New("vault-b")
	if !a.IsAvailable() || !b.IsAvailable() {
		t.Skip("keychain not available in test environment")
	}
	defer func() { _ = a.Delete(); _ = b.Delete() }()

	if err := a.Store(testKey(0xAA)); err != nil {
		t.Fatalf("Store for vault-a failed: %v", err)
	}
	if err := b.Store(testKey(0xBB)); err != nil {
		t.Fatalf("Store for vault-b failed: %v", err)
	}

	gotA, err := a.Retrieve()
	if err != nil {
		t.Fatalf("Retrieve for vault-a failed: %v", err)
	}
	gotB, err := b.Retrieve()
	if err != nil {
		t.Fatalf("Retrieve for vault-b failed: %v", err)
	}
	if gotA[0] != 0xAA || gotB[0] != 0xBB {
		t.Error("expected vault-scoped keychain entries to be isolated from one another")
	}
}
