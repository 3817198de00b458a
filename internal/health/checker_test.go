package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arimxyer/vaultkeeper/internal/crypto"
	"github.com/arimxyer/vaultkeeper/internal/storage"
	"github.com/arimxyer/vaultkeeper/internal/versionstore"
)

func testKey(b byte) []byte {
	k := make([]byte, crypto.KeyLength)
	k[0] = b
	return k
}

func seedVault(t *testing.T, path string, key []byte) {
	t.Helper()
	cs := crypto.NewCryptoService()
	store := versionstore.New()
	blob, err := versionstore.EncryptToBlob(cs, []byte("value"), key)
	if err != nil {
		t.Fatalf("EncryptToBlob failed: %v", err)
	}
	store.AddVersion("K", blob, nil)

	ss := storage.NewStorageService(path)
	if err := ss.Save(store.ToDocument()); err != nil {
		t.Fatalf("seed Save failed: %v", err)
	}
}

func TestRunChecks_HealthyVault(t *testing.T) {
	dir := t.TempDir()
	vaultPath := filepath.Join(dir, "secrets.yaml")
	auditPath := filepath.Join(dir, "audit.jsonl")
	key := testKey(1)

	seedVault(t, vaultPath, key)
	// second save to produce a backup file
	seedVault(t, vaultPath, key)

	report := RunChecks(context.Background(), CheckOptions{
		VaultPath:    vaultPath,
		AuditLogPath: auditPath,
		MasterKey:    key,
	})

	if report.Summary.Errors != 0 {
		t.Errorf("expected no errors on a healthy vault, got %+v", report)
	}
	var sawVault, sawBackup, sawAudit, sawKeySource bool
	for _, c := range report.Checks {
		switch c.Name {
		case "vault":
			sawVault = c.Status == CheckPass
		case "backup":
			sawBackup = c.Status == CheckPass
		case "audit":
			sawAudit = c.Status == CheckPass
		case "key_source":
			sawKeySource = c.Status == CheckPass
		}
	}
	if !sawVault || !sawBackup || !sawAudit || !sawKeySource {
		t.Errorf("expected vault/backup/audit/key_source checks to pass, got %+v", report.Checks)
	}
}

func TestVaultChecker_MissingFileIsWarning(t *testing.T) {
	dir := t.TempDir()
	result := NewVaultChecker(filepath.Join(dir, "secrets.yaml")).Run(context.Background())
	if result.Status != CheckWarning {
		t.Errorf("expected warning for a missing vault file, got %v", result.Status)
	}
}

func TestVaultChecker_CorruptFileIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.yaml")
	if err := os.WriteFile(path, []byte("not: [valid"), 0600); err != nil {
		t.Fatalf("failed to seed corrupt vault: %v", err)
	}
	result := NewVaultChecker(path).Run(context.Background())
	if result.Status != CheckError {
		t.Errorf("expected error for a corrupt vault file, got %v", result.Status)
	}
}

func TestBackupChecker_MissingBackupIsWarning(t *testing.T) {
	dir := t.TempDir()
	result := NewBackupChecker(filepath.Join(dir, "secrets.yaml"), testKey(1)).Run(context.Background())
	if result.Status != CheckWarning {
		t.Errorf("expected warning when no backup exists yet, got %v", result.Status)
	}
}

func TestBackupChecker_WrongKeyIsError(t *testing.T) {
	dir := t.TempDir()
	vaultPath := filepath.Join(dir, "secrets.yaml")
	key := testKey(2)
	seedVault(t, vaultPath, key)
	seedVault(t, vaultPath, key)

	wrongKey := testKey(0xEE)
	result := NewBackupChecker(vaultPath, wrongKey).Run(context.Background())
	if result.Status != CheckError {
		t.Errorf("expected error when the backup does not decrypt under the given key, got %v", result.Status)
	}
}

func TestAuditChecker_OpensFreshFile(t *testing.T) {
	dir := t.TempDir()
	result := NewAuditChecker(filepath.Join(dir, "audit.jsonl"), testKey(3)).Run(context.Background())
	if result.Status != CheckPass {
		t.Errorf("expected pass opening a fresh audit log, got %v: %+v", result.Status, result)
	}
}

func TestAuditChecker_NoPathIsWarning(t *testing.T) {
	result := NewAuditChecker("", testKey(3)).Run(context.Background())
	if result.Status != CheckWarning {
		t.Errorf("expected warning when no audit path is configured, got %v", result.Status)
	}
}

func TestKeySourceChecker_NoSourceIsError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VAULT_MASTER_KEY", "")
	result := NewKeySourceChecker(CheckOptions{VaultPath: filepath.Join(dir, "secrets.yaml")}).Run(context.Background())
	if result.Status != CheckError {
		t.Errorf("expected error when no master key source resolves, got %v", result.Status)
	}
}

func TestKeySourceChecker_DirectBytesResolves(t *testing.T) {
	dir := t.TempDir()
	result := NewKeySourceChecker(CheckOptions{
		VaultPath: filepath.Join(dir, "secrets.yaml"),
		MasterKey: testKey(4),
	}).Run(context.Background())
	if result.Status != CheckPass {
		t.Errorf("expected pass when direct master-key bytes are supplied, got %v", result.Status)
	}
}
