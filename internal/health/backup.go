package health

import (
	"context"
	"os"

	"github.com/arimxyer/vaultkeeper/internal/crypto"
	"github.com/arimxyer/vaultkeeper/internal/storage"
	"github.com/arimxyer/vaultkeeper/internal/versionstore"
)

// BackupChecker checks that the vault's backup file exists, parses, and
// that the latest version of every key in it decrypts under the live
// master key.
type BackupChecker struct {
	backupPath string
	masterKey  []byte
}

// NewBackupChecker creates a backup checker for vaultPath's companion
// backup file. masterKey may be nil, in which case decryptability is
// skipped and reported as a warning rather than an error.
func NewBackupChecker(vaultPath string, masterKey []byte) HealthChecker {
	return &BackupChecker{backupPath: vaultPath + storage.BackupSuffix, masterKey: masterKey}
}

func (b *BackupChecker) Name() string { return "backup" }

func (b *BackupChecker) Run(ctx context.Context) CheckResult {
	details := BackupCheckDetails{Path: b.backupPath}

	data, err := os.ReadFile(b.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Name:    b.Name(),
				Status:  CheckWarning,
				Message: "no backup file yet; one is created on the first save after the initial write",
				Details: details,
			}
		}
		details.Error = err.Error()
		return CheckResult{Name: b.Name(), Status: CheckError, Message: "backup file could not be read", Details: details}
	}
	details.Exists = true

	doc, err := storage.DocumentFromYAML(data)
	if err != nil {
		details.Error = err.Error()
		return CheckResult{
			Name:           b.Name(),
			Status:         CheckError,
			Message:        "backup file exists but failed to parse",
			Recommendation: "investigate before relying on this backup for recovery",
			Details:        details,
		}
	}

	if len(b.masterKey) == 0 {
		return CheckResult{
			Name:    b.Name(),
			Status:  CheckWarning,
			Message: "backup file parses, but no master key was available to verify decryptability",
			Details: details,
		}
	}

	store := versionstore.FromDocument(doc)
	cs := crypto.NewCryptoService()
	decryptable := true
	for _, key := range store.GetAllKeys() {
		sv, ok := store.GetVersion(key, nil)
		if !ok {
			continue
		}
		if _, err := versionstore.DecryptBlob(cs, sv.Encrypted, b.masterKey); err != nil {
			decryptable = false
			details.Error = err.Error()
			break
		}
	}
	details.Decryptable = decryptable

	if !decryptable {
		return CheckResult{
			Name:           b.Name(),
			Status:         CheckError,
			Message:        "backup file does not decrypt under the live master key",
			Recommendation: "this backup will not help recover from rotation or tampering with the current key",
			Details:        details,
		}
	}

	return CheckResult{
		Name:    b.Name(),
		Status:  CheckPass,
		Message: "backup file is present and decrypts under the live master key",
		Details: details,
	}
}
