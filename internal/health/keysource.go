package health

import (
	"context"

	"github.com/arimxyer/vaultkeeper/internal/vault"
)

// KeySourceChecker checks that a master key resolves via the same
// five-step order the Vault constructor uses, without writing anything.
type KeySourceChecker struct {
	opts CheckOptions
}

// NewKeySourceChecker creates a key-source checker from the same
// options the caller would pass when actually opening the vault.
func NewKeySourceChecker(opts CheckOptions) HealthChecker {
	return &KeySourceChecker{opts: opts}
}

func (k *KeySourceChecker) Name() string { return "key_source" }

func (k *KeySourceChecker) Run(ctx context.Context) CheckResult {
	details := KeySourceCheckDetails{}
	noSave := false

	v, err := vault.Open(vault.Options{
		MasterKey:    k.opts.MasterKey,
		KeyFilePath:  k.opts.KeyFilePath,
		VaultPath:    k.opts.VaultPath,
		AuditLogPath: "", // diagnostic probe only, never touches the real audit trail
		AutoSave:     &noSave,
	})
	if err != nil {
		details.Error = err.Error()
		return CheckResult{
			Name:           k.Name(),
			Status:         CheckError,
			Message:        "no master key source resolved",
			Recommendation: "set VAULT_MASTER_KEY, pass a key file, or place one at ~/.vault/master.key",
			Details:        details,
		}
	}
	v.Close()

	details.Resolved = true
	return CheckResult{Name: k.Name(), Status: CheckPass, Message: "a master key resolves", Details: details}
}
