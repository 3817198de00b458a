package health

import (
	"context"

	"github.com/arimxyer/vaultkeeper/internal/storage"
)

// VaultChecker checks that the vault file exists and parses.
type VaultChecker struct {
	vaultPath string
}

// NewVaultChecker creates a vault checker for vaultPath.
func NewVaultChecker(vaultPath string) HealthChecker {
	return &VaultChecker{vaultPath: vaultPath}
}

func (v *VaultChecker) Name() string { return "vault" }

func (v *VaultChecker) Run(ctx context.Context) CheckResult {
	ss := storage.NewStorageService(v.vaultPath)
	details := VaultCheckDetails{Path: v.vaultPath, Exists: ss.Exists()}

	doc, err := ss.Load()
	if err != nil {
		details.Error = err.Error()
		return CheckResult{
			Name:           v.Name(),
			Status:         CheckError,
			Message:        "vault file exists but failed to parse",
			Recommendation: "restore from backup or re-initialize the vault",
			Details:        details,
		}
	}

	details.Keys = doc.Len()
	if !details.Exists {
		return CheckResult{
			Name:    v.Name(),
			Status:  CheckWarning,
			Message: "no vault file found at the configured path; one will be created on first write",
			Details: details,
		}
	}

	return CheckResult{
		Name:    v.Name(),
		Status:  CheckPass,
		Message: "vault file is present and parses correctly",
		Details: details,
	}
}
