package health

import (
	"context"

	"github.com/arimxyer/vaultkeeper/internal/keychain"
)

// KeychainChecker checks whether the OS credential store is reachable,
// for CLI flows that offer to stash the master key there.
type KeychainChecker struct {
	vaultID string
}

// NewKeychainChecker creates a keychain checker scoped to vaultID ("" for
// the default vault).
func NewKeychainChecker(vaultID string) HealthChecker {
	return &KeychainChecker{vaultID: vaultID}
}

func (k *KeychainChecker) Name() string { return "keychain" }

func (k *KeychainChecker) Run(ctx context.Context) CheckResult {
	ks := keychain.New(k.vaultID)
	available := ks.IsAvailable()
	details := KeychainCheckDetails{Available: available}

	if !available {
		return CheckResult{
			Name:    k.Name(),
			Status:  CheckWarning,
			Message: "system keychain is not reachable; --use-keychain convenience flows are unavailable",
			Details: details,
		}
	}

	return CheckResult{Name: k.Name(), Status: CheckPass, Message: "system keychain is reachable", Details: details}
}
