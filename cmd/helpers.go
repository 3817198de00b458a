package cmd

import (
	"os"

	"github.com/arimxyer/vaultkeeper/internal/keychain"
	"github.com/arimxyer/vaultkeeper/internal/vault"
	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

// useKeychainFlag is shared by init/rotate/commands that cache the
// master key in the OS credential store.
var useKeychainFlag bool

// openVault constructs a Vault from the resolved flag/config paths,
// retrieving a keychain-cached key first when the current command was
// run with --use-keychain (only init and rotate define that flag; other
// commands never consult the keychain). It always funnels whatever key it finds
// through the direct-bytes constructor parameter, never altering the
// library's own five-step resolution order.
func openVault() (*vault.Vault, error) {
	opts := vault.Options{
		VaultPath:    resolvedVaultPath(),
		KeyFilePath:  resolvedKeyFilePath(),
		AuditLogPath: resolvedAuditLogPath(),
	}

	if useKeychainFlag {
		ks := keychain.New(vaultIDFor(opts.VaultPath))
		if key, err := ks.Retrieve(); err == nil {
			opts.MasterKey = key
		}
	}

	return vault.Open(opts)
}

// openVaultWithKey opens (or creates) the vault at vaultPath using an
// explicit master key, bypassing the keychain convenience entirely. Used
// by init and rotate, which already have the key in hand.
func openVaultWithKey(key []byte, vaultPath string) (*vault.Vault, error) {
	return vault.Open(vault.Options{
		MasterKey:    key,
		VaultPath:    vaultPath,
		AuditLogPath: resolvedAuditLogPath(),
	})
}

// vaultIDFor derives a stable keychain account suffix from a vault path.
func vaultIDFor(vaultPath string) string {
	if vaultPath == "" {
		return ""
	}
	return vaultPath
}

func printSuccess(format string, args ...interface{}) {
	successColor.Fprintf(os.Stdout, format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	warnColor.Fprintf(os.Stderr, format+"\n", args...)
}

func fatalf(format string, args ...interface{}) {
	printError(format, args...)
	os.Exit(1)
}
