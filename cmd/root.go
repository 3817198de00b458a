// Package cmd implements the vaultkeeper CLI driver: a thin cobra layer
// over internal/vault. Every master-key resolution goes through the
// library's own five-step order; this package only adds terminal
// conveniences (hidden input, clipboard, colorized status, QR codes,
// OS keychain caching) around it.
package cmd

import (
	"fmt"
	"os"

	"github.com/arimxyer/vaultkeeper/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool

	vaultPathFlag   string
	keyFilePathFlag string
	auditPathFlag   string

	rootCmd = &cobra.Command{
		Use:   "vaultkeeper",
		Short: "A local, file-backed secrets vault",
		Long: `vaultkeeper stores named secret values under authenticated encryption,
keeps a full version history per name, supports atomic master-key
rotation, and records an append-only, tamper-evident audit trail of
every operation.

Examples:
  # Initialize a new vault and print the generated master key
  vaultkeeper init

  # Store a secret
  vaultkeeper set DB_URL --stdin

  # Retrieve it
  vaultkeeper get DB_URL

  # Rotate the master key
  vaultkeeper rotate`,
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default <user config dir>/vaultkeeper/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&vaultPathFlag, "vault", "", "path to the vault file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&keyFilePathFlag, "key-file", "", "path to the master key file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&auditPathFlag, "audit-log", "", "path to the audit log (overrides config)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "vault", Title: "Vault Management:"},
		&cobra.Group{ID: "secrets", Title: "Secret Operations:"},
	)
}

func initConfig() {
	if cfgFile != "" {
		// config.Load reads its path from VAULTKEEPER_CONFIG.
		_ = os.Setenv("VAULTKEEPER_CONFIG", cfgFile)
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err == nil && verbose {
			fmt.Fprintf(os.Stderr, "using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}

// resolvedVaultPath returns the effective vault path: flag, then config,
// then the library's own default (.vault/secrets.yaml).
func resolvedVaultPath() string {
	if vaultPathFlag != "" {
		return vaultPathFlag
	}
	cfg, _ := config.Load()
	if cfg.VaultPath != "" {
		return cfg.VaultPath
	}
	return ""
}

func resolvedKeyFilePath() string {
	if keyFilePathFlag != "" {
		return keyFilePathFlag
	}
	cfg, _ := config.Load()
	return cfg.KeyFilePath
}

func resolvedAuditLogPath() string {
	if auditPathFlag != "" {
		return auditPathFlag
	}
	cfg, _ := config.Load()
	if cfg.AuditLogPath != "" {
		return cfg.AuditLogPath
	}
	return ""
}
