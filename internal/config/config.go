// Package config loads the CLI's persistent defaults (vault path, key
// file path, audit log path) from a YAML file via spf13/viper, so the
// driver does not need repeated --vault/--key-file flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the CLI's persistent default settings.
type Config struct {
	VaultPath    string `mapstructure:"vault_path"`
	KeyFilePath  string `mapstructure:"key_file_path"`
	AuditLogPath string `mapstructure:"audit_log_path"`

	LoadErrors []string `mapstructure:"-"`
}

// ValidationResult is the outcome of checking configuration correctness.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError is a validation error with context.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationWarning is a non-fatal validation warning.
type ValidationWarning struct {
	Field   string
	Message string
}

// GetDefaults returns the hardcoded default configuration.
func GetDefaults() *Config {
	return &Config{
		VaultPath:    filepath.Join(".vault", "secrets.yaml"),
		KeyFilePath:  "",
		AuditLogPath: filepath.Join(".vault", "audit.jsonl"),
		LoadErrors:   []string{},
	}
}

// GetConfigPath returns the OS-appropriate config file path, using
// os.UserConfigDir() with a home-directory fallback. VAULTKEEPER_CONFIG
// overrides both, for tests and power users.
func GetConfigPath() (string, error) {
	if envPath := os.Getenv("VAULTKEEPER_CONFIG"); envPath != "" {
		return envPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("cannot determine config directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".vaultkeeper")
	} else {
		configDir = filepath.Join(configDir, "vaultkeeper")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	return filepath.Join(configDir, "config.yml"), nil
}

// GetDefaultConfigTemplate returns the default config file content with
// explanatory comments, written by `init` on first run.
func GetDefaultConfigTemplate() string {
	return `# vaultkeeper configuration file.
# All settings are optional - missing values fall back to the defaults
# baked into the binary.

# Path to the vault file (default: .vault/secrets.yaml, relative to cwd)
vault_path: ".vault/secrets.yaml"

# Path to a raw 32-byte master-key file. If unset, the master key comes
# from VAULT_MASTER_KEY, VAULT_MASTER_KEY_FILE or ~/.vault/master.key.
key_file_path: ""

# Path to the append-only, HMAC-signed audit log.
audit_log_path: ".vault/audit.jsonl"
`
}

func detectUnknownFields(v *viper.Viper) []ValidationWarning {
	known := map[string]bool{"vault_path": true, "key_file_path": true, "audit_log_path": true}
	var warnings []ValidationWarning
	for _, key := range v.AllKeys() {
		if !known[key] {
			warnings = append(warnings, ValidationWarning{
				Field:   key,
				Message: fmt.Sprintf("unknown config key %q is ignored", key),
			})
		}
	}
	return warnings
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(configPath string) (*Config, *ValidationResult) {
	cfg := GetDefaults()
	result := &ValidationResult{Valid: true}

	if configPath == "" {
		return cfg, result
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, result
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		result.Errors = append(result.Errors, ValidationError{Field: "", Message: fmt.Sprintf("failed to read config: %v", err)})
		result.Valid = false
		return cfg, result
	}
	if err := v.Unmarshal(cfg); err != nil {
		result.Errors = append(result.Errors, ValidationError{Field: "", Message: fmt.Sprintf("failed to parse config: %v", err)})
		result.Valid = false
		return GetDefaults(), result
	}

	result.Warnings = append(result.Warnings, detectUnknownFields(v)...)
	return cfg, cfg.Validate(result)
}

// Load loads configuration from the default OS-appropriate location.
func Load() (*Config, *ValidationResult) {
	path, err := GetConfigPath()
	if err != nil {
		return GetDefaults(), &ValidationResult{
			Valid:    true,
			Warnings: []ValidationWarning{{Message: fmt.Sprintf("could not determine config path, using defaults: %v", err)}},
		}
	}
	return LoadFromPath(path)
}

// Validate checks c for obviously malformed path values, appending to
// an existing result so LoadFromPath can merge parse-time warnings in.
func (c *Config) Validate(result *ValidationResult) *ValidationResult {
	if result == nil {
		result = &ValidationResult{Valid: true}
	}
	for _, pv := range []struct {
		field string
		path  string
	}{
		{"vault_path", c.VaultPath},
		{"key_file_path", c.KeyFilePath},
		{"audit_log_path", c.AuditLogPath},
	} {
		if pv.path == "" {
			continue
		}
		if containsNullByte(pv.path) {
			result.Errors = append(result.Errors, ValidationError{Field: pv.field, Message: "path contains null byte"})
			result.Valid = false
		}
	}
	return result
}

func containsNullByte(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\x00' {
			return true
		}
	}
	return false
}
