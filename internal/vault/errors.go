package vault

import "errors"

// Canonical error kinds surfaced at the Vault boundary. Crypto, Storage
// and VersionStore raise their own package-local sentinels internally;
// Vault translates those into this taxonomy on the way out.
var (
	ErrMasterKeyNotFound = errors.New("no master key source yielded a 32-byte key")
	ErrSecretNotFound    = errors.New("secret not found")
	ErrKeyLength         = errors.New("master key must be exactly 32 bytes")
	ErrAuthentication    = errors.New("authentication failed")
	ErrMalformedBlob     = errors.New("malformed encrypted blob")
	ErrCorruptedVault    = errors.New("vault file is corrupted")
	ErrIO                = errors.New("i/o error")
	ErrRotation          = errors.New("rotation aborted")
	ErrVault             = errors.New("vault error")
)
