package storage

import "errors"

const (
	// VaultPermissions restricts the vault file to owner read/write.
	VaultPermissions = 0600
	// BackupSuffix names the automatic pre-save backup copy.
	BackupSuffix = ".backup"
)

var (
	// ErrVaultCorrupted indicates the vault file could not be parsed.
	ErrVaultCorrupted = errors.New("vault file is corrupted")
	// ErrInvalidVaultPath indicates an empty or otherwise unusable vault path.
	ErrInvalidVaultPath = errors.New("invalid vault path")
	// ErrBackupFailed indicates a backup copy or restore operation failed.
	ErrBackupFailed = errors.New("backup operation failed")
	// ErrVerificationFailed indicates the freshly written temp file failed re-parse verification.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrDiskSpaceExhausted indicates the temp file write failed for a non-permission reason.
	ErrDiskSpaceExhausted = errors.New("insufficient disk space")
	// ErrPermissionDenied indicates the process lacks rights to write the vault directory.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrFilesystemNotAtomic indicates the rename step failed (e.g. cross-device rename).
	ErrFilesystemNotAtomic = errors.New("filesystem does not support atomic operations")
	// ErrIoError is the generic filesystem-operation failure kind (spec.md §7).
	ErrIoError = errors.New("i/o error")
)
