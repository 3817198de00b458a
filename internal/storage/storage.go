// Package storage implements the atomic, lock-protected persistence
// backend for a single vault file: load/save of a Document, automatic
// pre-save backups, and restore-from-backup.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystem abstracts the filesystem calls StorageService makes, so
// tests can inject failure-injecting or in-memory implementations
// instead of touching the real disk.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Remove(name string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	Stat(name string) (os.FileInfo, error)
	Glob(pattern string) ([]string, error)
}

// osFileSystem is the real, disk-backed FileSystem.
type osFileSystem struct{}

// NewOSFileSystem returns a FileSystem backed by the os package.
func NewOSFileSystem() FileSystem {
	return &osFileSystem{}
}

func (f *osFileSystem) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	// #nosec G304 -- vault/backup/temp paths are operator-configured, not attacker input
	return os.OpenFile(name, flag, perm)
}

func (f *osFileSystem) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- vault/backup/temp paths are operator-configured, not attacker input
	return os.ReadFile(name)
}

func (f *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (f *osFileSystem) Remove(name string) error {
	return os.Remove(name)
}

func (f *osFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (f *osFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (f *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (f *osFileSystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// StorageService reads and writes a Document at a single path on the
// local filesystem.
type StorageService struct {
	vaultPath string
	fs        FileSystem
}

// NewStorageService returns a StorageService backed by the real OS
// filesystem.
func NewStorageService(vaultPath string) *StorageService {
	return &StorageService{
		vaultPath: vaultPath,
		fs:        NewOSFileSystem(),
	}
}

// NewStorageServiceWithFS returns a StorageService backed by fs, for
// testing against a simulated or failure-injecting filesystem.
func NewStorageServiceWithFS(vaultPath string, fs FileSystem) *StorageService {
	return &StorageService{vaultPath: vaultPath, fs: fs}
}

// Path returns the vault file path this service operates on.
func (s *StorageService) Path() string {
	return s.vaultPath
}

// Exists reports whether the vault file is present.
func (s *StorageService) Exists() bool {
	_, err := s.fs.Stat(s.vaultPath)
	return err == nil
}

// Load reads and parses the vault file under a shared advisory lock. A
// missing file is not an error: it yields an empty Document.
func (s *StorageService) Load() (*Document, error) {
	if !s.Exists() {
		return NewDocument(), nil
	}

	// #nosec G304 -- vaultPath is operator-configured, not attacker input
	file, err := s.fs.OpenFile(s.vaultPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIoError, err)
	}
	defer func() { _ = file.Close() }()

	if err := lockShared(file); err == nil {
		defer func() { _ = unlockFile(file) }()
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIoError, err)
	}

	doc, err := DocumentFromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVaultCorrupted, err)
	}
	return doc, nil
}

// Save persists doc using the atomic write protocol: backup the current
// file (non-fatal on failure), write to a temp file under an exclusive
// lock, verify it re-parses, then atomically rename over the target.
func (s *StorageService) Save(doc *Document) error {
	if s.vaultPath == "" {
		return ErrInvalidVaultPath
	}

	dir := filepath.Dir(s.vaultPath)
	if err := s.fs.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: failed to create vault directory: %v", ErrIoError, err)
	}

	if s.Exists() {
		if err := s.copyFile(s.vaultPath, s.vaultPath+BackupSuffix); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to back up vault file before save: %v\n", err)
		}
	}

	data, err := doc.ToYAML()
	if err != nil {
		return fmt.Errorf("failed to serialize vault document: %w", err)
	}

	tempPath := s.generateTempFileName()
	if err := s.writeToTempFile(tempPath, data); err != nil {
		_ = s.cleanupTempFile(tempPath)
		return err
	}

	if err := s.verifyTempFile(tempPath); err != nil {
		_ = s.cleanupTempFile(tempPath)
		return err
	}

	if err := s.atomicRename(tempPath, s.vaultPath); err != nil {
		_ = s.cleanupTempFile(tempPath)
		return err
	}

	s.cleanupOrphanedTempFiles(tempPath)
	return nil
}

// Delete removes the vault file. Missing file is not an error.
func (s *StorageService) Delete() error {
	if !s.Exists() {
		return nil
	}
	if err := s.fs.Remove(s.vaultPath); err != nil {
		return fmt.Errorf("%w: %v", ErrIoError, err)
	}
	return nil
}

// RestoreFromBackup atomically copies <path>.backup back over the vault
// file. Reports false, nil if no backup exists.
func (s *StorageService) RestoreFromBackup() (bool, error) {
	backupPath := s.vaultPath + BackupSuffix
	if _, err := s.fs.Stat(backupPath); err != nil {
		return false, nil
	}

	tempPath := s.generateTempFileName()
	if err := s.copyFile(backupPath, tempPath); err != nil {
		_ = s.cleanupTempFile(tempPath)
		return false, fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	if err := s.atomicRename(tempPath, s.vaultPath); err != nil {
		_ = s.cleanupTempFile(tempPath)
		return false, fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}

	return true, nil
}
