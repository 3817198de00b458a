package storage

import (
	"fmt"
	"io"
	"os"
)

// backup.go covers the automatic pre-save backup the atomic write
// protocol produces at <path>.backup, copied out by Save and restored by
// RestoreFromBackup in storage.go.

// copyFile copies src to dst with vault permissions, syncing before
// returning so the copy survives a crash immediately after.
func (s *StorageService) copyFile(src, dst string) error {
	srcFile, err := s.fs.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- backup path is derived internally from the vault path
	dstFile, err := s.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, VaultPermissions)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync destination file: %w", err)
	}

	return nil
}
