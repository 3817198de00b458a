package storage

import (
	"os"
	"path/filepath"
)

// spyFileSystem wraps the real OS filesystem but fails every rename on
// demand, so tests can exercise the atomic-write protocol's
// crash-between-write-and-rename recovery path.
type spyFileSystem struct {
	realFS *osFileSystem

	failAllRenames bool
}

// NewSpyFileSystem creates a filesystem that delegates to the real OS but
// can be told to fail every rename.
func NewSpyFileSystem() *spyFileSystem {
	return &spyFileSystem{realFS: &osFileSystem{}}
}

func (s *spyFileSystem) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return s.realFS.OpenFile(name, flag, perm)
}

func (s *spyFileSystem) ReadFile(name string) ([]byte, error) {
	return s.realFS.ReadFile(name)
}

func (s *spyFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return s.realFS.WriteFile(name, data, perm)
}

func (s *spyFileSystem) Remove(name string) error {
	return s.realFS.Remove(name)
}

func (s *spyFileSystem) Rename(oldpath, newpath string) error {
	if s.failAllRenames {
		return os.ErrPermission
	}
	return s.realFS.Rename(oldpath, newpath)
}

func (s *spyFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return s.realFS.MkdirAll(path, perm)
}

func (s *spyFileSystem) Stat(name string) (os.FileInfo, error) {
	return s.realFS.Stat(name)
}

func (s *spyFileSystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
