package types

import (
	"io/fs"
)

// FS abstracts the filesystem operations the update steps perform on the
// target tree. Git itself always works on the real disk; everything vendorsync
// reads or rewrites directly goes through this interface.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	CopyDir(src, dst string) error

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}
