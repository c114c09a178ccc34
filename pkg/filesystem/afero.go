package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/vendorsync/pkg/types"
	"github.com/spf13/afero"
)

// aferoFS implements types.FS using afero
type aferoFS struct {
	fs afero.Fs
}

// NewAferoFS creates a new afero filesystem implementation
func NewAferoFS(fs afero.Fs) types.FS {
	return &aferoFS{fs: fs}
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	info, err := a.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, name)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(a.fs, name, data, perm)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) CopyDir(src, dst string) error {
	return afero.Walk(a.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return a.fs.MkdirAll(target, info.Mode().Perm())
		}
		data, err := afero.ReadFile(a.fs, path)
		if err != nil {
			return err
		}
		return afero.WriteFile(a.fs, target, data, info.Mode().Perm())
	})
}

func (a *aferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}

func (a *aferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

// Rename moves directories by copy-and-remove since MemMapFs does not
// reliably carry a directory's children along on rename.
func (a *aferoFS) Rename(oldpath, newpath string) error {
	info, err := a.fs.Stat(oldpath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return a.fs.Rename(oldpath, newpath)
	}
	if err := a.CopyDir(oldpath, newpath); err != nil {
		return err
	}
	return a.fs.RemoveAll(oldpath)
}
