// Package billy adapts go-billy filesystems to the fs.Filesystem interface.
//
// Errors are reported as *fs.PathError so callers can print the cause and the
// path separately, and missing paths always match fs.ErrNotExist.
package billy

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/CESNET/bota/fs"
)

// FS is a fs.Filesystem backed by a go-billy filesystem.
type FS struct {
	fs billy.Filesystem
}

var _ fs.Filesystem = (*FS)(nil)

func pathError(op, path string, err error) error {
	var pe *iofs.PathError
	if errors.As(err, &pe) {
		return err
	}
	return &iofs.PathError{Op: op, Path: path, Err: err}
}

//nolint:ireturn // API returns the fs.File interface.
func (b *FS) Create(name string) (fs.File, error) {
	f, err := b.fs.Create(name)
	if err != nil {
		return nil, pathError("create", name, err)
	}
	return &File{file: f, fs: b}, nil
}

//nolint:ireturn // API returns the fs.File interface.
func (b *FS) Open(name string) (fs.File, error) {
	f, err := b.fs.Open(name)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	return &File{file: f, fs: b}, nil
}

// Exists reports whether path exists. Only errors other than a missing path
// are returned.
func (b *FS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, iofs.ErrNotExist):
		return false, nil
	default:
		return false, pathError("stat", path, err)
	}
}

func (b *FS) Stat(name string) (os.FileInfo, error) {
	info, err := b.fs.Stat(name)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return info, nil
}

func (b *FS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return pathError("mkdir", path, err)
	}
	return nil
}

func (b *FS) Remove(name string) error {
	if err := b.fs.Remove(name); err != nil {
		return pathError("remove", name, err)
	}
	return nil
}

func (b *FS) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, pathError("read", path, err)
	}
	return data, nil
}

func (b *FS) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := util.WriteFile(b.fs, filename, data, perm); err != nil {
		return pathError("write", filename, err)
	}
	return nil
}

// maxLinkHops bounds symlink resolution of a walk root.
const maxLinkHops = 40

// Walk visits root and everything below it in lexical order. A symlinked root
// is resolved first and walked under its target path; entries below the root
// are reported as Lstat sees them. Errors returned by walkFn are passed
// through unchanged.
func (b *FS) Walk(root string, walkFn filepath.WalkFunc) error {
	resolved, err := b.resolveLink(root)
	if err != nil {
		return walkFn(root, nil, err)
	}
	return util.Walk(b.fs, resolved, walkFn)
}

// resolveLink follows path while it names a symlink.
func (b *FS) resolveLink(path string) (string, error) {
	path = filepath.Clean(path)
	for range maxLinkHops {
		info, err := b.fs.Lstat(path)
		if err != nil {
			return "", pathError("lstat", path, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}

		target, err := b.fs.Readlink(path)
		if err != nil {
			return "", pathError("readlink", path, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = filepath.Clean(target)
	}
	return "", pathError("walk", path, errors.New("too many levels of symbolic links"))
}

// NewFS wraps an existing go-billy filesystem.
func NewFS(fsys billy.Filesystem) *FS {
	return &FS{fs: fsys}
}

// NewInMemoryFS returns an empty in-memory filesystem.
func NewInMemoryFS() *FS {
	return &FS{fs: memfs.New()}
}

// NewOSFS returns a filesystem rooted at path; every path is resolved
// inside it.
func NewOSFS(path string) *FS {
	return &FS{fs: osfs.New(path)}
}
