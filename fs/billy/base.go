package billy

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// nativeFS is a billy.Filesystem that resolves paths exactly like the
// operating system does, so relative paths are relative to the working
// directory rather than to a chroot.
type nativeFS struct {
	osfs.ChrootOS
}

//nolint:ireturn // signature is dictated by billy.Chroot.
func (n *nativeFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

func (n *nativeFS) Root() string {
	return "/"
}

// NewNativeFS creates a filesystem backed by the operating system that
// accepts both absolute and working-directory-relative paths.
func NewNativeFS() *FS {
	return &FS{fs: &nativeFS{}}
}
