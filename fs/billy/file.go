package billy

import (
	"errors"
	"io"
	"io/fs"

	"github.com/go-git/go-billy/v5"
)

// File is an open local file used as an upload source or a download target.
type File struct {
	file billy.File
	fs   *FS
}

// pathError reports a failed file operation the way the os package does, so
// callers can print the bare cause next to the path.
func (f *File) pathError(op string, err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return err
	}
	return &fs.PathError{Op: op, Path: f.file.Name(), Err: err}
}

func (f *File) Name() string {
	return f.file.Name()
}

func (f *File) Close() error {
	if err := f.file.Close(); err != nil {
		return f.pathError("close", err)
	}
	return nil
}

// Read and ReadAt return io.EOF unwrapped.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.file.Read(p)
	if err != nil && err != io.EOF {
		return n, f.pathError("read", err)
	}
	return n, err
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	n, err := f.file.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, f.pathError("read", err)
	}
	return n, err
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.file.Seek(offset, whence)
	if err != nil {
		return pos, f.pathError("seek", err)
	}
	return pos, nil
}

func (f *File) Write(p []byte) (int, error) {
	n, err := f.file.Write(p)
	if err != nil {
		return n, f.pathError("write", err)
	}
	return n, nil
}

// Stat goes through the owning filesystem; billy files cannot stat themselves.
func (f *File) Stat() (fs.FileInfo, error) {
	info, err := f.fs.Stat(f.file.Name())
	if err != nil {
		return nil, f.pathError("stat", err)
	}
	return info, nil
}
