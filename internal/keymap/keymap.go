// Package keymap turns put and get arguments into transfer items, mapping
// local paths to object keys and back.
package keymap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CESNET/bota/fs"
	"github.com/CESNET/bota/s3/s3types"
)

var (
	// ErrUnsupportedSource is returned when a put source is neither a file nor a directory.
	ErrUnsupportedSource = errors.New("only file or directory uploads are supported")

	// ErrTargetNotDirectory is returned when a prefix download targets something
	// other than an existing directory.
	ErrTargetNotDirectory = errors.New("when downloading a directory, target path must also be a directory")

	// ErrEmptySource is returned when a download prefix matches no objects or
	// an upload directory holds no files.
	ErrEmptySource = errors.New("source directory doesn't exist or is empty")
)

// Lister lists every object under a prefix.
type Lister interface {
	ListAll(ctx context.Context, bucket, prefix string) ([]s3types.Object, error)
}

// Mapper builds transfer items against a local filesystem.
type Mapper struct {
	fs fs.Filesystem
}

// New returns a Mapper over fsys.
func New(fsys fs.Filesystem) *Mapper {
	return &Mapper{fs: fsys}
}

// PutItems maps an upload source to items.
//
// A file becomes one item keyed by objName, or by its own path when objName
// is empty. A directory becomes one item per file below it, each keyed by
// its path, in lexical order; a directory with no files is an error. Leading
// and trailing slashes never reach a key.
func (m *Mapper) PutItems(source, objName string) ([]s3types.TransferItem, error) {
	info, err := m.fs.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}

	switch {
	case info.Mode().IsRegular():
		key := objName
		if key == "" {
			key = filepath.ToSlash(source)
		}
		return []s3types.TransferItem{{Source: source, Target: trimSlashes(key)}}, nil

	case info.IsDir():
		items, err := m.dirItems(source)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", source, err)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptySource, source)
		}
		return items, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}

// dirItems walks source, following it when it is a symlink. Keys are built
// from source as given, not from the link target. Symlinks below the root
// are included when they point at regular files; linked directories are not
// descended into.
func (m *Mapper) dirItems(source string) ([]s3types.TransferItem, error) {
	var (
		items []s3types.TransferItem
		root  string
	)
	err := m.fs.Walk(source, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if root == "" {
			root = path
		}

		switch {
		case fi.Mode().IsRegular():
		case fi.Mode()&os.ModeSymlink != 0:
			linked, statErr := m.fs.Stat(path)
			if statErr != nil || !linked.Mode().IsRegular() {
				return nil
			}
		default:
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		items = append(items, s3types.TransferItem{
			Source: path,
			Target: trimSlashes(filepath.ToSlash(filepath.Join(source, rel))),
		})
		return nil
	})
	return items, err
}

// GetItems maps a download request to items.
//
// An objName ending in "/" is a prefix: every object under it is downloaded
// to target (default "/") joined with its key, and target must be an existing
// directory written with a trailing separator. Any other objName is a single
// object saved to target, which defaults to the last key segment and gets
// that segment appended when it ends with a separator.
func (m *Mapper) GetItems(
	ctx context.Context,
	lister Lister,
	bucket, objName, target string,
) ([]s3types.TransferItem, error) {
	if !strings.HasSuffix(objName, "/") {
		name := lastSegment(objName)
		switch {
		case target == "":
			target = name
		case endsWithSeparator(target):
			target += name
		}
		return []s3types.TransferItem{{Source: objName, Target: target}}, nil
	}

	if target != "" {
		if !endsWithSeparator(target) {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotDirectory, target)
		}
		info, err := m.fs.Stat(target)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotDirectory, target)
		}
	} else {
		target = "/"
	}

	objects, err := lister.ListAll(ctx, bucket, objName)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySource, objName)
	}

	items := make([]s3types.TransferItem, 0, len(objects))
	for _, obj := range objects {
		items = append(items, s3types.TransferItem{
			Source: obj.Key,
			Target: target + filepath.FromSlash(obj.Key),
		})
	}
	return items, nil
}

func trimSlashes(s string) string {
	return strings.Trim(s, "/")
}

func lastSegment(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

func endsWithSeparator(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator))
}
