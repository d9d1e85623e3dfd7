package billy

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	parentfs "github.com/CESNET/bota/fs"
)

func testMkdirAllStat(t *testing.T, fsys parentfs.Filesystem, root string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Join(root, "a/b/c"), 0o755))

	info, err := fsys.Stat(filepath.Join(root, "a/b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func testCreateWriteReadRemove(t *testing.T, fsys parentfs.Filesystem, root string) {
	t.Helper()
	p := filepath.Join(root, "file.txt")

	f, err := fsys.Create(p)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	b, err := fsys.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	ok, err := fsys.Exists(p)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, fsys.Remove(p))

	ok, err = fsys.Exists(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testSeekWrite(t *testing.T, fsys parentfs.Filesystem, root string) {
	t.Helper()
	p := filepath.Join(root, "seek.txt")

	f, err := fsys.Create(p)
	require.NoError(t, err)
	_, err = f.Seek(3, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("def"))
	require.NoError(t, err)
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	b, err := fsys.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(b))

	f, err = fsys.Open(p)
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.Size())
	require.NoError(t, f.Close())
}

func testMissingPath(t *testing.T, fsys parentfs.Filesystem, root string) {
	t.Helper()
	_, err := fsys.Stat(filepath.Join(root, "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, iofs.ErrNotExist))

	var pathErr *iofs.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.True(t, strings.HasSuffix(pathErr.Path, "missing"))

	_, err = fsys.Open(filepath.Join(root, "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, iofs.ErrNotExist))
}

func testWalk(t *testing.T, fsys parentfs.Filesystem, root string) {
	t.Helper()
	dir := filepath.Join(root, "walk")
	require.NoError(t, fsys.MkdirAll(filepath.Join(dir, "x/y"), 0o755))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "x/y/z.txt"), []byte("z"), 0o644))
	require.NoError(t, fsys.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))

	var files []string
	err := fsys.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return relErr
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "x/y/z.txt"}, files)
}

// runSuite runs a battery of consistency tests against a Filesystem impl.
func runSuite(t *testing.T, fsys parentfs.Filesystem, root string) {
	t.Helper()
	testMkdirAllStat(t, fsys, root)
	testCreateWriteReadRemove(t, fsys, root)
	testSeekWrite(t, fsys, root)
	testMissingPath(t, fsys, root)
	testWalk(t, fsys, root)
}

func TestInMemoryFS_Suite(t *testing.T) {
	runSuite(t, NewInMemoryFS(), "/")
}

func TestNativeFS_Suite(t *testing.T) {
	runSuite(t, NewNativeFS(), t.TempDir())
}

func TestOSFS_Suite(t *testing.T) {
	runSuite(t, NewOSFS(t.TempDir()), "/")
}

func TestWalk_SymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target", "nested", "f.txt"), []byte("f"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(dir, "target"), filepath.Join(dir, "hop1")))
	require.NoError(t, os.Symlink("hop1", filepath.Join(dir, "hop2")))

	var paths []string
	err := NewNativeFS().Walk(filepath.Join(dir, "hop2"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "target"),
		filepath.Join(dir, "target", "nested"),
		filepath.Join(dir, "target", "nested", "f.txt"),
	}, paths)
}

func TestWalk_LinkLoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Symlink("b", filepath.Join(dir, "a")))
	require.NoError(t, os.Symlink("a", filepath.Join(dir, "b")))

	err := NewNativeFS().Walk(filepath.Join(dir, "a"), func(path string, info os.FileInfo, err error) error {
		return err
	})
	require.Error(t, err)
	var pe *iofs.PathError
	assert.True(t, errors.As(err, &pe))
}

func TestNativeFS_RelativePaths(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	fsys := NewNativeFS()
	require.NoError(t, fsys.WriteFile("rel.txt", []byte("data"), 0o644))

	b, err := os.ReadFile(filepath.Join(dir, "rel.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))
}
