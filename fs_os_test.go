package dfvfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOSFileSystemReadsRealFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi there"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	ctx := NewResolverContext()
	rootSpec, err := New(OS, nil, map[string]interface{}{"location": dir})
	require.NoError(t, err)

	fs, err := ResolveFileSystem(ctx, rootSpec)
	require.NoError(t, err)

	root, err := fs.GetFileEntryByPathSpec(rootSpec)
	require.NoError(t, err)
	require.True(t, root.IsDirectory())

	children, err := root.SubFileEntries()
	require.NoError(t, err)
	require.Len(t, children, 2)

	fileSpec, err := New(OS, nil, map[string]interface{}{"location": filepath.Join(dir, "hello.txt")})
	require.NoError(t, err)
	fileEntry, err := fs.GetFileEntryByPathSpec(fileSpec)
	require.NoError(t, err)
	require.True(t, fileEntry.IsFile())

	stat, err := fileEntry.GetStat()
	require.NoError(t, err)
	require.Equal(t, int64(8), *stat.Size)

	obj, err := ResolveFileObject(ctx, fileSpec)
	require.NoError(t, err)
	data, err := obj.Read(-1)
	require.NoError(t, err)
	require.Equal(t, "hi there", string(data))
}

func TestOSFileSystemMissingFileIsNilEntry(t *testing.T) {
	dir := t.TempDir()
	ctx := NewResolverContext()
	spec, err := New(OS, nil, map[string]interface{}{"location": filepath.Join(dir, "missing.txt")})
	require.NoError(t, err)

	fs, err := ResolveFileSystem(ctx, spec)
	require.NoError(t, err)

	entry, err := fs.GetFileEntryByPathSpec(spec)
	require.NoError(t, err)
	require.Nil(t, entry)
}
