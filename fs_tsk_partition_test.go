package dfvfs

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestMBRImage(t *testing.T, path string, startSector, numSectors uint32) {
	t.Helper()
	buf := make([]byte, 1<<20)
	entry := buf[mbrPartitionOffset : mbrPartitionOffset+mbrEntrySize]
	entry[4] = 0x83
	binary.LittleEndian.PutUint32(entry[8:12], startSector)
	binary.LittleEndian.PutUint32(entry[12:16], numSectors)
	buf[mbrSignatureOffset] = 0x55
	buf[mbrSignatureOffset+1] = 0xAA
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func TestTSKPartitionEnumeratesAndReads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.raw")
	writeTestMBRImage(t, path, 1, 10)

	ctx := NewResolverContext()
	osSpec, err := New(OS, nil, map[string]interface{}{"location": path})
	require.NoError(t, err)
	rawSpec, err := New(RAW, osSpec, nil)
	require.NoError(t, err)

	partSpec, err := New(TSKPartition, rawSpec, map[string]interface{}{"location": "/p1"})
	require.NoError(t, err)

	fs, err := ResolveFileSystem(ctx, partSpec)
	require.NoError(t, err)

	root, err := fs.GetRootFileEntry()
	require.NoError(t, err)
	children, err := root.SubFileEntries()
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "p1", children[0].Name())

	obj, err := ResolveFileObject(ctx, partSpec)
	require.NoError(t, err)
	size, err := obj.GetSize()
	require.NoError(t, err)
	require.Equal(t, int64(10*512), size)
}
