package dfvfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataRangeWindowsParentStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789ABCDEF"), 0o644))

	ctx := NewResolverContext()
	osSpec, err := New(OS, nil, map[string]interface{}{"location": path})
	require.NoError(t, err)

	rangeSpec, err := New(DataRange, osSpec, map[string]interface{}{"range_offset": 4, "range_size": 6})
	require.NoError(t, err)

	obj, err := ResolveFileObject(ctx, rangeSpec)
	require.NoError(t, err)

	data, err := obj.Read(-1)
	require.NoError(t, err)
	require.Equal(t, "456789", string(data))

	size, err := obj.GetSize()
	require.NoError(t, err)
	require.Equal(t, int64(6), size)
}
