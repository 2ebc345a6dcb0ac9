package dfvfs

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeVShadowHandle is a minimal EnumeratingImageHandle standing in for a
// libvshadow binding in tests, grounded on the same in-memory-driver idiom
// fs_gzip.go's gzipDriver uses for a real format.
type fakeVShadowHandle struct {
	entries []VolumeEntry
}

func (h *fakeVShadowHandle) ReadAt(b []byte, off int64) (int, error) { return 0, nil }
func (h *fakeVShadowHandle) Size() (int64, error)                     { return 0, nil }
func (h *fakeVShadowHandle) Close() error                             { return nil }
func (h *fakeVShadowHandle) List() ([]VolumeEntry, error)             { return h.entries, nil }
func (h *fakeVShadowHandle) OpenEntry(identifier string) (ImageHandle, error) {
	return &bytesImageHandle{}, nil
}

type fakeVShadowDriver struct {
	entries []VolumeEntry
}

func (d fakeVShadowDriver) Open(source io.ReaderAt, size int64, credentials map[string][]byte) (ImageHandle, error) {
	return &fakeVShadowHandle{entries: d.entries}, nil
}

func TestVShadowEnumeratesStoresWithCreationTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.raw")
	require.NoError(t, os.WriteFile(path, make([]byte, 512), 0o644))

	// 2021-01-01T00:00:00Z as a Windows FILETIME.
	wantTime := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	filetime := (wantTime.Unix() + windowsEpochOffsetSeconds) * 10_000_000

	RegisterDriver(VShadow, fakeVShadowDriver{entries: []VolumeEntry{
		{Name: "vss1", Identifier: "store-1", Size: 4096, IsAllocated: true, CreationTime: filetime},
	}})

	ctx := NewResolverContext()
	osSpec, err := New(OS, nil, map[string]interface{}{"location": path})
	require.NoError(t, err)
	rawSpec, err := New(RAW, osSpec, nil)
	require.NoError(t, err)
	vssSpec, err := New(VShadow, rawSpec, map[string]interface{}{"location": "/vss1"})
	require.NoError(t, err)

	fs, err := ResolveFileSystem(ctx, vssSpec)
	require.NoError(t, err)

	entry, err := fs.GetFileEntryByPathSpec(vssSpec)
	require.NoError(t, err)
	require.NotNil(t, entry)

	stat, err := entry.GetStat()
	require.NoError(t, err)
	require.NotNil(t, stat.CRTime)
	require.True(t, wantTime.Equal(*stat.CRTime), "got %v want %v", stat.CRTime, wantTime)

	require.NoError(t, ctx.ReleaseFileSystem(vssSpec))
}
