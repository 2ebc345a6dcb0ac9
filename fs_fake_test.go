package dfvfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeFileSystemEndToEnd(t *testing.T) {
	fake := NewFakeFileSystem()

	dirType := TypeDirectory
	fileType := TypeFile
	linkType := TypeLink

	require.NoError(t, fake.AddFileEntry("/a", VFSStat{Type: &dirType}, nil, ""))
	require.NoError(t, fake.AddFileEntry("/a/f1", VFSStat{Type: &fileType}, []byte("hello"), ""))
	require.NoError(t, fake.AddFileEntry("/a/f2", VFSStat{Type: &fileType}, []byte("world"), ""))
	require.NoError(t, fake.AddFileEntry("/a/f3", VFSStat{Type: &fileType}, []byte("!"), ""))
	require.NoError(t, fake.AddFileEntry("/a/f4", VFSStat{Type: &fileType}, []byte("?"), ""))
	require.NoError(t, fake.AddFileEntry("/a/link1", VFSStat{Type: &linkType}, nil, "/a/f1"))

	ctx := NewResolverContext()
	spec, err := New(FAKE, nil, map[string]interface{}{"location": "/a"})
	require.NoError(t, err)

	entry, err := fake.GetFileEntryByPathSpec(spec)
	require.NoError(t, err)
	require.NotNil(t, entry)

	count, err := entry.NumberOfSubFileEntries()
	require.NoError(t, err)
	require.Equal(t, 5, count)

	link, err := entry.GetSubFileEntryByName("link1", true)
	require.NoError(t, err)
	require.NotNil(t, link)
	require.True(t, link.IsLink())
	require.Equal(t, "/a/f1", link.Link())

	f1Spec, err := New(FAKE, nil, map[string]interface{}{"location": "/a/f1"})
	require.NoError(t, err)
	// The FAKE opener builds a fresh, empty file system for an uncached spec,
	// so the populated one is cached under f1Spec for the object opener to find.
	ctx.CacheFileSystem(f1Spec, fake)
	obj, err := openFakeFileObject(ctx, f1Spec)
	require.NoError(t, err)
	data, err := obj.Read(-1)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestFakeFileSystemRejectsDuplicatePath(t *testing.T) {
	fake := NewFakeFileSystem()
	fileType := TypeFile
	require.NoError(t, fake.AddFileEntry("/x", VFSStat{Type: &fileType}, nil, ""))
	err := fake.AddFileEntry("/x", VFSStat{Type: &fileType}, nil, "")
	require.Error(t, err)
}

func TestFakeFileSystemRejectsDataOnNonFile(t *testing.T) {
	fake := NewFakeFileSystem()
	dirType := TypeDirectory
	err := fake.AddFileEntry("/d", VFSStat{Type: &dirType}, []byte("nope"), "")
	require.Error(t, err)
}

func TestFakeFileSystemCaseInsensitiveFallback(t *testing.T) {
	fake := NewFakeFileSystem()
	dirType := TypeDirectory
	fileType := TypeFile
	require.NoError(t, fake.AddFileEntry("/a", VFSStat{Type: &dirType}, nil, ""))
	require.NoError(t, fake.AddFileEntry("/a/Report.TXT", VFSStat{Type: &fileType}, []byte("x"), ""))

	spec, _ := New(FAKE, nil, map[string]interface{}{"location": "/a"})
	entry, err := fake.GetFileEntryByPathSpec(spec)
	require.NoError(t, err)

	exact, err := entry.GetSubFileEntryByName("Report.TXT", true)
	require.NoError(t, err)
	require.NotNil(t, exact)

	fallback, err := entry.GetSubFileEntryByName("report.txt", false)
	require.NoError(t, err)
	require.NotNil(t, fallback)

	notFound, err := entry.GetSubFileEntryByName("report.txt", true)
	require.NoError(t, err)
	require.Nil(t, notFound)
}
