package dfvfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFileSystemCachesAndRefcounts(t *testing.T) {
	ctx := NewResolverContext()
	spec, err := New(FAKE, nil, nil)
	require.NoError(t, err)

	fs1, err := ResolveFileSystem(ctx, spec)
	require.NoError(t, err)
	fs2, err := ResolveFileSystem(ctx, spec)
	require.NoError(t, err)
	require.Same(t, fs1, fs2)

	require.NoError(t, ctx.ReleaseFileSystem(spec))
	require.NoError(t, ctx.ReleaseFileSystem(spec))
	require.Error(t, ctx.ReleaseFileSystem(spec))
}

func TestReleaseFileSystemClosesAtZeroRefcountByDefault(t *testing.T) {
	ctx := NewResolverContext()
	spec, err := New(FAKE, nil, nil)
	require.NoError(t, err)

	fs, err := ResolveFileSystem(ctx, spec)
	require.NoError(t, err)
	fakefs := fs.(*FakeFileSystem)

	require.NoError(t, ctx.ReleaseFileSystem(spec))
	require.True(t, fakefs.closed != 0)
}

func TestRetainKeepsFileSystemOpenAcrossRelease(t *testing.T) {
	ctx := NewResolverContext()
	ctx.Retain = true
	spec, err := New(FAKE, nil, nil)
	require.NoError(t, err)

	fs, err := ResolveFileSystem(ctx, spec)
	require.NoError(t, err)
	fakefs := fs.(*FakeFileSystem)

	require.NoError(t, ctx.ReleaseFileSystem(spec))
	require.Equal(t, int32(0), fakefs.closed)

	fs2, ok := ctx.GetFileSystem(spec)
	require.True(t, ok)
	require.Same(t, fs, fs2)

	require.NoError(t, ctx.Empty())
	require.True(t, fakefs.closed != 0)
}

func TestMountRoundTrip(t *testing.T) {
	ctx := NewResolverContext()
	target, err := New(FAKE, nil, nil)
	require.NoError(t, err)

	ctx.Mount("data", target)
	got, ok := ctx.ResolveMount("data")
	require.True(t, ok)
	require.True(t, got.Equal(target))

	_, ok = ctx.ResolveMount("missing")
	require.False(t, ok)
}
