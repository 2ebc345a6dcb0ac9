package dfvfs

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodedStreamBase64RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "encoded.b64")
	encoded := base64.StdEncoding.EncodeToString([]byte("top secret"))
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

	ctx := NewResolverContext()
	osSpec, err := New(OS, nil, map[string]interface{}{"location": path})
	require.NoError(t, err)
	streamSpec, err := New(EncodedStream, osSpec, map[string]interface{}{"encoding_method": "base64"})
	require.NoError(t, err)

	obj, err := ResolveFileObject(ctx, streamSpec)
	require.NoError(t, err)
	data, err := obj.Read(-1)
	require.NoError(t, err)
	require.Equal(t, "top secret", string(data))
}

func TestRot13RoundTrip(t *testing.T) {
	require.Equal(t, []byte("hello"), rot13(rot13([]byte("hello"))))
	require.Equal(t, "uryyb", string(rot13([]byte("hello"))))
}

func TestEncodedStreamRejectsUnknownMethod(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	ctx := NewResolverContext()
	osSpec, _ := New(OS, nil, map[string]interface{}{"location": path})
	streamSpec, err := New(EncodedStream, osSpec, map[string]interface{}{"encoding_method": "uuencode"})
	require.NoError(t, err)

	_, err = ResolveFileSystem(ctx, streamSpec)
	require.Error(t, err)
	require.Equal(t, "unsupported", err.(*UnsupportedError).Kind())
}
