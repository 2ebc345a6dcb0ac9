package dfvfs

import (
	"bytes"
	"crypto/sha256"
	"hash"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

// fakeBDEDriver simulates libbde's behavior of validating the derived key
// against the volume's metadata: only wantKey unlocks successfully.
type fakeBDEDriver struct {
	wantKey []byte
}

func (d fakeBDEDriver) Open(source io.ReaderAt, size int64, credentials map[string][]byte) (ImageHandle, error) {
	if !bytes.Equal(credentials["derived_key"], d.wantKey) {
		return nil, &BackEndError{Message: "BDE volume key mismatch"}
	}
	return &bytesImageHandle{data: []byte("decrypted")}, nil
}

func TestBDEWrongPasswordIsAccessDenied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volume.bde")
	require.NoError(t, os.WriteFile(path, make([]byte, 512), 0o644))

	correctKey := pbkdf2.Key([]byte("correct horse"), bdeSalt, bdeKeyIterations, bdeKeyLength, func() hash.Hash { return sha256.New() })
	RegisterDriver(BDE, fakeBDEDriver{wantKey: correctKey})

	ctx := NewResolverContext()
	osSpec, err := New(OS, nil, map[string]interface{}{"location": path})
	require.NoError(t, err)
	bdeSpec, err := New(BDE, osSpec, nil)
	require.NoError(t, err)

	require.NoError(t, ctx.KeyChain().SetCredential(bdeSpec, "password", []byte("wrong guess")))

	_, err = ResolveFileSystem(ctx, bdeSpec)
	require.Error(t, err)
	require.Equal(t, "access-denied", err.(*AccessDeniedError).Kind())
}

func TestBDECorrectPasswordOpens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volume.bde")
	require.NoError(t, os.WriteFile(path, make([]byte, 512), 0o644))

	correctKey := pbkdf2.Key([]byte("correct horse"), bdeSalt, bdeKeyIterations, bdeKeyLength, func() hash.Hash { return sha256.New() })
	RegisterDriver(BDE, fakeBDEDriver{wantKey: correctKey})

	ctx := NewResolverContext()
	osSpec, err := New(OS, nil, map[string]interface{}{"location": path})
	require.NoError(t, err)
	bdeSpec, err := New(BDE, osSpec, nil)
	require.NoError(t, err)

	require.NoError(t, ctx.KeyChain().SetCredential(bdeSpec, "password", []byte("correct horse")))

	fs, err := ResolveFileSystem(ctx, bdeSpec)
	require.NoError(t, err)
	require.NoError(t, ctx.ReleaseFileSystem(bdeSpec))
	_ = fs
}

func TestBDEMissingCredentialIsEncryptionError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volume.bde")
	require.NoError(t, os.WriteFile(path, make([]byte, 512), 0o644))

	ctx := NewResolverContext()
	osSpec, err := New(OS, nil, map[string]interface{}{"location": path})
	require.NoError(t, err)
	bdeSpec, err := New(BDE, osSpec, nil)
	require.NoError(t, err)

	_, err = ResolveFileSystem(ctx, bdeSpec)
	require.Error(t, err)
	require.Equal(t, "encryption-error", err.(*EncryptionError).Kind())
}
