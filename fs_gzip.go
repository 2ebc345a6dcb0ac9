package dfvfs

import (
	"compress/gzip"
	"io"
)

func init() {
	RegisterVariant(GZIP, false, nil, []string{"location"})
	RegisterFileSystemOpener(GZIP, openGZIPFileSystem)
	RegisterFileObjectOpener(GZIP, openPayloadFileObject)
}

// gzipDriver decompresses its entire parent stream up front, since
// compress/gzip only exposes a forward-only io.Reader while ImageHandle
// needs random access (ReadAt) to support Seek.
type gzipDriver struct{}

func (gzipDriver) Open(source io.ReaderAt, size int64, credentials map[string][]byte) (ImageHandle, error) {
	zr, err := gzip.NewReader(io.NewSectionReader(source, 0, size))
	if err != nil {
		return nil, &BackEndError{Message: "gzip header", Cause: err}
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, &BackEndError{Message: "gzip decompress", Cause: err}
	}
	return &bytesImageHandle{data: data}, nil
}

func init() {
	RegisterDriver(GZIP, gzipDriver{})
}

func openGZIPFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	return openPayloadFileSystem(ctx, spec, nil)
}

// bytesImageHandle is a fully materialized in-memory ImageHandle, used by
// every decompression-based driver (GZIP, COMPRESSED_STREAM).
type bytesImageHandle struct {
	data []byte
}

func (h *bytesImageHandle) ReadAt(b []byte, off int64) (int, error) {
	if off >= int64(len(h.data)) {
		return 0, io.EOF
	}
	n := copy(b, h.data[off:])
	return n, nil
}

func (h *bytesImageHandle) Size() (int64, error) { return int64(len(h.data)), nil }
func (h *bytesImageHandle) Close() error          { return nil }
