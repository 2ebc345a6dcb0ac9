package dfvfs

import "io"

func init() {
	RegisterVariant(RAW, false, nil, []string{"location"})
	RegisterFileSystemOpener(RAW, openRAWFileSystem)
	RegisterFileObjectOpener(RAW, openPayloadFileObject)
	RegisterDriver(RAW, rawDriver{})
}

// rawDriver is the identity ImageDriver: a RAW container is just bytes, so
// unlike QCOW/VHDI/VMDK/EWF there is no format header to decode and no
// external library is needed.
type rawDriver struct{}

func (rawDriver) Open(source io.ReaderAt, size int64, credentials map[string][]byte) (ImageHandle, error) {
	return &rawImageHandle{source: source, size: size}, nil
}

type rawImageHandle struct {
	source io.ReaderAt
	size   int64
}

func (h *rawImageHandle) ReadAt(b []byte, off int64) (int, error) { return h.source.ReadAt(b, off) }
func (h *rawImageHandle) Size() (int64, error)                     { return h.size, nil }
func (h *rawImageHandle) Close() error                             { return nil }

func openRAWFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	return openPayloadFileSystem(ctx, spec, nil)
}
