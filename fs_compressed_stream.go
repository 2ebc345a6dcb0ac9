package dfvfs

import (
	"compress/bzip2"
	"compress/zlib"
	"io"
)

func init() {
	RegisterVariant(CompressedStream, false, []string{"compression_method"}, []string{"location"})
	RegisterFileSystemOpener(CompressedStream, openCompressedStreamFileSystem)
	RegisterFileObjectOpener(CompressedStream, openPayloadFileObject)
}

// openCompressedStreamFileSystem supports the "zlib" and "bzip2"
// compression_method values via the stdlib compress package family; bzip2 is
// decompress-only in the standard library, same as the format itself.
func openCompressedStreamFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	method := spec.StringAttr("compression_method")

	parentSpec := spec.Parent()
	parentObj, err := ResolveFileObject(ctx, parentSpec)
	if err != nil {
		return nil, err
	}
	size, err := parentObj.GetSize()
	if err != nil {
		ctx.ReleaseFileObject(parentSpec)
		return nil, &BackEndError{Message: "parent size", Cause: err}
	}
	sectionReader := io.NewSectionReader(&fileObjectReaderAt{obj: parentObj}, 0, size)

	var reader io.Reader
	switch method {
	case "zlib":
		zr, err := zlib.NewReader(sectionReader)
		if err != nil {
			ctx.ReleaseFileObject(parentSpec)
			return nil, &BackEndError{Message: "zlib header", Cause: err}
		}
		defer zr.Close()
		reader = zr
	case "bzip2":
		reader = bzip2.NewReader(sectionReader)
	default:
		ctx.ReleaseFileObject(parentSpec)
		return nil, &UnsupportedError{Message: "unsupported compression_method " + method}
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		ctx.ReleaseFileObject(parentSpec)
		return nil, &BackEndError{Message: "decompress", Cause: err}
	}

	return &payloadFileSystem{ctx: ctx, parentSpec: parentSpec, indicator: CompressedStream, handle: &bytesImageHandle{data: data}, selfSpec: spec}, nil
}
