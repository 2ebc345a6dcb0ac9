package dfvfs

import (
	"io"
	"sort"
	"strings"

	"github.com/cavaliergopher/cpio"
)

func init() {
	RegisterVariant(CPIO, false, nil, []string{"location"})
	RegisterFileSystemOpener(CPIO, openCPIOFileSystem)
	RegisterFileObjectOpener(CPIO, openCPIOFileObject)
}

type cpioEntry struct {
	isDir bool
	size  int64
	data  []byte
}

// CPIOFileSystem walks a cpio archive via github.com/cavaliergopher/cpio,
// the same read-everything-up-front shape as TARFileSystem since cpio.Reader
// is likewise forward-only.
type CPIOFileSystem struct {
	FileSystemBase
	ctx        *ResolverContext
	byPath     map[string]*cpioEntry
	parentSpec *PathSpec
}

var _ FileSystem = (*CPIOFileSystem)(nil)

func openCPIOFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
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
	cr := cpio.NewReader(io.NewSectionReader(&fileObjectReaderAt{obj: parentObj}, 0, size))

	byPath := map[string]*cpioEntry{"/": {isDir: true}}
	for {
		hdr, err := cr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			ctx.ReleaseFileObject(parentSpec)
			return nil, &BackEndError{Message: "cpio header", Cause: err}
		}
		norm := normalizeFakePath("/" + strings.TrimSuffix(hdr.Name, "/"))
		if hdr.Mode.IsDir() {
			byPath[norm] = &cpioEntry{isDir: true}
			continue
		}
		data, err := io.ReadAll(cr)
		if err != nil {
			ctx.ReleaseFileObject(parentSpec)
			return nil, &BackEndError{Message: "cpio read " + hdr.Name, Cause: err}
		}
		byPath[norm] = &cpioEntry{size: int64(len(data)), data: data}
	}
	return &CPIOFileSystem{ctx: ctx, byPath: byPath, parentSpec: parentSpec}, nil
}

func (f *CPIOFileSystem) Open(spec *PathSpec) error { f.MarkOpened(); return nil }

func (f *CPIOFileSystem) Close() error {
	if !f.MarkClosed() {
		return nil
	}
	return f.ctx.ReleaseFileObject(f.parentSpec)
}

func (f *CPIOFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	_, ok := f.byPath[normalizeFakePath(spec.Location())]
	return ok, nil
}

func (f *CPIOFileSystem) mustSpec(path string) *PathSpec {
	spec, err := New(CPIO, f.parentSpec, map[string]interface{}{"location": path})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *CPIOFileSystem) GetRootFileEntry() (*FileEntry, error) {
	return f.GetFileEntryByPathSpec(f.mustSpec("/"))
}

func (f *CPIOFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
	norm := normalizeFakePath(spec.Location())
	entry, ok := f.byPath[norm]
	if !ok {
		return nil, nil
	}
	isRoot := norm == "/"
	name := BasenamePath(norm)

	statFn := func() (*VFSStat, error) {
		t := TypeFile
		if entry.isDir {
			t = TypeDirectory
		}
		size := entry.size
		allocated := true
		return &VFSStat{Type: &t, Size: &size, IsAllocated: &allocated}, nil
	}
	dirFn := func() (Directory, error) {
		if !entry.isDir {
			return nil, &UnsupportedError{Message: "not a directory"}
		}
		prefix := norm
		if prefix != "/" {
			prefix += "/"
		}
		seen := make(map[string]bool)
		var children []string
		for p := range f.byPath {
			if p == norm || !strings.HasPrefix(p, prefix) {
				continue
			}
			rest := strings.TrimPrefix(p, prefix)
			first := rest
			if idx := strings.Index(rest, "/"); idx >= 0 {
				first = rest[:idx]
			}
			childPath := prefix + first
			if !seen[childPath] {
				seen[childPath] = true
				children = append(children, childPath)
			}
		}
		sort.Strings(children)
		specs := make([]*PathSpec, 0, len(children))
		for _, c := range children {
			specs = append(specs, f.mustSpec(c))
		}
		return newSliceDirectory(specs), nil
	}

	return NewFileEntry(f, spec, isRoot, false, name, "", statFn, dirFn), nil
}

func (f *CPIOFileSystem) BasenamePath(path string) string      { return BasenamePath(path) }
func (f *CPIOFileSystem) DirnamePath(path string) string        { return DirnamePath(path) }
func (f *CPIOFileSystem) JoinPath(segments ...string) string    { return JoinPath(segments...) }
func (f *CPIOFileSystem) SplitPath(path string) []string        { return SplitPath(path) }

func openCPIOFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	cpiofs, ok := fsIface.(*CPIOFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "CPIO file object requires a CPIO file system"}
	}
	entry, ok := cpiofs.byPath[normalizeFakePath(spec.Location())]
	if !ok {
		return nil, &NotFoundError{Location: spec.Location()}
	}
	return &fakeFileObject{data: entry.data}, nil
}
