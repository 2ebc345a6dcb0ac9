package dfvfs

import (
	"archive/tar"
	"io"
	"sort"
	"strings"
)

func init() {
	RegisterVariant(TAR, false, nil, []string{"location"})
	RegisterFileSystemOpener(TAR, openTARFileSystem)
	RegisterFileObjectOpener(TAR, openTARFileObject)
}

type tarEntry struct {
	isDir bool
	size  int64
	data  []byte
	link  string
}

// TARFileSystem walks a tar archive via the standard library's archive/tar
// and stores each member's bytes in memory, keyed by its normalized path —
// the same "read once, serve many" shape as FakeFileSystem, since tar.Reader
// itself is forward-only and cannot be replayed.
type TARFileSystem struct {
	FileSystemBase
	ctx        *ResolverContext
	byPath     map[string]*tarEntry
	parentSpec *PathSpec
}

var _ FileSystem = (*TARFileSystem)(nil)

func openTARFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
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
	tr := tar.NewReader(io.NewSectionReader(&fileObjectReaderAt{obj: parentObj}, 0, size))

	byPath := map[string]*tarEntry{"/": {isDir: true}}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			ctx.ReleaseFileObject(parentSpec)
			return nil, &BackEndError{Message: "tar header", Cause: err}
		}
		norm := normalizeFakePath("/" + strings.TrimSuffix(hdr.Name, "/"))
		switch hdr.Typeflag {
		case tar.TypeDir:
			byPath[norm] = &tarEntry{isDir: true}
		case tar.TypeSymlink, tar.TypeLink:
			byPath[norm] = &tarEntry{link: hdr.Linkname}
		default:
			data, err := io.ReadAll(tr)
			if err != nil {
				ctx.ReleaseFileObject(parentSpec)
				return nil, &BackEndError{Message: "tar read " + hdr.Name, Cause: err}
			}
			byPath[norm] = &tarEntry{size: int64(len(data)), data: data}
		}
	}
	return &TARFileSystem{ctx: ctx, byPath: byPath, parentSpec: parentSpec}, nil
}

func (f *TARFileSystem) Open(spec *PathSpec) error { f.MarkOpened(); return nil }

func (f *TARFileSystem) Close() error {
	if !f.MarkClosed() {
		return nil
	}
	return f.ctx.ReleaseFileObject(f.parentSpec)
}

func (f *TARFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	_, ok := f.byPath[normalizeFakePath(spec.Location())]
	return ok, nil
}

func (f *TARFileSystem) mustSpec(path string) *PathSpec {
	spec, err := New(TAR, f.parentSpec, map[string]interface{}{"location": path})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *TARFileSystem) GetRootFileEntry() (*FileEntry, error) {
	return f.GetFileEntryByPathSpec(f.mustSpec("/"))
}

func (f *TARFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
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
		} else if entry.link != "" {
			t = TypeLink
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

	return NewFileEntry(f, spec, isRoot, false, name, entry.link, statFn, dirFn), nil
}

func (f *TARFileSystem) BasenamePath(path string) string      { return BasenamePath(path) }
func (f *TARFileSystem) DirnamePath(path string) string        { return DirnamePath(path) }
func (f *TARFileSystem) JoinPath(segments ...string) string    { return JoinPath(segments...) }
func (f *TARFileSystem) SplitPath(path string) []string        { return SplitPath(path) }

func openTARFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	tarfs, ok := fsIface.(*TARFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "TAR file object requires a TAR file system"}
	}
	entry, ok := tarfs.byPath[normalizeFakePath(spec.Location())]
	if !ok {
		return nil, &NotFoundError{Location: spec.Location()}
	}
	return &fakeFileObject{data: entry.data}, nil
}
