package dfvfs

import (
	"sort"
	"strings"
)

func init() {
	RegisterVariant(TSK, false, nil, []string{"location", "inode"})
	RegisterFileSystemOpener(TSK, openTSKFileSystem)
	RegisterFileObjectOpener(TSK, openTSKFileObject)
}

// TSKFileSystem surfaces the inode tree of a filesystem embedded in a
// partition or raw volume. No sleuthkit binding exists in this module's
// dependency set; the actual inode walk is delegated to an
// EnumeratingImageHandle registered via RegisterDriver(TSK, ...), whose
// VolumeEntry.Name values are full forward-slash paths and whose Identifier
// is the native inode/MFT reference — this back end only turns that flat
// list into the PathSpec tree shape spec.md §4.4 requires.
type TSKFileSystem struct {
	FileSystemBase
	ctx        *ResolverContext
	handle     EnumeratingImageHandle
	byPath     map[string]VolumeEntry
	parentSpec *PathSpec
}

var _ FileSystem = (*TSKFileSystem)(nil)

func openTSKFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	driver, err := lookupDriver(TSK)
	if err != nil {
		return nil, err
	}
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
	handle, err := driver.Open(&fileObjectReaderAt{obj: parentObj}, size, nil)
	if err != nil {
		ctx.ReleaseFileObject(parentSpec)
		return nil, err
	}
	enumHandle, ok := handle.(EnumeratingImageHandle)
	if !ok {
		ctx.ReleaseFileObject(parentSpec)
		return nil, &BackEndError{Message: "TSK driver did not return an EnumeratingImageHandle"}
	}
	entries, err := enumHandle.List()
	if err != nil {
		ctx.ReleaseFileObject(parentSpec)
		return nil, &BackEndError{Message: "list inodes", Cause: err}
	}
	byPath := make(map[string]VolumeEntry, len(entries)+1)
	byPath["/"] = VolumeEntry{Name: "/", IsDirectory: true, IsAllocated: true}
	for _, e := range entries {
		byPath[normalizeFakePath(e.Name)] = e
	}
	return &TSKFileSystem{ctx: ctx, handle: enumHandle, byPath: byPath, parentSpec: parentSpec}, nil
}

func (f *TSKFileSystem) Open(spec *PathSpec) error {
	f.MarkOpened()
	return nil
}

func (f *TSKFileSystem) Close() error {
	if !f.MarkClosed() {
		return nil
	}
	firstErr := f.handle.Close()
	if err := f.ctx.ReleaseFileObject(f.parentSpec); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (f *TSKFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	_, ok := f.byPath[normalizeFakePath(spec.Location())]
	return ok, nil
}

func (f *TSKFileSystem) mustSpec(path string) *PathSpec {
	spec, err := New(TSK, f.parentSpec, map[string]interface{}{"location": path})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *TSKFileSystem) GetRootFileEntry() (*FileEntry, error) {
	return f.GetFileEntryByPathSpec(f.mustSpec("/"))
}

func (f *TSKFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
	norm := normalizeFakePath(spec.Location())
	entry, ok := f.byPath[norm]
	if !ok {
		return nil, nil
	}
	isRoot := norm == "/"
	name := BasenamePath(norm)

	statFn := func() (*VFSStat, error) {
		t := TypeFile
		if entry.IsDirectory {
			t = TypeDirectory
		}
		size := entry.Size
		allocated := entry.IsAllocated
		return &VFSStat{Type: &t, Size: &size, IsAllocated: &allocated}, nil
	}
	dirFn := func() (Directory, error) {
		if !entry.IsDirectory {
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

func (f *TSKFileSystem) BasenamePath(path string) string      { return BasenamePath(path) }
func (f *TSKFileSystem) DirnamePath(path string) string        { return DirnamePath(path) }
func (f *TSKFileSystem) JoinPath(segments ...string) string    { return JoinPath(segments...) }
func (f *TSKFileSystem) SplitPath(path string) []string        { return SplitPath(path) }

type tskFileObject struct {
	handle ImageHandle
	offset int64
}

func openTSKFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	tskfs, ok := fsIface.(*TSKFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "TSK file object requires a TSK file system"}
	}
	entry, ok := tskfs.byPath[normalizeFakePath(spec.Location())]
	if !ok {
		return nil, &NotFoundError{Location: spec.Location()}
	}
	if entry.IsDirectory {
		return nil, &UnsupportedError{Message: "cannot open a directory as a file object"}
	}
	handle, err := tskfs.handle.OpenEntry(entry.Identifier)
	if err != nil {
		return nil, &BackEndError{Message: "open inode", Cause: err}
	}
	return &tskFileObject{handle: handle}, nil
}

var _ FileObject = (*tskFileObject)(nil)

func (o *tskFileObject) Open() error  { return nil }
func (o *tskFileObject) Close() error { return o.handle.Close() }

func (o *tskFileObject) Read(length int) ([]byte, error) {
	size, err := o.handle.Size()
	if err != nil {
		return nil, &BackEndError{Message: "size", Cause: err}
	}
	remaining := size - o.offset
	if remaining <= 0 {
		return []byte{}, nil
	}
	if length < 0 || int64(length) > remaining {
		length = int(remaining)
	}
	buf := make([]byte, length)
	n, err := o.handle.ReadAt(buf, o.offset)
	if err != nil && n == 0 {
		return nil, &BackEndError{Message: "read", Cause: err}
	}
	o.offset += int64(n)
	return buf[:n], nil
}

func (o *tskFileObject) Seek(offset int64, whence int) (int64, error) {
	size, err := o.handle.Size()
	if err != nil {
		return 0, err
	}
	switch whence {
	case SeekSet:
		o.offset = offset
	case SeekCur:
		o.offset += offset
	case SeekEnd:
		o.offset = size + offset
	}
	return o.offset, nil
}

func (o *tskFileObject) GetOffset() (int64, error) { return o.offset, nil }
func (o *tskFileObject) GetSize() (int64, error)    { return o.handle.Size() }
