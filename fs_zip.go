package dfvfs

import (
	"archive/zip"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

func init() {
	RegisterVariant(ZIP, false, nil, []string{"location"})
	RegisterFileSystemOpener(ZIP, openZIPFileSystem)
	RegisterFileObjectOpener(ZIP, openZIPFileObject)
}

// ZIPFileSystem wraps the standard library's archive/zip, which (unlike
// archive/tar) supports true random access via its central directory, so
// entries are opened lazily rather than all decompressed up front.
type ZIPFileSystem struct {
	FileSystemBase
	ctx        *ResolverContext
	reader     *zip.Reader
	byPath     map[string]*zip.File
	dirs       map[string]bool
	parentSpec *PathSpec
}

var _ FileSystem = (*ZIPFileSystem)(nil)

func openZIPFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
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
	zr, err := zip.NewReader(&fileObjectReaderAt{obj: parentObj}, size)
	if err != nil {
		ctx.ReleaseFileObject(parentSpec)
		return nil, &BackEndError{Message: "zip central directory", Cause: err}
	}

	byPath := make(map[string]*zip.File, len(zr.File))
	dirs := map[string]bool{"/": true}
	for _, zf := range zr.File {
		norm := normalizeFakePath("/" + strings.TrimSuffix(zf.Name, "/"))
		if strings.HasSuffix(zf.Name, "/") {
			dirs[norm] = true
			continue
		}
		byPath[norm] = zf
		for dir := DirnamePath(norm); dir != "/" && dir != ""; dir = DirnamePath(dir) {
			dirs[dir] = true
		}
	}

	return &ZIPFileSystem{ctx: ctx, reader: zr, byPath: byPath, dirs: dirs, parentSpec: parentSpec}, nil
}

func (f *ZIPFileSystem) Open(spec *PathSpec) error { f.MarkOpened(); return nil }

func (f *ZIPFileSystem) Close() error {
	if !f.MarkClosed() {
		return nil
	}
	return f.ctx.ReleaseFileObject(f.parentSpec)
}

func (f *ZIPFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	norm := normalizeFakePath(spec.Location())
	_, isFile := f.byPath[norm]
	return isFile || f.dirs[norm], nil
}

func (f *ZIPFileSystem) mustSpec(path string) *PathSpec {
	spec, err := New(ZIP, f.parentSpec, map[string]interface{}{"location": path})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *ZIPFileSystem) GetRootFileEntry() (*FileEntry, error) {
	return f.GetFileEntryByPathSpec(f.mustSpec("/"))
}

func (f *ZIPFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
	norm := normalizeFakePath(spec.Location())
	zf, isFile := f.byPath[norm]
	isDir := f.dirs[norm]
	if !isFile && !isDir {
		return nil, nil
	}

	isRoot := norm == "/"
	name := BasenamePath(norm)

	statFn := func() (*VFSStat, error) {
		t := TypeDirectory
		var size int64
		if isFile {
			t = TypeFile
			size = int64(zf.UncompressedSize64)
		}
		allocated := true
		st := &VFSStat{Type: &t, Size: &size, IsAllocated: &allocated}
		if isFile {
			mtime := zf.Modified
			st.MTime = &mtime
		}
		return st, nil
	}
	dirFn := func() (Directory, error) {
		if !isDir {
			return nil, &UnsupportedError{Message: "not a directory"}
		}
		prefix := norm
		if prefix != "/" {
			prefix += "/"
		}
		seen := make(map[string]bool)
		var children []string
		add := func(p string) {
			if p == norm || !strings.HasPrefix(p, prefix) {
				return
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
		for p := range f.byPath {
			add(p)
		}
		for p := range f.dirs {
			add(p)
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

func (f *ZIPFileSystem) BasenamePath(path string) string      { return BasenamePath(path) }
func (f *ZIPFileSystem) DirnamePath(path string) string        { return DirnamePath(path) }
func (f *ZIPFileSystem) JoinPath(segments ...string) string    { return JoinPath(segments...) }
func (f *ZIPFileSystem) SplitPath(path string) []string        { return SplitPath(path) }

type zipFileObject struct {
	data   []byte
	offset int64
}

func openZIPFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	zipfs, ok := fsIface.(*ZIPFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "ZIP file object requires a ZIP file system"}
	}
	zf, ok := zipfs.byPath[normalizeFakePath(spec.Location())]
	if !ok {
		return nil, &NotFoundError{Location: spec.Location()}
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, &BackEndError{Message: "open zip entry", Cause: err}
	}
	defer silentClose(rc, logrus.Fields{"entry": zf.Name})
	data := make([]byte, 0, zf.UncompressedSize64)
	buf := make([]byte, 32*1024)
	for {
		n, err := rc.Read(buf)
		data = append(data, buf[:n]...)
		if err != nil {
			break
		}
	}
	return &zipFileObject{data: data}, nil
}

var _ FileObject = (*zipFileObject)(nil)

func (o *zipFileObject) Open() error  { return nil }
func (o *zipFileObject) Close() error { return nil }

func (o *zipFileObject) Read(length int) ([]byte, error) {
	if o.offset >= int64(len(o.data)) {
		return []byte{}, nil
	}
	remaining := o.data[o.offset:]
	if length < 0 || length > len(remaining) {
		length = len(remaining)
	}
	out := make([]byte, length)
	copy(out, remaining[:length])
	o.offset += int64(length)
	return out, nil
}

func (o *zipFileObject) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case SeekSet:
		o.offset = offset
	case SeekCur:
		o.offset += offset
	case SeekEnd:
		o.offset = int64(len(o.data)) + offset
	}
	return o.offset, nil
}

func (o *zipFileObject) GetOffset() (int64, error) { return o.offset, nil }
func (o *zipFileObject) GetSize() (int64, error)   { return int64(len(o.data)), nil }
