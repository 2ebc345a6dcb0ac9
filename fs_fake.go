package dfvfs

import (
	"sort"
	"strings"
)

func init() {
	RegisterVariant(FAKE, true, nil, nil)
	RegisterFileSystemOpener(FAKE, openFakeFileSystem)
	RegisterFileObjectOpener(FAKE, openFakeFileObject)
}

// fakeEntry is one stored path in a FakeFileSystem (spec.md §4.4).
type fakeEntry struct {
	path string
	stat VFSStat
	data []byte
	link string
}

// FakeFileSystem is an in-memory back end, grounded on the teacher's
// MountableDataProvider virtual-directory tree (dp_mountabledataprovider.go)
// but storing a VFSStat + optional payload per path instead of a mounted
// sub-provider. Useful for tests and for synthesizing fixtures.
type FakeFileSystem struct {
	FileSystemBase
	entries map[string]*fakeEntry
}

var _ FileSystem = (*FakeFileSystem)(nil)

// NewFakeFileSystem returns an empty FakeFileSystem with just a root
// directory.
func NewFakeFileSystem() *FakeFileSystem {
	fs := &FakeFileSystem{entries: make(map[string]*fakeEntry)}
	rootType := TypeDirectory
	fs.entries["/"] = &fakeEntry{path: "/", stat: VFSStat{Type: &rootType}}
	return fs
}

func openFakeFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	return NewFakeFileSystem(), nil
}

func (f *FakeFileSystem) Open(spec *PathSpec) error {
	f.MarkOpened()
	return nil
}

func (f *FakeFileSystem) Close() error {
	f.MarkClosed()
	return nil
}

func normalizeFakePath(p string) string {
	return JoinPath(SplitPath(p)...)
}

// AddFileEntry stores one path with the given stat and payload. Rejects a
// duplicate path, and rejects data on a non-FILE type or a link target on a
// non-LINK type (spec.md §4.4, §8).
func (f *FakeFileSystem) AddFileEntry(path string, stat VFSStat, data []byte, link string) error {
	norm := normalizeFakePath(path)
	if _, exists := f.entries[norm]; exists {
		return &BadPathSpecError{Message: "already-exists: " + norm}
	}
	if stat.Type == nil {
		return &BadPathSpecError{Message: "stat.Type is required"}
	}
	if len(data) > 0 && *stat.Type != TypeFile {
		return &BadPathSpecError{Message: "data may only accompany FILE entries"}
	}
	if link != "" && *stat.Type != TypeLink {
		return &BadPathSpecError{Message: "link target may only accompany LINK entries"}
	}

	size := int64(len(data))
	stat.Size = &size
	f.entries[norm] = &fakeEntry{path: norm, stat: stat, data: data, link: link}
	return nil
}

func (f *FakeFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	_, ok := f.entries[normalizeFakePath(spec.Location())]
	return ok, nil
}

func (f *FakeFileSystem) GetRootFileEntry() (*FileEntry, error) {
	return f.GetFileEntryByPathSpec(mustNewFakeSpec("/"))
}

func mustNewFakeSpec(location string) *PathSpec {
	spec, err := New(FAKE, nil, map[string]interface{}{"location": location})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *FakeFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
	norm := normalizeFakePath(spec.Location())
	entry, ok := f.entries[norm]
	if !ok {
		return nil, nil
	}

	isRoot := norm == "/"
	name := BasenamePath(norm)
	statCopy := entry.stat

	statFn := func() (*VFSStat, error) {
		return &statCopy, nil
	}
	dirFn := func() (Directory, error) {
		if entry.stat.Type == nil || *entry.stat.Type != TypeDirectory {
			return nil, &UnsupportedError{Message: "not a directory"}
		}
		prefix := norm
		if prefix != "/" {
			prefix += "/"
		}
		seen := make(map[string]bool)
		children := make([]string, 0)
		for p := range f.entries {
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
			specs = append(specs, mustNewFakeSpec(c))
		}
		return newSliceDirectory(specs), nil
	}

	return NewFileEntry(f, spec, isRoot, false, name, entry.link, statFn, dirFn), nil
}

func (f *FakeFileSystem) BasenamePath(path string) string      { return BasenamePath(path) }
func (f *FakeFileSystem) DirnamePath(path string) string        { return DirnamePath(path) }
func (f *FakeFileSystem) JoinPath(segments ...string) string    { return JoinPath(segments...) }
func (f *FakeFileSystem) SplitPath(path string) []string        { return SplitPath(path) }

// fakeFileObject is a read-only cursor over a stored entry's bytes.
type fakeFileObject struct {
	data   []byte
	offset int64
}

func openFakeFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	fake, ok := fsIface.(*FakeFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "FAKE file object requires a FAKE file system"}
	}
	entry, ok := fake.entries[normalizeFakePath(spec.Location())]
	if !ok {
		return nil, &NotFoundError{Location: spec.Location()}
	}
	return &fakeFileObject{data: entry.data}, nil
}

var _ FileObject = (*fakeFileObject)(nil)

func (o *fakeFileObject) Open() error  { return nil }
func (o *fakeFileObject) Close() error { return nil }

func (o *fakeFileObject) Read(length int) ([]byte, error) {
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

func (o *fakeFileObject) Seek(offset int64, whence int) (int64, error) {
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

func (o *fakeFileObject) GetOffset() (int64, error) { return o.offset, nil }
func (o *fakeFileObject) GetSize() (int64, error)   { return int64(len(o.data)), nil }
