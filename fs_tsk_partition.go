package dfvfs

func init() {
	RegisterVariant(TSKPartition, false, nil, []string{"location", "part_index", "start_offset"})
	RegisterFileSystemOpener(TSKPartition, openTSKPartitionFileSystem)
	RegisterFileObjectOpener(TSKPartition, openTSKPartitionFileObject)
}

// TSKPartitionFileSystem exposes a partition table as a flat virtual
// directory of /p1../pN entries, grounded on the teacher's
// MountableFileSystem virtual-root idiom (dp_mountablefilesystem.go) applied
// to a partition table instead of a mounted provider list.
type TSKPartitionFileSystem struct {
	FileSystemBase
	ctx        *ResolverContext
	entries    []tskPartitionEntry
	parent     FileObject
	parentSpec *PathSpec
}

var _ FileSystem = (*TSKPartitionFileSystem)(nil)

func openTSKPartitionFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	parentSpec := spec.Parent()
	parentObj, err := ResolveFileObject(ctx, parentSpec)
	if err != nil {
		return nil, err
	}
	entries, err := readPartitionTable(&fileObjectImageHandle{obj: parentObj})
	if err != nil {
		ctx.ReleaseFileObject(parentSpec)
		return nil, err
	}
	return &TSKPartitionFileSystem{ctx: ctx, entries: entries, parent: parentObj, parentSpec: parentSpec}, nil
}

func (f *TSKPartitionFileSystem) Open(spec *PathSpec) error {
	f.MarkOpened()
	return nil
}

func (f *TSKPartitionFileSystem) Close() error {
	if !f.MarkClosed() {
		return nil
	}
	return f.ctx.ReleaseFileObject(f.parentSpec)
}

func (f *TSKPartitionFileSystem) findEntry(spec *PathSpec) (*tskPartitionEntry, error) {
	return selectPartition(f.entries, spec)
}

func (f *TSKPartitionFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	if spec.Location() == "" || spec.Location() == "/" {
		return true, nil
	}
	_, err := f.findEntry(spec)
	if _, ok := err.(*NotFoundError); ok {
		return false, nil
	}
	return err == nil, err
}

func (f *TSKPartitionFileSystem) GetRootFileEntry() (*FileEntry, error) {
	statFn := func() (*VFSStat, error) {
		t := TypeDirectory
		allocated := true
		return &VFSStat{Type: &t, IsAllocated: &allocated}, nil
	}
	dirFn := func() (Directory, error) {
		children := make([]*PathSpec, 0, len(f.entries))
		for _, e := range f.entries {
			children = append(children, f.mustSpecForIndex(e.index))
		}
		return newSliceDirectory(children), nil
	}
	root := f.mustRootSpec()
	return NewFileEntry(f, root, true, true, "", "", statFn, dirFn), nil
}

func (f *TSKPartitionFileSystem) mustRootSpec() *PathSpec {
	spec, err := New(TSKPartition, f.parentSpec, map[string]interface{}{"location": "/"})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *TSKPartitionFileSystem) mustSpecForIndex(index int) *PathSpec {
	spec, err := New(TSKPartition, f.parentSpec, map[string]interface{}{"location": partitionLocation(index)})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *TSKPartitionFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
	if spec.Location() == "/" || spec.Location() == "" {
		return f.GetRootFileEntry()
	}
	entry, err := f.findEntry(spec)
	if err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return nil, nil
		}
		return nil, err
	}

	statFn := func() (*VFSStat, error) {
		t := TypeFile
		size := entry.size
		allocated := entry.isAllocated
		return &VFSStat{Type: &t, Size: &size, IsAllocated: &allocated}, nil
	}
	dirFn := func() (Directory, error) {
		return newSliceDirectory(nil), nil
	}
	return NewFileEntry(f, spec, false, true, partitionLocation(entry.index)[1:], "", statFn, dirFn), nil
}

func (f *TSKPartitionFileSystem) BasenamePath(path string) string      { return BasenamePath(path) }
func (f *TSKPartitionFileSystem) DirnamePath(path string) string        { return DirnamePath(path) }
func (f *TSKPartitionFileSystem) JoinPath(segments ...string) string    { return JoinPath(segments...) }
func (f *TSKPartitionFileSystem) SplitPath(path string) []string        { return SplitPath(path) }

// tskPartitionFileObject is a read-only window over the parent stream,
// bounded to one partition's [startOffset, startOffset+size) range.
type tskPartitionFileObject struct {
	parent FileObject
	entry  tskPartitionEntry
	offset int64
}

func openTSKPartitionFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	tskfs, ok := fsIface.(*TSKPartitionFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "TSK_PARTITION file object requires a TSK_PARTITION file system"}
	}
	entry, err := tskfs.findEntry(spec)
	if err != nil {
		return nil, err
	}
	return &tskPartitionFileObject{parent: tskfs.parent, entry: *entry}, nil
}

var _ FileObject = (*tskPartitionFileObject)(nil)

func (o *tskPartitionFileObject) Open() error  { return nil }
func (o *tskPartitionFileObject) Close() error { return nil }

func (o *tskPartitionFileObject) Read(length int) ([]byte, error) {
	remaining := o.entry.size - o.offset
	if remaining <= 0 {
		return []byte{}, nil
	}
	if length < 0 || int64(length) > remaining {
		length = int(remaining)
	}
	if _, err := o.parent.Seek(o.entry.startOffset+o.offset, SeekSet); err != nil {
		return nil, err
	}
	data, err := o.parent.Read(length)
	if err != nil {
		return nil, err
	}
	o.offset += int64(len(data))
	return data, nil
}

func (o *tskPartitionFileObject) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case SeekSet:
		o.offset = offset
	case SeekCur:
		o.offset += offset
	case SeekEnd:
		o.offset = o.entry.size + offset
	}
	return o.offset, nil
}

func (o *tskPartitionFileObject) GetOffset() (int64, error) { return o.offset, nil }
func (o *tskPartitionFileObject) GetSize() (int64, error)    { return o.entry.size, nil }

// fileObjectImageHandle adapts a FileObject to the ImageHandle contract so
// readPartitionTable can read through it directly.
type fileObjectImageHandle struct {
	obj FileObject
}

func (h *fileObjectImageHandle) ReadAt(b []byte, off int64) (int, error) {
	if _, err := h.obj.Seek(off, SeekSet); err != nil {
		return 0, err
	}
	data, err := h.obj.Read(len(b))
	if err != nil {
		return 0, err
	}
	return copy(b, data), nil
}

func (h *fileObjectImageHandle) Size() (int64, error) { return h.obj.GetSize() }
func (h *fileObjectImageHandle) Close() error          { return nil }
