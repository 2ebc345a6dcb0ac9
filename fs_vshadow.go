package dfvfs

func init() {
	RegisterVariant(VShadow, false, nil, []string{"location", "store_index"})
	RegisterFileSystemOpener(VShadow, openVShadowFileSystem)
	RegisterFileObjectOpener(VShadow, openVShadowFileObject)
}

// VShadowFileSystem exposes a Volume Shadow Copy store as /vss1../vssN
// virtual files, one per snapshot, grounded on the same virtual-root idiom
// as TSKPartitionFileSystem. No libvshadow binding exists in this module's
// dependency set, so enumeration is delegated to an EnumeratingImageHandle
// registered via RegisterDriver(VSHADOW, ...).
type VShadowFileSystem struct {
	FileSystemBase
	ctx        *ResolverContext
	handle     EnumeratingImageHandle
	entries    []VolumeEntry
	parentSpec *PathSpec
}

var _ FileSystem = (*VShadowFileSystem)(nil)

func openVShadowFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	driver, err := lookupDriver(VShadow)
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
		return nil, &BackEndError{Message: "VSHADOW driver did not return an EnumeratingImageHandle"}
	}
	entries, err := enumHandle.List()
	if err != nil {
		ctx.ReleaseFileObject(parentSpec)
		return nil, &BackEndError{Message: "list shadow stores", Cause: err}
	}
	return &VShadowFileSystem{ctx: ctx, handle: enumHandle, entries: entries, parentSpec: parentSpec}, nil
}

func (f *VShadowFileSystem) Open(spec *PathSpec) error {
	f.MarkOpened()
	return nil
}

func (f *VShadowFileSystem) Close() error {
	if !f.MarkClosed() {
		return nil
	}
	firstErr := f.handle.Close()
	if err := f.ctx.ReleaseFileObject(f.parentSpec); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (f *VShadowFileSystem) findEntry(spec *PathSpec) (*VolumeEntry, error) {
	if loc := spec.Location(); loc != "" && loc != "/" {
		idx, err := shadowIndexFromLocation(loc)
		if err != nil {
			return nil, &BadPathSpecError{Message: err.Error()}
		}
		if idx < 1 || idx > len(f.entries) {
			return nil, &NotFoundError{Location: loc}
		}
		return &f.entries[idx-1], nil
	}
	if idx, ok := spec.IntAttr("store_index"); ok {
		if idx < 1 || int(idx) > len(f.entries) {
			return nil, &NotFoundError{Location: shadowLocation(int(idx))}
		}
		return &f.entries[idx-1], nil
	}
	return nil, &BadPathSpecError{Message: "VSHADOW requires location or store_index"}
}

func (f *VShadowFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	if spec.Location() == "" || spec.Location() == "/" {
		return true, nil
	}
	_, err := f.findEntry(spec)
	if _, ok := err.(*NotFoundError); ok {
		return false, nil
	}
	return err == nil, err
}

func (f *VShadowFileSystem) mustSpecForIndex(index int) *PathSpec {
	spec, err := New(VShadow, f.parentSpec, map[string]interface{}{"location": shadowLocation(index)})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *VShadowFileSystem) GetRootFileEntry() (*FileEntry, error) {
	spec, err := New(VShadow, f.parentSpec, map[string]interface{}{"location": "/"})
	if err != nil {
		return nil, err
	}
	statFn := func() (*VFSStat, error) {
		t := TypeDirectory
		allocated := true
		return &VFSStat{Type: &t, IsAllocated: &allocated}, nil
	}
	dirFn := func() (Directory, error) {
		children := make([]*PathSpec, 0, len(f.entries))
		for i := range f.entries {
			children = append(children, f.mustSpecForIndex(i+1))
		}
		return newSliceDirectory(children), nil
	}
	return NewFileEntry(f, spec, true, true, "", "", statFn, dirFn), nil
}

func (f *VShadowFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
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
		size := entry.Size
		allocated := entry.IsAllocated
		st := &VFSStat{Type: &t, Size: &size, IsAllocated: &allocated}
		if crtime, ok := filetimeToTime(entry.CreationTime); ok {
			st.CRTime = crtime
		}
		return st, nil
	}
	dirFn := func() (Directory, error) {
		return newSliceDirectory(nil), nil
	}
	return NewFileEntry(f, spec, false, true, entry.Name, "", statFn, dirFn), nil
}

func (f *VShadowFileSystem) BasenamePath(path string) string      { return BasenamePath(path) }
func (f *VShadowFileSystem) DirnamePath(path string) string        { return DirnamePath(path) }
func (f *VShadowFileSystem) JoinPath(segments ...string) string    { return JoinPath(segments...) }
func (f *VShadowFileSystem) SplitPath(path string) []string        { return SplitPath(path) }

type vshadowFileObject struct {
	handle ImageHandle
	offset int64
}

func openVShadowFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	vfs, ok := fsIface.(*VShadowFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "VSHADOW file object requires a VSHADOW file system"}
	}
	entry, err := vfs.findEntry(spec)
	if err != nil {
		return nil, err
	}
	handle, err := vfs.handle.OpenEntry(entry.Identifier)
	if err != nil {
		return nil, &BackEndError{Message: "open shadow store", Cause: err}
	}
	return &vshadowFileObject{handle: handle}, nil
}

var _ FileObject = (*vshadowFileObject)(nil)

func (o *vshadowFileObject) Open() error  { return nil }
func (o *vshadowFileObject) Close() error { return o.handle.Close() }

func (o *vshadowFileObject) Read(length int) ([]byte, error) {
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

func (o *vshadowFileObject) Seek(offset int64, whence int) (int64, error) {
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

func (o *vshadowFileObject) GetOffset() (int64, error) { return o.offset, nil }
func (o *vshadowFileObject) GetSize() (int64, error)    { return o.handle.Size() }
