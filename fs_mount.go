package dfvfs

func init() {
	RegisterVariant(MOUNT, true, []string{"location"}, nil)
	RegisterFileSystemOpener(MOUNT, openMountFileSystem)
	RegisterFileObjectOpener(MOUNT, openMountFileObject)
}

// MountFileSystem resolves its "location" attribute as a mount name against
// the owning ResolverContext's mount table and delegates every operation to
// the resulting target PathSpec's file system, grounded on the teacher's
// ChRoot/MountableFileSystem prefix-delegation idiom (dp_changeroot.go,
// dp_mountablefilesystem.go) but keyed by name instead of by path prefix. The
// target's FileSystem is resolved once, at open, and held for the mount's
// lifetime rather than re-resolved (and re-incrementing the Context's
// refcount) on every call.
type MountFileSystem struct {
	FileSystemBase
	ctx      *ResolverContext
	target   *PathSpec
	targetFS FileSystem
}

var _ FileSystem = (*MountFileSystem)(nil)

func openMountFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	name := spec.Location()
	target, ok := ctx.ResolveMount(name)
	if !ok {
		return nil, &NotFoundError{Location: "mount " + name}
	}
	targetFS, err := ResolveFileSystem(ctx, target)
	if err != nil {
		return nil, err
	}
	return &MountFileSystem{ctx: ctx, target: target, targetFS: targetFS}, nil
}

func (f *MountFileSystem) Open(spec *PathSpec) error {
	f.MarkOpened()
	return nil
}

func (f *MountFileSystem) Close() error {
	if !f.MarkClosed() {
		return nil
	}
	return f.ctx.ReleaseFileSystem(f.target)
}

func (f *MountFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	return f.targetFS.FileEntryExistsByPathSpec(f.target)
}

func (f *MountFileSystem) GetRootFileEntry() (*FileEntry, error) {
	return f.targetFS.GetRootFileEntry()
}

func (f *MountFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
	return f.targetFS.GetFileEntryByPathSpec(f.target)
}

func (f *MountFileSystem) BasenamePath(path string) string   { return BasenamePath(path) }
func (f *MountFileSystem) DirnamePath(path string) string     { return DirnamePath(path) }
func (f *MountFileSystem) JoinPath(segments ...string) string { return JoinPath(segments...) }
func (f *MountFileSystem) SplitPath(path string) []string     { return SplitPath(path) }

// mountFileObject wraps the target's FileObject so Close also releases the
// Context's reference to the target spec, which ResolveFileObject acquired
// on open's behalf.
type mountFileObject struct {
	ctx        *ResolverContext
	targetSpec *PathSpec
	target     FileObject
	closed     bool
}

func openMountFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	mfs, ok := fsIface.(*MountFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "MOUNT file object requires a MOUNT file system"}
	}
	target, err := ResolveFileObject(ctx, mfs.target)
	if err != nil {
		return nil, err
	}
	return &mountFileObject{ctx: ctx, targetSpec: mfs.target, target: target}, nil
}

var _ FileObject = (*mountFileObject)(nil)

func (o *mountFileObject) Open() error { return nil }

func (o *mountFileObject) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.ctx.ReleaseFileObject(o.targetSpec)
}

func (o *mountFileObject) Read(length int) ([]byte, error)       { return o.target.Read(length) }
func (o *mountFileObject) Seek(offset int64, whence int) (int64, error) {
	return o.target.Seek(offset, whence)
}
func (o *mountFileObject) GetOffset() (int64, error) { return o.target.GetOffset() }
func (o *mountFileObject) GetSize() (int64, error)   { return o.target.GetSize() }
