package dfvfs

// FileSystemOpener constructs (or reuses, via ctx) the FileSystem for spec.
// Implementations that need a parent opened first call ResolveFileSystem
// recursively — the Resolver never opens out of dependency order because
// PathSpecs are immutable DAGs rooted at a leaf variant (spec.md §4.5).
type FileSystemOpener func(ctx *ResolverContext, spec *PathSpec) (FileSystem, error)

// FileObjectOpener constructs the FileObject for spec, typically requiring
// the FileSystem for the same spec to already be open.
type FileObjectOpener func(ctx *ResolverContext, spec *PathSpec) (FileObject, error)

var (
	fileSystemOpeners = map[TypeIndicator]FileSystemOpener{}
	fileObjectOpeners = map[TypeIndicator]FileObjectOpener{}
)

// RegisterFileSystemOpener installs the opener used by ResolveFileSystem for
// one variant. Back ends call this from their own init().
func RegisterFileSystemOpener(indicator TypeIndicator, opener FileSystemOpener) {
	fileSystemOpeners[indicator] = opener
}

// RegisterFileObjectOpener installs the opener used by ResolveFileObject.
func RegisterFileObjectOpener(indicator TypeIndicator, opener FileObjectOpener) {
	fileObjectOpeners[indicator] = opener
}

// ResolveFileSystem dispatches spec to the correct opener in dependency
// order, consulting and populating ctx's cache (spec.md §4.5).
//
// On success the returned FileSystem is Open and cached with refcount (at
// least) 1; callers must pair every successful ResolveFileSystem with a
// ReleaseFileSystem.
func ResolveFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	if fs, ok := ctx.GetFileSystem(spec); ok {
		return fs, nil
	}

	opener, ok := fileSystemOpeners[spec.TypeIndicator()]
	if !ok {
		return nil, &UnsupportedError{Message: string(spec.TypeIndicator()) + ": no FileSystem opener registered"}
	}

	fs, err := opener(ctx, spec)
	if err != nil {
		return nil, err
	}
	if err := fs.Open(spec); err != nil {
		return nil, err
	}
	ctx.CacheFileSystem(spec, fs)
	log.WithFields(map[string]interface{}{
		"comparable": spec.Comparable(),
		"context":    ctx.ID.String(),
	}).Debug("opened file system")
	return fs, nil
}

// ResolveFileObject dispatches spec to the correct FileObject opener,
// consulting and populating ctx's cache.
func ResolveFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	if obj, ok := ctx.GetFileObject(spec); ok {
		return obj, nil
	}

	opener, ok := fileObjectOpeners[spec.TypeIndicator()]
	if !ok {
		return nil, &UnsupportedError{Message: string(spec.TypeIndicator()) + ": no FileObject opener registered"}
	}

	obj, err := opener(ctx, spec)
	if err != nil {
		return nil, err
	}
	if err := obj.Open(); err != nil {
		return nil, err
	}
	ctx.CacheFileObject(spec, obj)
	log.WithFields(map[string]interface{}{
		"comparable": spec.Comparable(),
		"context":    ctx.ID.String(),
	}).Debug("opened file object")
	return obj, nil
}

// resolveParentFileSystem opens (or reuses) the FileSystem of spec.Parent(),
// returning a BadPathSpecError if spec has no parent — a programmer error for
// any non-leaf variant, since the Factory already rejects non-leaf specs
// without a parent. The back ends in this package resolve their parent's
// FileObject directly and do not call it.
func resolveParentFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	parent := spec.Parent()
	if parent == nil {
		return nil, &BadPathSpecError{Message: string(spec.TypeIndicator()) + ": missing parent"}
	}
	return ResolveFileSystem(ctx, parent)
}
