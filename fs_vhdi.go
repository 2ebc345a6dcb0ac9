package dfvfs

// VHDI wraps a parent stream holding a Virtual Hard Disk image. No libvhdi
// binding exists in this module's dependency set; decoding is delegated to a
// driver registered via RegisterDriver(VHDI, ...) (spec.md §6, driver.go).
func init() {
	RegisterVariant(VHDI, false, nil, []string{"location"})
	RegisterFileSystemOpener(VHDI, func(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
		return openPayloadFileSystem(ctx, spec, nil)
	})
	RegisterFileObjectOpener(VHDI, openPayloadFileObject)
}
