package dfvfs

// VMDK wraps a parent stream holding a VMware virtual disk image. No libvmdk
// binding exists in this module's dependency set; decoding is delegated to a
// driver registered via RegisterDriver(VMDK, ...) (spec.md §6, driver.go).
func init() {
	RegisterVariant(VMDK, false, nil, []string{"location"})
	RegisterFileSystemOpener(VMDK, func(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
		return openPayloadFileSystem(ctx, spec, nil)
	})
	RegisterFileObjectOpener(VMDK, openPayloadFileObject)
}
