package dfvfs

// QCOW wraps a parent stream holding a QEMU copy-on-write disk image. No
// libqcow binding exists in this module's dependency set, so decoding is
// delegated entirely to a driver registered via RegisterDriver(QCOW, ...)
// (spec.md §6, driver.go).
func init() {
	RegisterVariant(QCOW, false, nil, []string{"location"})
	RegisterFileSystemOpener(QCOW, func(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
		return openPayloadFileSystem(ctx, spec, nil)
	})
	RegisterFileObjectOpener(QCOW, openPayloadFileObject)
}
