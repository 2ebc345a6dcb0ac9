package dfvfs

// EWF wraps a parent stream holding an Expert Witness Compression Format
// image (the EnCase/FTK forensic evidence container). No libewf binding
// exists in this module's dependency set; decoding is delegated to a driver
// registered via RegisterDriver(EWF, ...) (spec.md §6, driver.go).
func init() {
	RegisterVariant(EWF, false, nil, []string{"location"})
	RegisterFileSystemOpener(EWF, func(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
		return openPayloadFileSystem(ctx, spec, nil)
	})
	RegisterFileObjectOpener(EWF, openPayloadFileObject)
}
