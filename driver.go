package dfvfs

import "io"

// ImageDriver is the small adapter seam spec.md §6 mandates for the
// individual third-party container libraries (libqcow, libvhdi, libvmdk,
// libewf, libbde's decrypted payload, sleuthkit, libvshadow): this module
// treats their concrete decoders as opaque and consumes them only through
// this interface. None of those libraries appear in the retrieval pack, so
// no default production implementation ships here — callers register one
// (or use the in-memory test driver used by this module's own tests).
type ImageDriver interface {
	// Open hands the driver the raw container bytes (typically a FileObject
	// from the parent back end) plus any credentials the caller collected
	// from the KeyChain. credentials is nil when the format needs none.
	Open(source io.ReaderAt, size int64, credentials map[string][]byte) (ImageHandle, error)
}

// ImageHandle is the opened, decoded form of one container. For the
// single-payload formats (RAW/QCOW/VHDI/VMDK/EWF/BDE) this is just the
// decoded byte stream and its size; for TSK/VSHADOW it also exposes the
// driver's native enumeration so the back end can build FileEntry children.
type ImageHandle interface {
	io.Closer
	ReadAt(b []byte, off int64) (int, error)
	Size() (int64, error)
}

// VolumeEntry is one native entry a TSK-class or VSHADOW-class driver
// surfaces during enumeration, before the back end wraps it as a PathSpec.
type VolumeEntry struct {
	Name        string
	Identifier  string
	Size        int64
	IsDirectory bool
	IsAllocated bool

	// CreationTime is the entry's native FILETIME timestamp, 0 if the driver
	// has none to report. VSHADOW back end converts it via filetimeToTime.
	CreationTime int64
}

// EnumeratingImageHandle is implemented by drivers whose format has internal
// structure (TSK inodes, VSHADOW stores) rather than a single flat payload.
type EnumeratingImageHandle interface {
	ImageHandle
	List() ([]VolumeEntry, error)
	OpenEntry(identifier string) (ImageHandle, error)
}

// driverRegistry lets back ends be registered against a concrete ImageDriver
// at program wiring time (e.g. in a cmd/ main, or in tests), keeping the
// format-policy code in this package fully decoupled from any concrete
// third-party decoder.
var driverRegistry = map[TypeIndicator]ImageDriver{}

// RegisterDriver installs the ImageDriver used by a single-payload or
// enumerating back end. It is typically called once at process start.
func RegisterDriver(indicator TypeIndicator, driver ImageDriver) {
	driverRegistry[indicator] = driver
}

func lookupDriver(indicator TypeIndicator) (ImageDriver, error) {
	d, ok := driverRegistry[indicator]
	if !ok {
		return nil, &UnsupportedError{Message: string(indicator) + ": no ImageDriver registered"}
	}
	return d, nil
}
