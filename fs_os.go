package dfvfs

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

func init() {
	RegisterVariant(OS, true, nil, []string{"location"})
	RegisterFileSystemOpener(OS, openOSFileSystem)
}

func openOSFileSystem(ctx *ResolverContext, spec *PathSpec) (FileSystem, error) {
	return &OSFileSystem{}, nil
}

// OSFileSystem wraps the host filesystem, grounded on the teacher's
// LocalFileSystem (dp_localfilesystem.go): Resolve joins the invariant,
// forward-slash path onto the platform separator.
type OSFileSystem struct {
	FileSystemBase
}

var _ FileSystem = (*OSFileSystem)(nil)

func (f *OSFileSystem) Open(spec *PathSpec) error {
	f.MarkOpened()
	return nil
}

func (f *OSFileSystem) Close() error {
	f.MarkClosed()
	return nil
}

func (f *OSFileSystem) resolve(path string) string {
	return string(filepath.Separator) + filepath.Join(SplitPath(path)...)
}

func (f *OSFileSystem) FileEntryExistsByPathSpec(spec *PathSpec) (bool, error) {
	_, err := os.Lstat(f.resolve(spec.Location()))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &BackEndError{Message: "stat", Cause: err}
	}
	return true, nil
}

func (f *OSFileSystem) GetRootFileEntry() (*FileEntry, error) {
	return f.GetFileEntryByPathSpec(mustNewOSSpec("/"))
}

func mustNewOSSpec(location string) *PathSpec {
	spec, err := New(OS, nil, map[string]interface{}{"location": location})
	if err != nil {
		panic(err)
	}
	return spec
}

func (f *OSFileSystem) GetFileEntryByPathSpec(spec *PathSpec) (*FileEntry, error) {
	resolved := f.resolve(spec.Location())
	info, err := os.Lstat(resolved)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &BackEndError{Message: "stat", Cause: err}
	}

	isRoot := spec.Location() == "" || spec.Location() == "/"
	name := BasenamePath(spec.Location())
	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		link, _ = os.Readlink(resolved)
	}

	statFn := func() (*VFSStat, error) {
		return osStat(resolved, info)
	}
	dirFn := func() (Directory, error) {
		if !info.IsDir() {
			return nil, &UnsupportedError{Message: "not a directory"}
		}
		entries, err := os.ReadDir(resolved)
		if err != nil {
			return nil, &BackEndError{Message: "readdir", Cause: err}
		}
		children := make([]*PathSpec, 0, len(entries))
		for _, e := range entries {
			children = append(children, mustNewOSSpec(JoinPath(spec.Location(), e.Name())))
		}
		return newSliceDirectory(children), nil
	}

	return NewFileEntry(f, spec, isRoot, false, name, link, statFn, dirFn), nil
}

func (f *OSFileSystem) BasenamePath(path string) string { return BasenamePath(path) }
func (f *OSFileSystem) DirnamePath(path string) string   { return DirnamePath(path) }
func (f *OSFileSystem) JoinPath(segments ...string) string { return JoinPath(segments...) }
func (f *OSFileSystem) SplitPath(path string) []string     { return SplitPath(path) }

// osStat enriches os.FileInfo with unix.Stat so Ino/UID/GID/nanosecond
// timestamps are populated, which os.FileInfo alone cannot provide — the
// same golang.org/x/sys/unix package gvisor's own filesystem layer uses for
// the identical reason.
func osStat(resolved string, info os.FileInfo) (*VFSStat, error) {
	var st unix.Stat_t
	if err := unix.Lstat(resolved, &st); err != nil {
		return nil, &BackEndError{Message: "lstat", Cause: err}
	}

	entryType := osModeToEntryType(info.Mode())
	size := info.Size()
	mode := uint32(info.Mode().Perm())
	uid := st.Uid
	gid := st.Gid
	ino := st.Ino
	mtime := time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
	atime := time.Unix(st.Atim.Sec, st.Atim.Nsec)
	ctime := time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	allocated := true

	return &VFSStat{
		Type:        &entryType,
		Size:        &size,
		Mode:        &mode,
		UID:         &uid,
		GID:         &gid,
		Ino:         &ino,
		MTime:       &mtime,
		ATime:       &atime,
		CTime:       &ctime,
		IsAllocated: &allocated,
	}, nil
}

func osModeToEntryType(mode os.FileMode) EntryType {
	switch {
	case mode&os.ModeSymlink != 0:
		return TypeLink
	case mode.IsDir():
		return TypeDirectory
	case mode&os.ModeSocket != 0:
		return TypeSocket
	case mode&os.ModeNamedPipe != 0:
		return TypePipe
	case mode&os.ModeDevice != 0:
		return TypeDevice
	default:
		return TypeFile
	}
}

// osFileObject wraps *os.File behind the FileObject contract.
type osFileObject struct {
	path string
	file *os.File
}

func init() {
	RegisterFileObjectOpener(OS, openOSFileObject)
}

func openOSFileObject(ctx *ResolverContext, spec *PathSpec) (FileObject, error) {
	fsIface, err := ResolveFileSystem(ctx, spec)
	if err != nil {
		return nil, err
	}
	osfs, ok := fsIface.(*OSFileSystem)
	if !ok {
		return nil, &BadPathSpecError{Message: "OS file object requires an OS file system"}
	}
	return &osFileObject{path: osfs.resolve(spec.Location())}, nil
}

var _ FileObject = (*osFileObject)(nil)

func (o *osFileObject) Open() error {
	f, err := os.Open(o.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Location: o.path, Cause: err}
		}
		if os.IsPermission(err) {
			return &AccessDeniedError{Message: o.path, Cause: err}
		}
		return &BackEndError{Message: "open", Cause: err}
	}
	o.file = f
	return nil
}

func (o *osFileObject) Close() error {
	if o.file == nil {
		return nil
	}
	return o.file.Close()
}

func (o *osFileObject) Read(length int) ([]byte, error) {
	if length < 0 {
		buf := make([]byte, 0, 4096)
		tmp := make([]byte, 4096)
		for {
			n, err := o.file.Read(tmp)
			buf = append(buf, tmp[:n]...)
			if err != nil {
				break
			}
		}
		return buf, nil
	}
	buf := make([]byte, length)
	n, err := o.file.Read(buf)
	if err != nil && n == 0 {
		return []byte{}, nil
	}
	return buf[:n], nil
}

func (o *osFileObject) Seek(offset int64, whence int) (int64, error) {
	return o.file.Seek(offset, whence)
}

func (o *osFileObject) GetOffset() (int64, error) {
	return o.file.Seek(0, SeekCur)
}

func (o *osFileObject) GetSize() (int64, error) {
	info, err := o.file.Stat()
	if err != nil {
		return 0, &BackEndError{Message: "stat", Cause: err}
	}
	return info.Size(), nil
}
