package dfvfs

import (
	"sync"

	"github.com/google/uuid"
)

// cacheEntry pairs a handle with its reference count (spec.md §4.6).
type cacheEntry struct {
	fs     FileSystem
	obj    FileObject
	refs   int
}

// ResolverContext owns the per-session FileSystem and FileObject caches plus
// the shared KeyChain (spec.md §3, §4.6). A single Context must not be
// shared across preemptive threads without external synchronization
// (spec.md §5); internally it still guards its own maps with a mutex so that
// "external synchronization" only needs to cover compound operations, not
// every individual cache access.
type ResolverContext struct {
	ID uuid.UUID

	// Retain switches the eviction policy at refcount 0 from "close
	// immediately" (the default) to "keep forever until Empty()" — the
	// simpler of the two policies spec.md §4.6 explicitly permits.
	Retain bool

	mu          sync.Mutex
	fileSystems map[string]*cacheEntry
	fileObjects map[string]*cacheEntry
	keyChain    *KeyChain
	mounts      map[string]*PathSpec
}

// NewResolverContext returns an empty, ready-to-use Context.
func NewResolverContext() *ResolverContext {
	return &ResolverContext{
		ID:          uuid.New(),
		fileSystems: make(map[string]*cacheEntry),
		fileObjects: make(map[string]*cacheEntry),
		keyChain:    NewKeyChain(),
		mounts:      make(map[string]*PathSpec),
	}
}

// KeyChain returns the Context-owned credential store.
func (c *ResolverContext) KeyChain() *KeyChain {
	return c.keyChain
}

// Mount registers a named target PathSpec for the MOUNT back end to resolve
// (SPEC_FULL.md §7).
func (c *ResolverContext) Mount(name string, target *PathSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mounts[name] = target
}

// ResolveMount looks up a name registered via Mount.
func (c *ResolverContext) ResolveMount(name string) (*PathSpec, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := c.mounts[name]
	return target, ok
}

// GetFileSystem returns the cached FileSystem for spec, incrementing its
// refcount, or (nil, false) on a cache miss.
func (c *ResolverContext) GetFileSystem(spec *PathSpec) (FileSystem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.fileSystems[spec.Comparable()]
	if !ok {
		return nil, false
	}
	entry.refs++
	return entry.fs, true
}

// CacheFileSystem inserts fs under spec with refcount 1. Callers must not
// call this for a spec already present; use GetFileSystem first.
func (c *ResolverContext) CacheFileSystem(spec *PathSpec, fs FileSystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileSystems[spec.Comparable()] = &cacheEntry{fs: fs, refs: 1}
}

// ReleaseFileSystem decrements the refcount for spec. At 0, the entry is
// closed immediately unless Retain is set. Returns BadStateError if spec was
// never cached or is already fully released.
func (c *ResolverContext) ReleaseFileSystem(spec *PathSpec) error {
	c.mu.Lock()
	entry, ok := c.fileSystems[spec.Comparable()]
	if !ok || entry.refs <= 0 {
		c.mu.Unlock()
		return &BadStateError{Message: "release of unreferenced file system: " + spec.Comparable()}
	}
	entry.refs--
	shouldClose := entry.refs == 0 && !c.Retain
	if entry.refs == 0 && !c.Retain {
		delete(c.fileSystems, spec.Comparable())
	}
	c.mu.Unlock()

	if shouldClose {
		return entry.fs.Close()
	}
	return nil
}

// GetFileObject returns the cached FileObject for spec, incrementing its
// refcount, or (nil, false) on a cache miss.
func (c *ResolverContext) GetFileObject(spec *PathSpec) (FileObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.fileObjects[spec.Comparable()]
	if !ok {
		return nil, false
	}
	entry.refs++
	return entry.obj, true
}

// CacheFileObject inserts obj under spec with refcount 1.
func (c *ResolverContext) CacheFileObject(spec *PathSpec, obj FileObject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileObjects[spec.Comparable()] = &cacheEntry{obj: obj, refs: 1}
}

// ReleaseFileObject mirrors ReleaseFileSystem for the FileObject cache.
func (c *ResolverContext) ReleaseFileObject(spec *PathSpec) error {
	c.mu.Lock()
	entry, ok := c.fileObjects[spec.Comparable()]
	if !ok || entry.refs <= 0 {
		c.mu.Unlock()
		return &BadStateError{Message: "release of unreferenced file object: " + spec.Comparable()}
	}
	entry.refs--
	shouldClose := entry.refs == 0 && !c.Retain
	if entry.refs == 0 && !c.Retain {
		delete(c.fileObjects, spec.Comparable())
	}
	c.mu.Unlock()

	if shouldClose {
		return entry.obj.Close()
	}
	return nil
}

// Empty purges both caches, closing every handle regardless of refcount.
// Intended for session teardown.
func (c *ResolverContext) Empty() error {
	c.mu.Lock()
	fileSystems := c.fileSystems
	fileObjects := c.fileObjects
	c.fileSystems = make(map[string]*cacheEntry)
	c.fileObjects = make(map[string]*cacheEntry)
	c.mu.Unlock()

	var firstErr error
	for key, entry := range fileSystems {
		if err := entry.fs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		log.WithFields(map[string]interface{}{"comparable": key, "context": c.ID.String()}).Debug("closed file system on Empty")
	}
	for key, entry := range fileObjects {
		if err := entry.obj.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		log.WithFields(map[string]interface{}{"comparable": key, "context": c.ID.String()}).Debug("closed file object on Empty")
	}
	return firstErr
}
