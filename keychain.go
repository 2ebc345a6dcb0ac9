package dfvfs

import "sync"

// KeyChain maps (PathSpec.Comparable, credential identifier) to credential
// bytes (spec.md §4.2). It is keyed on Comparable rather than object
// identity, because two independently constructed PathSpecs addressing the
// same logical location must share credentials.
//
// KeyChain is safe for concurrent reads; concurrent mutation is guarded by
// an internal mutex, but callers sharing a single ResolverContext across
// goroutines must still follow spec.md §5's external-synchronization rule
// for the Context as a whole.
type KeyChain struct {
	mu      sync.RWMutex
	entries map[string]map[string][]byte
}

// NewKeyChain returns an empty KeyChain.
func NewKeyChain() *KeyChain {
	return &KeyChain{entries: make(map[string]map[string][]byte)}
}

// SetCredential stores bytes under (spec, identifier). It rejects identifiers
// the Credentials Manager did not declare for spec's variant.
func (k *KeyChain) SetCredential(spec *PathSpec, identifier string, bytes []byte) error {
	if !AcceptsCredential(spec.TypeIndicator(), identifier) {
		return &NoSuchCredentialError{TypeIndicator: spec.TypeIndicator(), Identifier: identifier}
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	key := spec.Comparable()
	bucket, ok := k.entries[key]
	if !ok {
		bucket = make(map[string][]byte)
		k.entries[key] = bucket
	}
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	bucket[identifier] = cp
	return nil
}

// GetCredential returns the stored bytes and true, or (nil, false) if absent.
func (k *KeyChain) GetCredential(spec *PathSpec, identifier string) ([]byte, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	bucket, ok := k.entries[spec.Comparable()]
	if !ok {
		return nil, false
	}
	v, ok := bucket[identifier]
	return v, ok
}

// GetAnyCredential returns the first present credential among the given
// identifiers, in priority order — used by back ends like BDE that accept
// several mutually-exclusive unlock mechanisms.
func (k *KeyChain) GetAnyCredential(spec *PathSpec, identifiers ...string) (string, []byte, bool) {
	for _, id := range identifiers {
		if v, ok := k.GetCredential(spec, id); ok {
			return id, v, true
		}
	}
	return "", nil, false
}
