package dfvfs

// credentialsManager is a static registry of which credential identifiers a
// variant accepts (spec.md §4.2). It never changes after init(), so it needs
// no synchronization.
var credentialsManager = map[TypeIndicator]map[string]bool{}

// RegisterCredentials declares the credential identifiers accepted by a
// variant. Back ends that consult the KeyChain call this from their own
// init().
func RegisterCredentials(indicator TypeIndicator, identifiers ...string) {
	set := make(map[string]bool, len(identifiers))
	for _, id := range identifiers {
		set[id] = true
	}
	credentialsManager[indicator] = set
}

// AcceptsCredential reports whether the variant declared the identifier.
func AcceptsCredential(indicator TypeIndicator, identifier string) bool {
	set, ok := credentialsManager[indicator]
	if !ok {
		return false
	}
	return set[identifier]
}
