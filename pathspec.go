package dfvfs

import (
	"fmt"
	"sort"
	"strings"
)

// A TypeIndicator names one back-end variant out of the closed vocabulary
// spec.md §6 defines. It is always an upper-case string constant.
type TypeIndicator string

// The closed set of supported back-end variants.
const (
	OS                TypeIndicator = "OS"
	FAKE              TypeIndicator = "FAKE"
	MOUNT             TypeIndicator = "MOUNT"
	RAW               TypeIndicator = "RAW"
	QCOW              TypeIndicator = "QCOW"
	VHDI              TypeIndicator = "VHDI"
	VMDK              TypeIndicator = "VMDK"
	EWF               TypeIndicator = "EWF"
	BDE               TypeIndicator = "BDE"
	TSK               TypeIndicator = "TSK"
	TSKPartition      TypeIndicator = "TSK_PARTITION"
	VShadow           TypeIndicator = "VSHADOW"
	GZIP              TypeIndicator = "GZIP"
	TAR               TypeIndicator = "TAR"
	ZIP               TypeIndicator = "ZIP"
	CPIO              TypeIndicator = "CPIO"
	CompressedStream  TypeIndicator = "COMPRESSED_STREAM"
	EncodedStream     TypeIndicator = "ENCODED_STREAM"
	DataRange         TypeIndicator = "DATA_RANGE"
)

// A PathSpec is an immutable, recursive address naming one location inside a
// possibly-deep stack of storage containers. See spec.md §3.
//
// PathSpec values are never mutated after New returns them; every accessor
// returns a copy or a read-only view.
type PathSpec struct {
	typeIndicator TypeIndicator
	parent        *PathSpec
	attrs         map[string]interface{}
	comparable    string
}

// TypeIndicator returns the variant of this PathSpec.
func (p *PathSpec) TypeIndicator() TypeIndicator {
	return p.typeIndicator
}

// Parent returns the parent PathSpec, or nil for a leaf variant.
func (p *PathSpec) Parent() *PathSpec {
	return p.parent
}

// Attr returns the named attribute and whether it was set.
func (p *PathSpec) Attr(name string) (interface{}, bool) {
	v, ok := p.attrs[name]
	return v, ok
}

// StringAttr returns the named string attribute or the empty string.
func (p *PathSpec) StringAttr(name string) string {
	if v, ok := p.attrs[name].(string); ok {
		return v
	}
	return ""
}

// IntAttr returns the named int attribute and whether it was set.
func (p *PathSpec) IntAttr(name string) (int64, bool) {
	switch v := p.attrs[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// Location is shorthand for the very common "location" string attribute.
func (p *PathSpec) Location() string {
	return p.StringAttr("location")
}

// Comparable is the canonical, chain-ordered textual representation used for
// equality, hashing and cache keys (spec.md §3, §6).
func (p *PathSpec) Comparable() string {
	return p.comparable
}

// Equal reports whether two PathSpecs are semantically identical.
func (p *PathSpec) Equal(other *PathSpec) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.comparable == other.comparable
}

// String implements fmt.Stringer by returning the Comparable form.
func (p *PathSpec) String() string {
	return p.comparable
}

// variantDescriptor declares the construction rules for one TypeIndicator:
// whether it is a leaf (must have no parent), which attributes are required,
// and the order attributes are emitted in when building Comparable.
type variantDescriptor struct {
	isLeaf       bool
	required     []string
	allowed      map[string]bool
	attrOrder    []string
}

func newVariantDescriptor(isLeaf bool, required []string, optional []string) variantDescriptor {
	allowed := make(map[string]bool, len(required)+len(optional))
	order := make([]string, 0, len(required)+len(optional))
	for _, r := range required {
		allowed[r] = true
		order = append(order, r)
	}
	for _, o := range optional {
		allowed[o] = true
		order = append(order, o)
	}
	return variantDescriptor{isLeaf: isLeaf, required: required, allowed: allowed, attrOrder: order}
}

// formatAttrValue renders a single attribute value per spec.md §4.1's
// canonical ordering rule: offsets in hex (0x%08x), indices in decimal,
// strings verbatim.
func formatAttrValue(name string, v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		if isOffsetAttr(name) {
			return fmt.Sprintf("0x%08x", val)
		}
		return fmt.Sprintf("%d", val)
	case int64:
		if isOffsetAttr(name) {
			return fmt.Sprintf("0x%08x", val)
		}
		return fmt.Sprintf("%d", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func isOffsetAttr(name string) bool {
	return strings.HasSuffix(name, "offset") || strings.HasSuffix(name, "_offset")
}

// buildComparable renders one spec in the chain, appending to the parent's
// already-rendered comparable text (spec.md §4.1, §6).
func buildComparable(parentComparable string, typeIndicator TypeIndicator, attrs map[string]interface{}, order []string) string {
	var sb strings.Builder
	sb.WriteString(parentComparable)
	sb.WriteString("type: ")
	sb.WriteString(string(typeIndicator))
	for _, name := range order {
		v, ok := attrs[name]
		if !ok {
			continue
		}
		sb.WriteString(", ")
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(formatAttrValue(name, v))
	}
	sb.WriteString("\n")
	return sb.String()
}

// sortedKnownKeys returns, sorted, the attribute names that are not in
// already, as a stable fallback order for attributes the descriptor didn't
// explicitly order. New rejects attributes a descriptor does not allow, so
// for specs built by New the result is empty.
func sortedKnownKeys(attrs map[string]interface{}, already map[string]bool) []string {
	extra := make([]string, 0)
	for k := range attrs {
		if !already[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}
