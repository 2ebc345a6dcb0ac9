package dfvfs

import "fmt"

// pathSpecFactory is the constructor registry behind New. One package-level
// instance (defaultFactory) is populated by each back end's init().
type pathSpecFactory struct {
	descriptors map[TypeIndicator]variantDescriptor
}

var defaultFactory = &pathSpecFactory{descriptors: make(map[TypeIndicator]variantDescriptor)}

// RegisterVariant installs the construction rules for one TypeIndicator. Back
// ends call this from their own init() so that the factory never needs to
// know about concrete back-end packages.
func RegisterVariant(indicator TypeIndicator, isLeaf bool, required []string, optional []string) {
	defaultFactory.descriptors[indicator] = newVariantDescriptor(isLeaf, required, optional)
}

// New constructs a PathSpec for the given variant, validating the leaf/parent
// constraint, required attributes, and unknown attributes (spec.md §4.1).
func New(indicator TypeIndicator, parent *PathSpec, attrs map[string]interface{}) (*PathSpec, error) {
	desc, ok := defaultFactory.descriptors[indicator]
	if !ok {
		return nil, &BadPathSpecError{Message: fmt.Sprintf("unregistered type indicator %q", indicator)}
	}

	if desc.isLeaf && parent != nil {
		return nil, &BadPathSpecError{Message: fmt.Sprintf("%s is a leaf variant and must not have a parent", indicator)}
	}
	if !desc.isLeaf && parent == nil {
		return nil, &BadPathSpecError{Message: fmt.Sprintf("%s is not a leaf variant and requires a parent", indicator)}
	}

	for _, name := range desc.required {
		if _, ok := attrs[name]; !ok {
			return nil, &BadPathSpecError{Message: fmt.Sprintf("%s requires attribute %q", indicator, name)}
		}
	}

	for name := range attrs {
		if !desc.allowed[name] {
			return nil, &BadPathSpecError{Message: fmt.Sprintf("%s does not accept attribute %q", indicator, name)}
		}
	}

	if indicator == TSKPartition {
		if err := validateTSKPartitionAttrs(attrs); err != nil {
			return nil, err
		}
	}

	copied := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}

	parentComparable := ""
	if parent != nil {
		parentComparable = parent.comparable
	}

	order := append(append([]string{}, desc.attrOrder...), sortedKnownKeys(copied, desc.allowed)...)

	spec := &PathSpec{
		typeIndicator: indicator,
		parent:        parent,
		attrs:         copied,
		comparable:    buildComparable(parentComparable, indicator, copied, order),
	}
	return spec, nil
}

// validateTSKPartitionAttrs resolves the Open Question from spec.md §9:
// location wins when both location and part_index/start_offset are present,
// but supplying inconsistent redundant attributes is a bad-path-spec.
//
// location and part_index both live in the same "partition index" domain, so
// the two can be cross-checked syntactically. start_offset lives in the
// "byte offset into the disk" domain: only the partition table itself
// (read at FileSystem-open time, see selectPartition) can confirm whether a
// given start_offset actually belongs to the partition location/part_index
// names. Since the factory has no access to that table, it cannot tell
// agreement from disagreement — so rather than silently accepting an
// unverifiable combination (the old behaviour), start_offset is rejected
// outright whenever location or part_index is also present.
func validateTSKPartitionAttrs(attrs map[string]interface{}) error {
	_, hasLocation := attrs["location"]
	_, hasIndex := attrs["part_index"]
	_, hasOffset := attrs["start_offset"]

	if hasLocation && hasIndex {
		loc := fmt.Sprintf("%v", attrs["location"])
		if idx, err := partitionIndexFromLocation(loc); err == nil {
			if v, ok := asPartitionIndex(attrs["part_index"]); ok && v != idx {
				return &BadPathSpecError{Message: fmt.Sprintf("location %q conflicts with part_index %d", loc, v)}
			}
		}
	}

	if hasOffset && (hasLocation || hasIndex) {
		return &BadPathSpecError{Message: "start_offset cannot be combined with location or part_index"}
	}

	return nil
}

// asPartitionIndex normalizes an attribute value that may have been supplied
// as either int or int64.
func asPartitionIndex(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
