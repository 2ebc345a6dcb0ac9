package dfvfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLeafRejectsParent(t *testing.T) {
	os1, err := New(OS, nil, map[string]interface{}{"location": "/"})
	require.NoError(t, err)

	_, err = New(FAKE, os1, nil)
	require.Error(t, err)
	require.Equal(t, "bad-path-spec", (err.(*BadPathSpecError)).Kind())
}

func TestNewNonLeafRequiresParent(t *testing.T) {
	_, err := New(GZIP, nil, map[string]interface{}{"location": "/a.gz"})
	require.Error(t, err)
}

func TestNewRejectsUnknownAttribute(t *testing.T) {
	_, err := New(OS, nil, map[string]interface{}{"location": "/", "bogus": 1})
	require.Error(t, err)
}

func TestComparableChainsParent(t *testing.T) {
	osSpec, err := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	require.NoError(t, err)

	rawSpec, err := New(RAW, osSpec, nil)
	require.NoError(t, err)

	require.Contains(t, rawSpec.Comparable(), "type: OS, location: /image.raw\n")
	require.Contains(t, rawSpec.Comparable(), "type: RAW\n")
}

func TestEqualIsStructural(t *testing.T) {
	a, err := New(OS, nil, map[string]interface{}{"location": "/x"})
	require.NoError(t, err)
	b, err := New(OS, nil, map[string]interface{}{"location": "/x"})
	require.NoError(t, err)

	require.True(t, a.Equal(b))
	require.NotSame(t, a, b)
}

func TestOffsetAttrFormattedAsHex(t *testing.T) {
	osSpec, err := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	require.NoError(t, err)
	rawSpec, err := New(RAW, osSpec, nil)
	require.NoError(t, err)

	rangeSpec, err := New(DataRange, rawSpec, map[string]interface{}{"range_offset": 512, "range_size": 1024})
	require.NoError(t, err)

	require.Contains(t, rangeSpec.Comparable(), "range_offset: 0x00000200")
}

func TestTSKPartitionLocationWinsOverConsistentIndex(t *testing.T) {
	osSpec, _ := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	rawSpec, _ := New(RAW, osSpec, nil)

	_, err := New(TSKPartition, rawSpec, map[string]interface{}{"location": "/p1", "part_index": 1})
	require.NoError(t, err)
}

func TestTSKPartitionConflictingAttrsIsBadPathSpec(t *testing.T) {
	osSpec, _ := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	rawSpec, _ := New(RAW, osSpec, nil)

	_, err := New(TSKPartition, rawSpec, map[string]interface{}{"location": "/p1", "part_index": 2})
	require.Error(t, err)
	require.Equal(t, "bad-path-spec", err.(*BadPathSpecError).Kind())
}

func TestTSKPartitionStartOffsetWithLocationIsBadPathSpec(t *testing.T) {
	osSpec, _ := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	rawSpec, _ := New(RAW, osSpec, nil)

	_, err := New(TSKPartition, rawSpec, map[string]interface{}{"location": "/p1", "start_offset": 999999})
	require.Error(t, err)
	require.Equal(t, "bad-path-spec", err.(*BadPathSpecError).Kind())
}

func TestTSKPartitionStartOffsetWithPartIndexIsBadPathSpec(t *testing.T) {
	osSpec, _ := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	rawSpec, _ := New(RAW, osSpec, nil)

	_, err := New(TSKPartition, rawSpec, map[string]interface{}{"part_index": 1, "start_offset": 999999})
	require.Error(t, err)
	require.Equal(t, "bad-path-spec", err.(*BadPathSpecError).Kind())
}

func TestTSKPartitionStartOffsetAlone(t *testing.T) {
	osSpec, _ := New(OS, nil, map[string]interface{}{"location": "/image.raw"})
	rawSpec, _ := New(RAW, osSpec, nil)

	_, err := New(TSKPartition, rawSpec, map[string]interface{}{"start_offset": 32256})
	require.NoError(t, err)
}
