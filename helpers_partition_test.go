package dfvfs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildMBR constructs a minimal one-partition MBR image for tests.
func buildMBR(startSector, numSectors uint32) []byte {
	buf := make([]byte, 512)
	entry := buf[mbrPartitionOffset : mbrPartitionOffset+mbrEntrySize]
	entry[4] = 0x83 // Linux partition type, any non-zero value marks "present"
	binary.LittleEndian.PutUint32(entry[8:12], startSector)
	binary.LittleEndian.PutUint32(entry[12:16], numSectors)
	buf[mbrSignatureOffset] = 0x55
	buf[mbrSignatureOffset+1] = 0xAA
	return buf
}

type memImageHandle struct {
	data []byte
}

func (h *memImageHandle) ReadAt(b []byte, off int64) (int, error) {
	if off >= int64(len(h.data)) {
		return 0, nil
	}
	n := copy(b, h.data[off:])
	return n, nil
}
func (h *memImageHandle) Size() (int64, error) { return int64(len(h.data)), nil }
func (h *memImageHandle) Close() error          { return nil }

func TestReadPartitionTableMBR(t *testing.T) {
	img := buildMBR(2048, 4096)
	entries, err := readPartitionTable(&memImageHandle{data: img})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(2048*512), entries[0].startOffset)
	require.Equal(t, int64(4096*512), entries[0].size)
	require.Equal(t, 1, entries[0].index)
}

func TestPartitionIndexFromLocation(t *testing.T) {
	idx, err := partitionIndexFromLocation("/p3")
	require.NoError(t, err)
	require.Equal(t, 3, idx)

	_, err = partitionIndexFromLocation("/bogus")
	require.Error(t, err)
}
