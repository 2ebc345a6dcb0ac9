package dfvfs

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// partitionIndexFromLocation parses the canonical "/p<n>" location form used
// by the TSK_PARTITION back end into its 1-based partition index.
func partitionIndexFromLocation(loc string) (int, error) {
	trimmed := strings.TrimPrefix(loc, "/")
	if !strings.HasPrefix(trimmed, "p") {
		return 0, fmt.Errorf("not a /p<n> location: %q", loc)
	}
	n, err := strconv.Atoi(trimmed[1:])
	if err != nil {
		return 0, fmt.Errorf("not a /p<n> location: %q", loc)
	}
	return n, nil
}

// partitionLocation is the inverse of partitionIndexFromLocation.
func partitionLocation(index int) string {
	return fmt.Sprintf("/p%d", index)
}

// tskPartitionEntry describes one partition table row, in disk order.
type tskPartitionEntry struct {
	index       int
	startOffset int64
	size        int64
	isAllocated bool
}

const (
	mbrSignatureOffset = 510
	mbrPartitionOffset = 446
	mbrEntrySize       = 16
	gptSignature       = "EFI PART"
)

// readPartitionTable recognizes MBR and GPT layouts directly, without a
// sleuthkit binding: both formats are small, well-documented fixed binary
// layouts that encoding/binary can decode exactly as well as a C library
// would (spec.md §6 only requires that TSK_PARTITION enumerate partitions
// consistently, not that it match any particular vendor's table parser).
func readPartitionTable(handle ImageHandle) ([]tskPartitionEntry, error) {
	header := make([]byte, 512)
	if _, err := handle.ReadAt(header, 0); err != nil {
		return nil, &BackEndError{Message: "read partition table header", Cause: err}
	}

	if header[mbrSignatureOffset] != 0x55 || header[mbrSignatureOffset+1] != 0xAA {
		return nil, &UnsupportedError{Message: "no recognizable MBR/GPT signature"}
	}

	gptBlock := make([]byte, 512)
	if _, err := handle.ReadAt(gptBlock, 512); err == nil && string(gptBlock[:8]) == gptSignature {
		return readGPT(handle, gptBlock)
	}
	return readMBR(header)
}

func readMBR(header []byte) ([]tskPartitionEntry, error) {
	var entries []tskPartitionEntry
	index := 1
	for i := 0; i < 4; i++ {
		off := mbrPartitionOffset + i*mbrEntrySize
		entry := header[off : off+mbrEntrySize]
		partitionType := entry[4]
		if partitionType == 0 {
			continue
		}
		startLBA := binary.LittleEndian.Uint32(entry[8:12])
		numSectors := binary.LittleEndian.Uint32(entry[12:16])
		entries = append(entries, tskPartitionEntry{
			index:       index,
			startOffset: int64(startLBA) * 512,
			size:        int64(numSectors) * 512,
			isAllocated: true,
		})
		index++
	}
	if len(entries) == 0 {
		return nil, &UnsupportedError{Message: "MBR with no partition entries"}
	}
	return entries, nil
}

func readGPT(handle ImageHandle, header []byte) ([]tskPartitionEntry, error) {
	partEntryLBA := int64(binary.LittleEndian.Uint64(header[72:80]))
	numEntries := binary.LittleEndian.Uint32(header[80:84])
	entrySize := binary.LittleEndian.Uint32(header[84:88])
	if entrySize == 0 || numEntries == 0 {
		return nil, &UnsupportedError{Message: "GPT header with no partition entries"}
	}

	buf := make([]byte, int(numEntries)*int(entrySize))
	if _, err := handle.ReadAt(buf, partEntryLBA*512); err != nil {
		return nil, &BackEndError{Message: "read GPT entries", Cause: err}
	}

	var entries []tskPartitionEntry
	index := 1
	empty := make([]byte, 16)
	for i := uint32(0); i < numEntries; i++ {
		off := int(i * entrySize)
		row := buf[off : off+int(entrySize)]
		if string(row[:16]) == string(empty) {
			continue
		}
		firstLBA := binary.LittleEndian.Uint64(row[32:40])
		lastLBA := binary.LittleEndian.Uint64(row[40:48])
		entries = append(entries, tskPartitionEntry{
			index:       index,
			startOffset: int64(firstLBA) * 512,
			size:        int64(lastLBA-firstLBA+1) * 512,
			isAllocated: true,
		})
		index++
	}
	if len(entries) == 0 {
		return nil, &UnsupportedError{Message: "GPT with no partition entries"}
	}
	return entries, nil
}

// selectPartition resolves a TSK_PARTITION spec to one table row, applying
// the location-wins priority validateTSKPartitionAttrs already checked for
// consistency.
func selectPartition(entries []tskPartitionEntry, spec *PathSpec) (*tskPartitionEntry, error) {
	if loc := spec.StringAttr("location"); loc != "" {
		idx, err := partitionIndexFromLocation(loc)
		if err == nil {
			for i := range entries {
				if entries[i].index == idx {
					return &entries[i], nil
				}
			}
			return nil, &NotFoundError{Location: loc}
		}
	}
	if idx, ok := spec.IntAttr("part_index"); ok {
		for i := range entries {
			if int64(entries[i].index) == idx {
				return &entries[i], nil
			}
		}
		return nil, &NotFoundError{Location: fmt.Sprintf("part_index=%d", idx)}
	}
	if off, ok := spec.IntAttr("start_offset"); ok {
		for i := range entries {
			if entries[i].startOffset == off {
				return &entries[i], nil
			}
		}
		return nil, &NotFoundError{Location: fmt.Sprintf("start_offset=%d", off)}
	}
	return nil, &BadPathSpecError{Message: "TSK_PARTITION requires location, part_index, or start_offset"}
}
