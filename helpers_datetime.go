package dfvfs

import "time"

// windowsEpochOffsetSeconds is the number of seconds between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const windowsEpochOffsetSeconds = 11644473600

// filetimeToTime converts a Windows FILETIME (100ns ticks since 1601-01-01)
// to a time.Time, per spec.md §4.7. A zero FILETIME means "not present".
func filetimeToTime(filetime int64) (*time.Time, bool) {
	if filetime == 0 {
		return nil, false
	}
	totalNanos := (filetime - windowsEpochOffsetSeconds*10_000_000) * 100
	t := time.Unix(0, totalNanos).UTC()
	return &t, true
}
