package dfvfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFiletimeToTimeZeroIsAbsent(t *testing.T) {
	_, ok := filetimeToTime(0)
	require.False(t, ok)
}

func TestFiletimeToTimeKnownValue(t *testing.T) {
	// 2009-07-25 23:00:00 UTC, a commonly cited FILETIME conversion example.
	const filetime = 128930364000000000
	tm, ok := filetimeToTime(filetime)
	require.True(t, ok)
	require.Equal(t, 2009, tm.Year())
	require.Equal(t, 7, int(tm.Month()))
	require.Equal(t, 25, tm.Day())
}
