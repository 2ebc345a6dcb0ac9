package dfvfs

import (
	"fmt"
	"strconv"
	"strings"
)

// shadowLocation is the canonical "/vss<n>" location form used by the
// VSHADOW back end.
func shadowLocation(index int) string {
	return fmt.Sprintf("/vss%d", index)
}

func shadowIndexFromLocation(loc string) (int, error) {
	trimmed := strings.TrimPrefix(loc, "/")
	if !strings.HasPrefix(trimmed, "vss") {
		return 0, fmt.Errorf("not a /vss<n> location: %q", loc)
	}
	n, err := strconv.Atoi(trimmed[3:])
	if err != nil {
		return 0, fmt.Errorf("not a /vss<n> location: %q", loc)
	}
	return n, nil
}
