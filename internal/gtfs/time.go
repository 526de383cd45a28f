package gtfs

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatDaySeconds renders seconds since service start as HH:MM:SS.
// Hours are not wrapped at 24, as GTFS allows times past midnight.
func FormatDaySeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// ParseDaySeconds parses HH:MM[:SS] possibly with hours >= 24.
// ok is false when s is not a clock time.
func ParseDaySeconds(s string) (sec int, ok bool) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		vals[i] = n
	}
	if vals[1] > 59 || vals[2] > 59 {
		return 0, false
	}
	return vals[0]*3600 + vals[1]*60 + vals[2], true
}
