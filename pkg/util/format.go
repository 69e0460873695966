package util

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// OrDash renders an empty table cell as "-".
func OrDash(s string) string {
	return lo.CoalesceOrEmpty(s, "-")
}

// JoinOrDash renders a list as a single table cell.
func JoinOrDash(items ...string) string {
	return OrDash(strings.Join(items, ", "))
}

// FormatBytes renders a size in binary units, e.g. "1.5 KB".
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	size, unit := float64(n), 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", size, byteUnits[unit])
}
