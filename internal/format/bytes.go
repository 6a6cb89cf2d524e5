package format

import "fmt"

var byteUnits = [...]string{"B", "KB", "MB", "GB"}

// FormatBytes renders a byte count with base-1024 scaling and two
// decimal places, using the largest unit up to GB. Zero is rendered as
// "0 B" exactly. Negative counts clamp to zero.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}

	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.2f %s", value, byteUnits[unit])
}
