// Package format normalizes the compact value encodings RouterOS uses on
// the wire (duration tokens like "1d2h3m4s", raw byte counters) into
// display-ready and computable forms for the portal.
package format

import (
	"fmt"
	"strings"
)

// Duration is a parsed RouterOS duration token. Each of the day, hour,
// minute and second components is optional in the input; absent
// components are zero. Raw keeps the original token for callers that
// need to show it verbatim.
type Duration struct {
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64
	Raw     string
	parsed  bool
}

// ParseDuration parses a compact duration token such as "1d2h3m4s".
// Components may appear in any order, each at most once. Input that
// fails to match any component parses to zero seconds; the original
// string is preserved in Raw.
func ParseDuration(s string) Duration {
	d := Duration{Raw: s}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return d
	}

	var (
		days, hours, minutes, seconds int64
		seen                          [4]bool
	)

	i := 0
	for i < len(trimmed) {
		// Digits first
		start := i
		for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
			i++
		}
		if start == i || i == len(trimmed) {
			// No digits, or digits with no trailing unit
			return d
		}

		var value int64
		for _, c := range trimmed[start:i] {
			value = value*10 + int64(c-'0')
		}

		var slot int
		switch trimmed[i] {
		case 'd':
			slot = 0
			days = value
		case 'h':
			slot = 1
			hours = value
		case 'm':
			slot = 2
			minutes = value
		case 's':
			slot = 3
			seconds = value
		default:
			return d
		}
		if seen[slot] {
			return d
		}
		seen[slot] = true
		i++
	}

	d.Days = days
	d.Hours = hours
	d.Minutes = minutes
	d.Seconds = seconds
	d.parsed = true
	return d
}

// TotalSeconds returns the duration as a second count for arithmetic
// use. Unparsed input contributes zero.
func (d Duration) TotalSeconds() int64 {
	if !d.parsed {
		return 0
	}
	return d.Days*86400 + d.Hours*3600 + d.Minutes*60 + d.Seconds
}

// String renders the duration as space-joined non-zero components in
// d, h, m, s order ("1d 2h 3m"). Empty, unmatched or all-zero input
// renders as "0h 0m".
func (d Duration) String() string {
	if !d.parsed {
		return "0h 0m"
	}

	parts := make([]string, 0, 4)
	if d.Days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", d.Days))
	}
	if d.Hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", d.Hours))
	}
	if d.Minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", d.Minutes))
	}
	if d.Seconds > 0 {
		parts = append(parts, fmt.Sprintf("%ds", d.Seconds))
	}

	if len(parts) == 0 {
		return "0h 0m"
	}
	return strings.Join(parts, " ")
}

// Seconds builds a Duration from a plain second count, normalized into
// d/h/m/s components. Negative counts clamp to zero.
func Seconds(total int64) Duration {
	if total < 0 {
		total = 0
	}
	return Duration{
		Days:    total / 86400,
		Hours:   (total % 86400) / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
		parsed:  true,
	}
}
