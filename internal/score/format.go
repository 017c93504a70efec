package score

import (
	"fmt"
	"strconv"
)

// FormatScore renders a score with thousands separators, e.g. 26700 -> "26,700".
func FormatScore(score int) string {
	if score < 0 {
		return "-" + FormatScore(-score)
	}

	s := strconv.Itoa(score)
	if len(s) <= 3 {
		return s
	}

	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// FormatDuration renders a run duration as "m:ss" or "h:mm:ss".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
