package router

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const barCells = 10

// bar renders pct (0..100) as a 10-cell gauge.
func bar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct/100*barCells + 0.5)
	return strings.Repeat("■", filled) + strings.Repeat("□", barCells-filled)
}

// truncate shortens s to at most n characters, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

// humanDuration formats d as "1 h 30 min", "15 min" or "45 s".
func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d s", int(d/time.Second))
	}
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%d h", h)
	default:
		return fmt.Sprintf("%d h %d min", h, m)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
