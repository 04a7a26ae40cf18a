package zoho

import (
	"strconv"
	"strings"
	"time"
)

// Export timestamps arrive in whatever shape the app that wrote them was in
// the mood for: unix seconds, unix milliseconds, RFC3339, or a handful of
// human formats. Unparsable values are reported, never guessed.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04:05",
	"02 Jan 2006 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a raw export timestamp.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if i == 0 {
			return time.Time{}, false
		}
		if i > 1_000_000_000_000 || i < -1_000_000_000_000 {
			i = i / 1000
		}
		return time.Unix(i, 0).UTC(), true
	}

	for _, layout := range timestampLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return tm.UTC(), true
		}
	}

	return time.Time{}, false
}

// FormatDate renders a raw timestamp as YYYY-MM-DD. ok is false when the
// value cannot be parsed; callers omit the field in that case.
func FormatDate(raw string) (string, bool) {
	tm, ok := ParseTimestamp(raw)
	if !ok {
		return "", false
	}
	return tm.Format("2006-01-02"), true
}
