package exporter

import (
	"strings"
	"unicode/utf8"
)

const (
	fallbackNotebookFolder = "no-notebook"
	fallbackFileName       = "untitled"
	maxFileNameBytes       = 200
)

// Zoho's editor sprinkles no-break spaces into copied text; both known
// variants fold to a plain space before any other rule runs.
func normalizeSpaces(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u202f", " ")
	return s
}

var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

func isForbiddenNameRune(r rune) bool {
	switch r {
	case '/', '\\', '<', '>', ':', '"', '|', '?', '*':
		return true
	default:
		return false
	}
}

func isControlRune(r rune) bool {
	return r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f)
}

// sanitizeFolderName turns a notebook name into a safe lowercase folder
// segment. Every dot is stripped, so no "."/".." segment (or multi-dot
// variant) can survive into a path.
func sanitizeFolderName(name string) string {
	name = strings.ToLower(normalizeSpaces(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '.':
		case isControlRune(r) || isForbiddenNameRune(r):
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-")
	if out == "" {
		return fallbackNotebookFolder
	}
	return out
}

// sanitizeFileName turns a note title into a safe file base name: controls
// and filesystem-illegal runes are dropped, line/paragraph separators become
// spaces, reserved device names get an underscore prefix, and the result is
// capped at maxFileNameBytes without splitting a multi-byte rune.
func sanitizeFileName(name string) string {
	name = normalizeSpaces(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '\u2028' || r == '\u2029':
			b.WriteRune(' ')
		case isControlRune(r):
		case isForbiddenNameRune(r):
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if isReservedDeviceName(out) {
		out = "_" + out
	}
	out = truncateFileName(out, maxFileNameBytes)
	out = strings.TrimRight(out, " \t")
	if out == "" {
		return fallbackFileName
	}
	return out
}

func isReservedDeviceName(name string) bool {
	base := strings.ToUpper(strings.TrimSpace(name))
	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	_, ok := windowsReservedNames[base]
	return ok
}

// truncateFileName trims to at most limit bytes, backing off to the previous
// rune boundary so the result is never cut inside a multi-byte character.
func truncateFileName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// escapeFrontmatterValue makes a string safe inside a double-quoted YAML
// scalar: backslash and quote are escaped, line terminators (including NEL,
// LS, and PS) become escaped newlines, and remaining control characters are
// dropped. The result contains no unescaped quote, raw control byte, or raw
// line terminator.
func escapeFrontmatterValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '"':
			b.WriteString(`\"`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\u0085' || r == '\u2028' || r == '\u2029':
			b.WriteString(`\n`)
		case isControlRune(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeResourcePath folds non-standard spaces in paths pulled from
// resource references. Titles go through the full sanitizers instead.
func normalizeResourcePath(p string) string {
	return normalizeSpaces(p)
}
