package exporter

import "strings"

func escapeBrackets(s string) string {
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// flattenInline folds rendered inline text onto one line for contexts that
// cannot hold line breaks (list items, checklist labels, table cells).
func flattenInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

// isMeaningfulLinkText reports whether link text carries information worth
// turning into a wikilink, as opposed to the editor's placeholder labels.
func isMeaningfulLinkText(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "untitled", "note", "open note":
		return false
	default:
		return true
	}
}

// neutralizeCommentClose keeps a raw URL from terminating the HTML comment
// it is quoted in: a zero-width space goes between the dashes and the
// closing angle bracket, which reads the same but no longer closes.
func neutralizeCommentClose(s string) string {
	return strings.ReplaceAll(s, "-->", "--\u200b>")
}
