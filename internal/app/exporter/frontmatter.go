package exporter

import (
	"bytes"

	zohodomain "github.com/sleroq/zoho-to-obsidian/internal/domain/zoho"
)

const sourceTag = "zoho-notebook"

// renderFrontmatter builds the YAML header. Field order is fixed; date
// fields are omitted entirely when the raw timestamp does not parse, so an
// invalid date is never written.
func renderFrontmatter(note zohodomain.Note) string {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	writeQuoted(&buf, "title", note.Title)
	writeQuoted(&buf, "notebook", note.Notebook)

	if created, ok := zohodomain.FormatDate(note.CreatedRaw); ok {
		buf.WriteString("created: " + created + "\n")
	}
	if modified, ok := zohodomain.FormatDate(note.ModifiedRaw); ok {
		buf.WriteString("modified: " + modified + "\n")
	}

	buf.WriteString("tags:\n")
	buf.WriteString("  - " + sourceTag + "\n")
	if slug := sanitizeFolderName(note.Notebook); slug != sourceTag && slug != fallbackNotebookFolder {
		// The slug is data; a bare scalar starting with "[", "#", or "&"
		// would open a flow sequence, comment, or anchor instead of a tag.
		buf.WriteString("  - \"" + escapeFrontmatterValue(slug) + "\"\n")
	}

	buf.WriteString("aliases:\n")
	buf.WriteString("  - \"" + escapeFrontmatterValue(note.Title) + "\"\n")

	buf.WriteString("source: " + sourceTag + "\n")
	buf.WriteString("---\n")
	return buf.String()
}

func writeQuoted(buf *bytes.Buffer, key string, value string) {
	buf.WriteString(key)
	buf.WriteString(": \"")
	buf.WriteString(escapeFrontmatterValue(value))
	buf.WriteString("\"\n")
}
