package exporter

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	zohodomain "github.com/sleroq/zoho-to-obsidian/internal/domain/zoho"
)

// maxWalkDepth bounds recursion over hostile, extremely deep trees. Past it
// a node is treated as a leaf instead of crashing the process.
const maxWalkDepth = 64

const defaultAttachmentRoot = "attachments"

const videoLostTemplate = "> [!warning] Video not exported\n> Zoho Notebook exports do not include video files. Lost: \"%s\"\n"

const audioExtensionAdvisory = "*The exported audio file has no extension; add one (for example `.m4a`) so audio players can open it.*"

type listKind int

const (
	listNone listKind = iota
	listBullet
	listNumbered
)

// walkContext is copied on every descent, so list depth and kind set in one
// branch never leak into a sibling branch. The consumed set is deliberately
// not part of it: that state is scoped to a single sibling list.
type walkContext struct {
	depth     int
	listDepth int
	listKind  listKind
}

func (c walkContext) descend() walkContext {
	c.depth++
	return c
}

// Document is one converted note: frontmatter and body are independently
// retrievable, and Resources echoes the note's referenced resource paths for
// the copy phase.
type Document struct {
	Frontmatter string
	Body        string
	Resources   []string
}

// Renderer converts notes to Obsidian markdown. Titles maps note ids to
// titles for internal link resolution; it must be fully populated before the
// first Render call and is only read after that.
type Renderer struct {
	Titles         map[string]string
	AttachmentRoot string
}

func (r Renderer) attachmentRoot() string {
	root := strings.Trim(strings.TrimSpace(r.AttachmentRoot), "/")
	if root == "" {
		return defaultAttachmentRoot
	}
	return root
}

// Render classifies and converts a single note.
func (r Renderer) Render(note zohodomain.Note) Document {
	resources := make([]string, 0, len(note.Images)+len(note.Attachments))
	resources = append(resources, note.Images...)
	resources = append(resources, note.Attachments...)

	return Document{
		Frontmatter: renderFrontmatter(note),
		Body:        r.renderBody(note),
		Resources:   resources,
	}
}

func (r Renderer) renderBody(note zohodomain.Note) string {
	card := zohodomain.Classify(note)

	switch card.Type {
	case zohodomain.CardVideoLost:
		return fmt.Sprintf(videoLostTemplate, strings.TrimSpace(note.Title))
	case zohodomain.CardEmpty:
		return ""
	case zohodomain.CardMediaEmbed:
		return "![[" + r.embedPath(card.Path) + "]]\n"
	case zohodomain.CardResourceEmbed:
		return r.renderResourceCard(card)
	case zohodomain.CardLinkBookmark:
		return "[" + escapeBrackets(card.LinkText) + "](" + card.LinkURL + ")\n"
	default:
		root := note.Content
		if root == nil {
			root = zohodomain.NewRoot()
		}
		return postProcess(r.renderFlow(root.Children, walkContext{}))
	}
}

func (r Renderer) renderResourceCard(card zohodomain.Card) string {
	embed := "![[" + r.embedPath(card.Path) + "]]"
	switch card.Resource {
	case zohodomain.ResourceAudio:
		out := "Attached audio:\n" + embed + "\n"
		if path.Ext(card.Path) == "" {
			out += "\n" + audioExtensionAdvisory + "\n"
		}
		return out
	case zohodomain.ResourceFile:
		return "Attached file:\n" + embed + "\n"
	default:
		return embed + "\n"
	}
}

// embedPath maps a resource-relative path under the attachment root. Parent
// segments are dropped so an embed can never point above the vault.
func (r Renderer) embedPath(rel string) string {
	rel = strings.ReplaceAll(normalizeResourcePath(strings.TrimSpace(rel)), "\\", "/")
	rel = path.Clean("/" + rel)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		return r.attachmentRoot()
	}
	return r.attachmentRoot() + "/" + rel
}

// renderFlow walks one sibling list, flushing accumulated inline text as a
// paragraph before every block child. The consumed set lives here, scoped to
// exactly this sibling list: a checkbox marker claims its label sibling and
// nothing else causes a node to be skipped.
func (r Renderer) renderFlow(children []*zohodomain.ContentNode, ctx walkContext) string {
	if ctx.depth > maxWalkDepth {
		return ""
	}

	consumed := map[int]struct{}{}
	lastMeaningful := lastMeaningfulIndex(children)

	var out strings.Builder
	var inline strings.Builder

	flush := func() {
		text := inline.String()
		inline.Reset()
		if strings.TrimSpace(text) == "" {
			return
		}
		out.WriteString(strings.TrimSpace(text))
		out.WriteString("\n\n")
	}

	for i := 0; i < len(children); i++ {
		if _, ok := consumed[i]; ok {
			continue
		}
		child := children[i]

		switch {
		case child.Kind == zohodomain.KindText:
			inline.WriteString(normalizeSpaces(child.Data))
		case child.IsElement("br"):
			if i > lastMeaningful {
				break
			}
			run := breakRun(children, i)
			if run > 1 {
				inline.WriteString("\n\n")
			} else {
				inline.WriteString("\n")
			}
			i += run - 1
		case isCheckboxMarker(child):
			flush()
			out.WriteString(r.renderCheckboxPair(children, i, consumed, ctx))
		case child.IsElement("zncheckbox"):
			flush()
			out.WriteString(r.checkboxLine(checkboxChecked(child), r.renderInlineRun(child.Children, ctx.descend()), ctx))
		case isBlockElement(child):
			flush()
			out.WriteString(r.renderBlock(child, ctx))
		default:
			inline.WriteString(r.renderInline(child, ctx))
		}
	}
	flush()

	return out.String()
}

func isBlockElement(n *zohodomain.ContentNode) bool {
	if n.Kind != zohodomain.KindElement {
		return false
	}
	switch n.Tag {
	case "div", "ul", "ol", "li", "table", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6":
		return true
	default:
		return false
	}
}

func (r Renderer) renderBlock(n *zohodomain.ContentNode, ctx walkContext) string {
	if ctx.depth > maxWalkDepth {
		return ""
	}
	switch n.Tag {
	case "div":
		return r.renderContainer(n, ctx)
	case "ul":
		return r.renderList(n, ctx, listBullet) + "\n"
	case "ol":
		return r.renderList(n, ctx, listNumbered) + "\n"
	case "li":
		// A bare item outside any list container still renders as one.
		return r.renderListItem(n, ctx.descend()) + "\n"
	case "table":
		return r.renderTable(n, ctx) + "\n"
	case "blockquote":
		inner := strings.TrimSpace(r.renderFlow(n.Children, ctx.descend()))
		if inner == "" {
			return ""
		}
		return "> " + strings.ReplaceAll(inner, "\n", "\n> ") + "\n\n"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Tag[1] - '0')
		inner := r.renderInlineRun(n.Children, ctx.descend())
		if strings.TrimSpace(inner) == "" {
			return inner
		}
		return strings.Repeat("#", level) + " " + strings.TrimSpace(inner) + "\n\n"
	default:
		return r.renderFlow(n.Children, ctx.descend())
	}
}

// renderContainer handles the generic grouping element. Checklist wrappers
// and containers holding checkbox children are transparent so checklist
// lines stay adjacent; editor spacing artifacts emit nothing.
func (r Renderer) renderContainer(n *zohodomain.ContentNode, ctx walkContext) string {
	if n.HasClass("checklist") || containsCheckboxChild(n) {
		return r.renderFlow(n.Children, ctx.descend())
	}
	if isSpacingArtifact(n) {
		return ""
	}
	return r.renderFlow(n.Children, ctx.descend())
}

// isSpacingArtifact matches containers whose only content is a line break,
// or an empty bold wrapper around one. Zoho's editor writes these for
// vertical spacing; they carry no content.
func isSpacingArtifact(n *zohodomain.ContentNode) bool {
	var meaningful []*zohodomain.ContentNode
	for _, c := range n.Children {
		if c.Kind == zohodomain.KindText && strings.TrimSpace(c.Data) == "" {
			continue
		}
		meaningful = append(meaningful, c)
	}
	if len(meaningful) != 1 {
		return false
	}
	only := meaningful[0]
	if only.IsElement("br") {
		return true
	}
	if only.IsElement("b") || only.IsElement("strong") {
		return isSpacingArtifact(only)
	}
	return false
}

func containsCheckboxChild(n *zohodomain.ContentNode) bool {
	for _, c := range n.Children {
		if isCheckboxMarker(c) || c.IsElement("zncheckbox") {
			return true
		}
	}
	return false
}

func isCheckboxMarker(n *zohodomain.ContentNode) bool {
	return n.IsElement("input") && strings.EqualFold(n.Attr("type"), "checkbox")
}

func checkboxChecked(n *zohodomain.ContentNode) bool {
	if !n.HasAttr("checked") {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(n.Attr("checked")), "false")
}

// renderCheckboxPair renders a standalone checkbox marker and claims the next
// meaningful sibling as its label, recording it in the consumed set so the
// label is not walked again on its own turn.
func (r Renderer) renderCheckboxPair(children []*zohodomain.ContentNode, i int, consumed map[int]struct{}, ctx walkContext) string {
	label := ""
	for j := i + 1; j < len(children); j++ {
		if _, ok := consumed[j]; ok {
			continue
		}
		sib := children[j]
		if sib.Kind == zohodomain.KindText && strings.TrimSpace(sib.Data) == "" {
			continue
		}
		if sib.IsElement("br") {
			continue
		}
		if sib.Kind == zohodomain.KindText {
			label = normalizeSpaces(strings.TrimSpace(sib.Data))
		} else if len(sib.Children) > 0 {
			label = r.renderInlineRun(sib.Children, ctx.descend())
		} else {
			label = r.renderInline(sib, ctx)
		}
		consumed[j] = struct{}{}
		break
	}
	return r.checkboxLine(checkboxChecked(children[i]), label, ctx)
}

func (r Renderer) checkboxLine(checked bool, label string, ctx walkContext) string {
	indent := ""
	if ctx.listDepth > 1 {
		indent = strings.Repeat("    ", ctx.listDepth-1)
	}
	box := "- [ ] "
	if checked {
		box = "- [x] "
	}
	return indent + box + strings.TrimSpace(flattenInline(label)) + "\n"
}

func (r Renderer) renderList(n *zohodomain.ContentNode, ctx walkContext, kind listKind) string {
	nctx := ctx.descend()
	nctx.listDepth++
	nctx.listKind = kind

	var out strings.Builder
	for _, child := range n.Children {
		switch {
		case child.IsElement("li"):
			out.WriteString(r.renderListItem(child, nctx))
		case child.IsElement("ul"):
			// A list directly inside a list is invalid markup, but the
			// exports contain it; nesting one level deeper keeps the items.
			out.WriteString(r.renderList(child, nctx, listBullet))
		case child.IsElement("ol"):
			out.WriteString(r.renderList(child, nctx, listNumbered))
		case child.Kind == zohodomain.KindText && strings.TrimSpace(child.Data) == "":
		default:
			out.WriteString(r.renderFlow([]*zohodomain.ContentNode{child}, nctx))
		}
	}
	return out.String()
}

func (r Renderer) renderListItem(li *zohodomain.ContentNode, ctx walkContext) string {
	if ctx.depth > maxWalkDepth {
		return ""
	}

	content := li.Children
	if sole := soleElementChild(li); sole != nil && sole.IsElement("div") {
		content = sole.Children
	}

	var text strings.Builder
	var nested strings.Builder
	for _, child := range content {
		switch {
		case child.IsElement("ul"):
			nested.WriteString(r.renderList(child, ctx, listBullet))
		case child.IsElement("ol"):
			nested.WriteString(r.renderList(child, ctx, listNumbered))
		case child.Kind == zohodomain.KindText:
			text.WriteString(normalizeSpaces(child.Data))
		default:
			text.WriteString(r.renderInline(child, ctx))
		}
	}

	depth := ctx.listDepth
	if depth < 1 {
		depth = 1
	}
	indent := strings.Repeat("    ", depth-1)
	marker := "- "
	if ctx.listKind == listNumbered {
		marker = "1. "
	}

	line := indent + marker + strings.TrimSpace(flattenInline(text.String())) + "\n"
	return line + nested.String()
}

func soleElementChild(n *zohodomain.ContentNode) *zohodomain.ContentNode {
	var sole *zohodomain.ContentNode
	for _, c := range n.Children {
		if c.Kind == zohodomain.KindText && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Kind != zohodomain.KindElement {
			return nil
		}
		if sole != nil {
			return nil
		}
		sole = c
	}
	return sole
}

// renderInlineRun renders a sibling list as inline text. Break rules: a
// trailing break emits nothing, two in sequence emit a paragraph gap, an
// isolated one a single newline.
func (r Renderer) renderInlineRun(children []*zohodomain.ContentNode, ctx walkContext) string {
	if ctx.depth > maxWalkDepth {
		return ""
	}
	lastMeaningful := lastMeaningfulIndex(children)

	var b strings.Builder
	for i := 0; i < len(children); i++ {
		child := children[i]
		switch {
		case child.Kind == zohodomain.KindText:
			b.WriteString(normalizeSpaces(child.Data))
		case child.IsElement("br"):
			if i > lastMeaningful {
				break
			}
			run := breakRun(children, i)
			if run > 1 {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
			i += run - 1
		case isBlockElement(child):
			b.WriteString(r.renderBlock(child, ctx.descend()))
		default:
			b.WriteString(r.renderInline(child, ctx))
		}
	}
	return b.String()
}

func lastMeaningfulIndex(children []*zohodomain.ContentNode) int {
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		if c.IsElement("br") {
			continue
		}
		if c.Kind == zohodomain.KindText && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return i
	}
	return -1
}

func breakRun(children []*zohodomain.ContentNode, i int) int {
	run := 0
	for j := i; j < len(children); j++ {
		if !children[j].IsElement("br") {
			break
		}
		run++
	}
	return run
}

// renderInline renders one non-block node. Unknown elements recurse into
// their children: losing markup beats losing content.
func (r Renderer) renderInline(n *zohodomain.ContentNode, ctx walkContext) string {
	if ctx.depth > maxWalkDepth {
		return ""
	}
	if n.Kind == zohodomain.KindText {
		return normalizeSpaces(n.Data)
	}

	switch n.Tag {
	case "b", "strong":
		return wrapEmphasis(r.renderInlineRun(n.Children, ctx.descend()), "**")
	case "i", "em":
		return wrapEmphasis(r.renderInlineRun(n.Children, ctx.descend()), "*")
	case "strike", "s", "del":
		return wrapEmphasis(r.renderInlineRun(n.Children, ctx.descend()), "~~")
	case "u":
		inner := r.renderInlineRun(n.Children, ctx.descend())
		if strings.TrimSpace(inner) == "" {
			return inner
		}
		// Markdown has no underline; Obsidian renders the HTML form.
		return "<u>" + inner + "</u>"
	case "code":
		inner := r.renderInlineRun(n.Children, ctx.descend())
		if strings.TrimSpace(inner) == "" {
			return inner
		}
		return "`" + inner + "`"
	case "mark":
		return wrapEmphasis(r.renderInlineRun(n.Children, ctx.descend()), "==")
	case "a":
		return r.renderLink(n, ctx)
	case "img":
		return r.renderImage(n)
	case "resource":
		// Inline resource markers always embed; the audio/file distinction
		// only changes card-level prefix text.
		return "![[" + r.embedPath(n.Attr("relative-path")) + "]]"
	case "input":
		if isCheckboxMarker(n) {
			return r.checkboxLine(checkboxChecked(n), "", ctx)
		}
		return ""
	default:
		return r.renderInlineRun(n.Children, ctx.descend())
	}
}

func wrapEmphasis(inner string, marker string) string {
	if strings.TrimSpace(inner) == "" {
		return inner
	}
	return marker + inner + marker
}

func (r Renderer) renderLink(a *zohodomain.ContentNode, ctx walkContext) string {
	text := r.renderInlineRun(a.Children, ctx.descend())
	display := strings.TrimSpace(flattenInline(text))
	href := strings.TrimSpace(a.Attr("href"))

	if a.HasClass(zohodomain.NoteLinkClass) && display != "" {
		return "[[" + display + "]]"
	}

	if strings.HasPrefix(strings.ToLower(href), zohodomain.NoteProtocolPrefix) {
		id := zohodomain.NoteIDFromURL(href)
		if title := strings.TrimSpace(r.Titles[id]); title != "" {
			if display == "" || display == title {
				return "[[" + title + "]]"
			}
			return "[[" + title + "|" + display + "]]"
		}
		if isMeaningfulLinkText(display) {
			return "[[" + display + "]]"
		}
		return "<!-- unresolved note link: " + neutralizeCommentClose(href) + " -->"
	}

	if href == "" {
		return text
	}

	// A literal "#" target behaves like a local attachment reference, which
	// is how extension-less recordings show up in real exports. Real anchors
	// (#section) stay ordinary links.
	if zohodomain.IsLocalTarget(href) && (!strings.HasPrefix(href, "#") || href == "#") {
		return "![[" + r.embedPath(href) + "]]"
	}

	if display == "" || display == href {
		return href
	}
	return "[" + escapeBrackets(display) + "](" + href + ")"
}

func (r Renderer) renderImage(img *zohodomain.ContentNode) string {
	src := strings.TrimSpace(img.Attr("src"))
	if src == "" {
		return ""
	}
	if zohodomain.IsNetworkURL(src) {
		return "![" + escapeBrackets(img.Attr("alt")) + "](" + src + ")"
	}
	return "![[" + r.embedPath(src) + "]]"
}

func (r Renderer) renderTable(table *zohodomain.ContentNode, ctx walkContext) string {
	rows := tableRows(table)
	if len(rows) == 0 {
		return ""
	}

	cells := make([][]string, 0, len(rows))
	maxCols := 0
	for _, row := range rows {
		rowCells := make([]string, 0, len(row.Children))
		for _, c := range row.Children {
			if !c.IsElement("td") && !c.IsElement("th") {
				continue
			}
			rowCells = append(rowCells, flattenInline(r.renderInlineRun(c.Children, ctx.descend())))
		}
		if len(rowCells) > maxCols {
			maxCols = len(rowCells)
		}
		cells = append(cells, rowCells)
	}
	if maxCols == 0 {
		return ""
	}

	var out strings.Builder
	for i, rowCells := range cells {
		for len(rowCells) < maxCols {
			rowCells = append(rowCells, "")
		}
		writeTableRow(&out, rowCells)
		if i == 0 {
			sep := make([]string, maxCols)
			for j := range sep {
				sep[j] = "---"
			}
			writeTableRow(&out, sep)
		}
	}
	return out.String()
}

// tableRows collects the table's own rows: direct tr children, or tr
// children of a direct section element. A deep search would steal cells
// from nested tables.
func tableRows(table *zohodomain.ContentNode) []*zohodomain.ContentNode {
	rows := make([]*zohodomain.ContentNode, 0, len(table.Children))
	for _, child := range table.Children {
		if child.IsElement("tr") {
			rows = append(rows, child)
			continue
		}
		if child.IsElement("thead") || child.IsElement("tbody") || child.IsElement("tfoot") {
			for _, sub := range child.Children {
				if sub.IsElement("tr") {
					rows = append(rows, sub)
				}
			}
		}
	}
	return rows
}

func writeTableRow(out *strings.Builder, cells []string) {
	out.WriteString("|")
	for _, c := range cells {
		cell := strings.ReplaceAll(c, "|", "\\|")
		cell = strings.TrimSpace(cell)
		if cell == "" {
			cell = " "
		}
		out.WriteString(" " + cell + " |")
	}
	out.WriteString("\n")
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

func postProcess(body string) string {
	body = excessNewlines.ReplaceAllString(body, "\n\n")
	body = strings.TrimRight(body, " \t\n")
	if body == "" {
		return ""
	}
	return body + "\n"
}
