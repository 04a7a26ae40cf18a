package zoho

import (
	"path"
	"strings"
)

// Declared note types as they appear in meta.json. Absence or an unknown
// value means the card shape alone decides the rendering strategy.
const (
	TypeMixed     = "note/mixed"
	TypeImage     = "note/image"
	TypeSketch    = "note/sketch"
	TypeAudio     = "note/audio"
	TypeFile      = "note/file"
	TypeBookmark  = "note/bookmark"
	TypeVideo     = "note/video"
	TypeChecklist = "note/checklist"
)

// NoteLinkClass marks anchors that reference another note by title.
const NoteLinkClass = "zn-notelink"

// NoteProtocolPrefix is the proprietary deep-link scheme; the note id is the
// last path segment of such URLs.
const NoteProtocolPrefix = "zohonotebook://"

// CardType selects the rendering strategy for a note.
type CardType string

const (
	CardVideoLost     CardType = "video-lost"
	CardEmpty         CardType = "empty"
	CardMediaEmbed    CardType = "media-embed"
	CardResourceEmbed CardType = "resource-embed"
	CardLinkBookmark  CardType = "link-bookmark"
	CardRichText      CardType = "rich-text"
)

// ResourceKind sub-classifies resource-embed cards.
type ResourceKind string

const (
	ResourceAudio ResourceKind = "audio"
	ResourceFile  ResourceKind = "file"
	ResourcePlain ResourceKind = "plain"
)

// Card is the classifier's verdict plus whatever the chosen renderer needs.
type Card struct {
	Type     CardType
	Path     string // embed target, relative to the note's resources
	Resource ResourceKind
	LinkText string // link-bookmark only
	LinkURL  string
}

var videoSuffixes = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {},
	".m4v": {}, ".wmv": {}, ".flv": {}, ".mpg": {}, ".mpeg": {}, ".3gp": {},
}

// Classify inspects a note's declared type and content shape and picks
// exactly one card type. The rules overlap, so order matters: they are
// evaluated top to bottom and the first match wins.
func Classify(note Note) Card {
	root := note.Content
	if root == nil {
		root = NewRoot()
	}
	elems := root.ElementChildren()

	if len(elems) == 0 && !root.HasText() {
		if HasVideoSuffix(note.Title) || note.DeclaredType == TypeVideo {
			return Card{Type: CardVideoLost}
		}
		return Card{Type: CardEmpty}
	}

	if len(elems) == 1 {
		only := elems[0]

		if only.IsElement("img") {
			// Network-hosted images are ordinary markdown images, not embeds;
			// the walker handles those.
			if src := strings.TrimSpace(only.Attr("src")); src != "" && !IsNetworkURL(src) {
				return Card{Type: CardMediaEmbed, Path: src}
			}
		}

		if only.IsElement("resource") {
			if rel := strings.TrimSpace(only.Attr("relative-path")); rel != "" {
				return Card{
					Type:     CardResourceEmbed,
					Path:     rel,
					Resource: resourceKind(only),
				}
			}
		}
	}

	if note.DeclaredType == TypeBookmark {
		if anchor := FindFirstAnchor(root); anchor != nil {
			href := strings.TrimSpace(anchor.Attr("href"))
			text := strings.TrimSpace(PlainText(anchor))
			if text == "" {
				text = strings.TrimSpace(note.Title)
			}
			if href != "" {
				return Card{Type: CardLinkBookmark, LinkText: text, LinkURL: href}
			}
		}
	}

	if len(elems) == 1 && elems[0].IsElement("a") {
		href := strings.TrimSpace(elems[0].Attr("href"))
		// A bare "#" target slips through here and becomes an audio
		// attachment. That matches observed exports, where extension-less
		// audio recordings were linked exactly this way, so the behavior
		// is kept on purpose.
		if href != "" && IsLocalTarget(href) {
			kind := ResourceFile
			if path.Ext(href) == "" {
				kind = ResourceAudio
			}
			return Card{Type: CardResourceEmbed, Path: href, Resource: kind}
		}
	}

	return Card{Type: CardRichText}
}

func resourceKind(n *ContentNode) ResourceKind {
	mime := strings.ToLower(strings.TrimSpace(n.Attr("type")))
	if strings.HasPrefix(mime, "audio/") {
		return ResourceAudio
	}
	for _, c := range strings.Split(n.Attr("consumers"), ",") {
		if strings.EqualFold(strings.TrimSpace(c), "file") {
			return ResourceFile
		}
	}
	return ResourcePlain
}

// HasVideoSuffix reports whether name ends in a known video file extension.
func HasVideoSuffix(name string) bool {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(name)))
	_, ok := videoSuffixes[ext]
	return ok
}

// IsNetworkURL reports whether target points at a network location.
func IsNetworkURL(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "ftp://") ||
		strings.HasPrefix(target, "//")
}

// IsLocalTarget reports whether an anchor href points at a file shipped with
// the export rather than a network, mail, or internal-protocol location.
func IsLocalTarget(target string) bool {
	lower := strings.ToLower(target)
	if IsNetworkURL(target) {
		return false
	}
	if strings.HasPrefix(lower, "mailto:") {
		return false
	}
	if strings.HasPrefix(lower, NoteProtocolPrefix) {
		return false
	}
	return true
}

// FindFirstAnchor returns the first "a" element in document order, or nil.
func FindFirstAnchor(n *ContentNode) *ContentNode {
	if n == nil {
		return nil
	}
	if n.IsElement("a") {
		return n
	}
	for _, c := range n.Children {
		if found := FindFirstAnchor(c); found != nil {
			return found
		}
	}
	return nil
}

// PlainText concatenates every descendant text node.
func PlainText(n *ContentNode) string {
	if n == nil {
		return ""
	}
	if n.Kind == KindText {
		return n.Data
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(PlainText(c))
	}
	return b.String()
}

// NoteIDFromURL extracts the note id from a zohonotebook:// deep link.
func NoteIDFromURL(target string) string {
	if !strings.HasPrefix(strings.ToLower(target), NoteProtocolPrefix) {
		return ""
	}
	rest := target[len(NoteProtocolPrefix):]
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return ""
	}
	if idx := strings.LastIndex(rest, "/"); idx >= 0 {
		rest = rest[idx+1:]
	}
	if idx := strings.IndexAny(rest, "?&"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}
