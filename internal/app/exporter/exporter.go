package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/log"

	"github.com/sleroq/zoho-to-obsidian/internal/infra/exportfs"
	"github.com/sleroq/zoho-to-obsidian/internal/infra/zohozip"
)

// Exporter drives one conversion run: read the export, render every note,
// write the vault, copy referenced resources.
type Exporter struct {
	InputDir      string
	OutputDir     string
	AttachmentDir string
	WorkDir       string
	Log           *log.Logger
}

type Stats struct {
	Notes   int
	Files   int
	Skipped int
}

func (e Exporter) Run() (Stats, error) {
	if e.InputDir == "" || e.OutputDir == "" {
		return Stats{}, fmt.Errorf("input and output directories are required")
	}
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create output dir: %w", err)
	}

	workDir := e.WorkDir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "zoho-to-obsidian-")
		if err != nil {
			return Stats{}, err
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	}

	reader := zohozip.Reader{WorkDir: workDir, Log: e.Log}
	data, err := reader.ReadExport(e.InputDir)
	if err != nil {
		return Stats{}, err
	}

	// Internal links resolve against titles, so the lookup is complete
	// before the first note renders; a link to an unknown id degrades to
	// the unresolved rendering instead of retrying.
	titles := make(map[string]string, len(data.Notes))
	for _, note := range data.Notes {
		titles[note.ID] = note.Title
	}

	renderer := Renderer{Titles: titles, AttachmentRoot: e.AttachmentDir}

	bar := newNoteProgress(len(data.Notes))
	defer bar.Done()

	stats := Stats{}
	usedNames := map[string]int{}
	copiedBy := map[string]string{}
	for _, note := range data.Notes {
		folder := sanitizeFolderName(note.Notebook)
		noteDir, err := exportfs.EnsureDirWithin(e.OutputDir, folder)
		if err != nil {
			return stats, fmt.Errorf("create notebook folder %q: %w", folder, err)
		}

		doc := renderer.Render(note)

		base := sanitizeFileName(note.Title)
		usedKey := folder + "/" + strings.ToLower(base)
		n := usedNames[usedKey]
		usedNames[usedKey] = n + 1
		if n > 0 {
			base = base + "-" + strconv.Itoa(n+1)
		}

		notePath := filepath.Join(noteDir, base+".md")
		if err := os.WriteFile(notePath, []byte(doc.Frontmatter+"\n"+doc.Body), 0o644); err != nil {
			return stats, fmt.Errorf("write note %s: %w", note.ID, err)
		}
		stats.Notes++

		for _, rel := range doc.Resources {
			target := renderer.embedPath(rel)
			// Attachment paths are keyed by their archive-internal path,
			// so two notes shipping the same relative resource land on one
			// destination. The later note wins; the clash is logged.
			if prev, ok := copiedBy[target]; ok && prev != note.ID {
				e.warn("attachment path collision, overwriting", "path", target, "note", note.ID, "previous", prev)
			}
			if err := exportfs.CopyFileWithin(note.BaseDir, rel, e.OutputDir, target); err != nil {
				e.warn("resource not copied", "note", note.ID, "resource", rel, "error", err)
				stats.Skipped++
				continue
			}
			copiedBy[target] = note.ID
			stats.Files++
		}

		e.debug("note exported", "note", note.ID, "path", notePath)
		bar.Step(note.Title)
	}

	return stats, nil
}

func (e Exporter) warn(msg string, kv ...any) {
	if e.Log != nil {
		e.Log.Warn(msg, kv...)
	}
}

func (e Exporter) debug(msg string, kv ...any) {
	if e.Log != nil {
		e.Log.Debug(msg, kv...)
	}
}

// noteProgress paints a single-line bar on stderr while notes convert. It is
// inert when stderr is not a terminal, so test and pipe output stay clean.
type noteProgress struct {
	out       *os.File
	total     int
	done      int
	lastWidth int
	bar       progress.Model
}

func newNoteProgress(total int) *noteProgress {
	if total < 1 {
		total = 1
	}
	p := &noteProgress{total: total}
	if !stderrIsTerminal() {
		return p
	}
	p.out = os.Stderr
	p.bar = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	p.bar.Width = 40
	return p
}

func (p *noteProgress) Step(label string) {
	if p.out == nil {
		return
	}
	if p.done < p.total {
		p.done++
	}
	ratio := float64(p.done) / float64(p.total)
	line := fmt.Sprintf("%s %d/%d %s", p.bar.ViewAs(ratio), p.done, p.total, strings.TrimSpace(label))
	if n := p.lastWidth - len(line); n > 0 {
		line += strings.Repeat(" ", n)
	}
	fmt.Fprint(p.out, "\r"+line)
	p.lastWidth = len(line)
}

func (p *noteProgress) Done() {
	if p.out == nil || p.lastWidth == 0 {
		return
	}
	fmt.Fprintln(p.out)
	p.lastWidth = 0
}

func stderrIsTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
