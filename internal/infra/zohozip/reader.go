// Package zohozip reads a Zoho Notebook export: either the export .zip or a
// directory it was already extracted to. The layout is one directory per
// notebook, each holding .znote files; a .znote is itself a zip with
// meta.json, content.znel, and resources/.
package zohozip

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	zohodomain "github.com/sleroq/zoho-to-obsidian/internal/domain/zoho"
	"github.com/sleroq/zoho-to-obsidian/internal/infra/exportfs"
	"github.com/sleroq/zoho-to-obsidian/internal/infra/znel"
)

const (
	metaEntryName    = "meta.json"
	contentEntryName = "content.znel"
	resourcePrefix   = "resources/"
)

var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {},
	".svg": {}, ".bmp": {}, ".ico": {},
}

// Reader extracts and parses an export. WorkDir receives the extracted
// .znote contents; a temp directory is created when it is empty.
type Reader struct {
	WorkDir string
	Log     *log.Logger
}

// ReadExport reads every note of the export under input.
func (r Reader) ReadExport(input string) (zohodomain.ExportData, error) {
	info, err := os.Stat(input)
	if err != nil {
		return zohodomain.ExportData{}, fmt.Errorf("stat input %s: %w", input, err)
	}

	workDir := r.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "zoho-to-obsidian-")
		if err != nil {
			return zohodomain.ExportData{}, err
		}
	}

	root := input
	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(input), ".zip") {
			return zohodomain.ExportData{}, fmt.Errorf("input %s is neither a directory nor a .zip export", input)
		}
		root = filepath.Join(workDir, "export")
		if err := r.extractZip(input, root); err != nil {
			return zohodomain.ExportData{}, fmt.Errorf("extract export: %w", err)
		}
	}

	notes, err := r.readTree(root, workDir)
	if err != nil {
		return zohodomain.ExportData{}, err
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Notebook != notes[j].Notebook {
			return notes[i].Notebook < notes[j].Notebook
		}
		return notes[i].ID < notes[j].ID
	})
	return zohodomain.ExportData{Notes: notes}, nil
}

func (r Reader) readTree(root string, workDir string) ([]zohodomain.Note, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read export dir %s: %w", root, err)
	}

	var notes []zohodomain.Note
	appendNote := func(path string, notebook string) {
		note, err := r.readZnote(path, notebook, workDir)
		if err != nil {
			// One broken archive must not sink the rest of the export.
			r.warn("skipping unreadable note", "path", path, "error", err)
			return
		}
		notes = append(notes, note)
	}

	for _, ent := range entries {
		if ent.IsDir() {
			sub, err := os.ReadDir(filepath.Join(root, ent.Name()))
			if err != nil {
				return nil, fmt.Errorf("read notebook dir %s: %w", ent.Name(), err)
			}
			for _, f := range sub {
				if f.IsDir() || !strings.EqualFold(filepath.Ext(f.Name()), ".znote") {
					continue
				}
				appendNote(filepath.Join(root, ent.Name(), f.Name()), ent.Name())
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(ent.Name()), ".znote") {
			appendNote(filepath.Join(root, ent.Name()), "")
		}
	}
	return notes, nil
}

func (r Reader) readZnote(path string, notebook string, workDir string) (zohodomain.Note, error) {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	baseDir := filepath.Join(workDir, "notes", id)

	zr, err := zip.OpenReader(path)
	if err != nil {
		return zohodomain.Note{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()

	var metaRaw, contentRaw []byte
	var resources []string
	for _, f := range zr.File {
		name := filepath.ToSlash(f.Name)
		switch {
		case f.FileInfo().IsDir():
		case name == metaEntryName:
			metaRaw, err = readZipEntry(f)
			if err != nil {
				return zohodomain.Note{}, err
			}
		case name == contentEntryName:
			contentRaw, err = readZipEntry(f)
			if err != nil {
				return zohodomain.Note{}, err
			}
		case strings.HasPrefix(name, resourcePrefix):
			if f.Mode()&fs.ModeSymlink != 0 {
				r.warn("skipping symlink archive entry", "note", id, "entry", name)
				continue
			}
			if err := r.extractEntry(f, baseDir, name); err != nil {
				r.warn("skipping unsafe archive entry", "note", id, "entry", name, "error", err)
				continue
			}
			resources = append(resources, name)
		}
	}

	note := noteFromMeta(metaRaw, id, notebook)
	note.BaseDir = baseDir

	content, err := znel.Parse(string(contentRaw))
	if err != nil {
		r.warn("content parse failed, keeping what was read", "note", id, "error", err)
	}
	note.Content = content

	if len(note.Images) == 0 && len(note.Attachments) == 0 {
		sort.Strings(resources)
		for _, res := range resources {
			if _, ok := imageExtensions[strings.ToLower(filepath.Ext(res))]; ok {
				note.Images = append(note.Images, res)
			} else {
				note.Attachments = append(note.Attachments, res)
			}
		}
	}
	return note, nil
}

// noteFromMeta reads the loosely structured meta.json blob. Every field is
// optional; absent or malformed values get defaults instead of failing the
// note.
func noteFromMeta(raw []byte, id string, notebook string) zohodomain.Note {
	meta := map[string]any{}
	if len(raw) > 0 {
		// A malformed blob leaves meta empty; defaults cover the rest.
		_ = json.Unmarshal(raw, &meta)
	}

	note := zohodomain.Note{
		ID:           firstString(meta, "id", "note_id"),
		Notebook:     firstString(meta, "notebook", "notebook_name"),
		Title:        firstString(meta, "title", "name"),
		Color:        firstString(meta, "color"),
		CreatedRaw:   firstString(meta, "created_date", "createdDate"),
		ModifiedRaw:  firstString(meta, "modified_date", "modifiedDate"),
		DeclaredType: firstString(meta, "type", "note_type"),
		Images:       toStringSlice(meta["images"]),
		Attachments:  toStringSlice(meta["attachments"]),
	}
	if note.ID == "" {
		note.ID = id
	}
	if note.Notebook == "" {
		note.Notebook = notebook
	}
	if note.Title == "" {
		note.Title = note.ID
	}
	return note
}

func (r Reader) extractZip(zipPath string, destDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.Mode()&fs.ModeSymlink != 0 {
			r.warn("skipping symlink archive entry", "entry", f.Name)
			continue
		}
		if err := r.extractEntry(f, destDir, f.Name); err != nil {
			r.warn("skipping unsafe archive entry", "entry", f.Name, "error", err)
		}
	}
	return nil
}

// extractEntry writes one archive entry under destDir, rejecting names that
// would land outside it.
func (r Reader) extractEntry(f *zip.File, destDir string, name string) error {
	dest, err := exportfs.SafeJoin(destDir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (r Reader) warn(msg string, kv ...any) {
	if r.Log == nil {
		return
	}
	r.Log.Warn(msg, kv...)
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(m[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", t))
	default:
		return ""
	}
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, filepath.ToSlash(s))
		}
	}
	return out
}
