package zohozip

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/sleroq/zoho-to-obsidian/internal/logger"
)

func znoteBytes(t *testing.T, meta map[string]any, content string, resources map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			t.Fatalf("marshal meta: %v", err)
		}
		w, err := zw.Create(metaEntryName)
		if err != nil {
			t.Fatalf("create meta entry: %v", err)
		}
		if _, err := w.Write(raw); err != nil {
			t.Fatalf("write meta entry: %v", err)
		}
	}

	w, err := zw.Create(contentEntryName)
	if err != nil {
		t.Fatalf("create content entry: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write content entry: %v", err)
	}

	for name, data := range resources {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create resource entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("write resource entry %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close znote: %v", err)
	}
	return buf.Bytes()
}

func writeZnote(t *testing.T, path string, meta map[string]any, content string, resources map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, znoteBytes(t, meta, content, resources), 0o644); err != nil {
		t.Fatalf("write znote: %v", err)
	}
}

func TestReadExportDirectory(t *testing.T) {
	input := t.TempDir()
	writeZnote(t, filepath.Join(input, "Recipes", "note-1.znote"),
		map[string]any{
			"id":           "note-1",
			"title":        "Pancakes",
			"type":         "note/mixed",
			"created_date": "1609459200",
		},
		`<div>Mix and fry.</div>`,
		map[string]string{
			"resources/photo.png": "png",
			"resources/notes.pdf": "pdf",
		},
	)

	r := Reader{WorkDir: t.TempDir(), Log: logger.Discard()}
	data, err := r.ReadExport(input)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(data.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(data.Notes))
	}

	note := data.Notes[0]
	if note.ID != "note-1" || note.Title != "Pancakes" || note.Notebook != "Recipes" {
		t.Fatalf("unexpected note identity: %+v", note)
	}
	if note.Content == nil || !note.Content.HasText() {
		t.Fatalf("content tree missing")
	}
	if len(note.Images) != 1 || note.Images[0] != "resources/photo.png" {
		t.Fatalf("expected image derived by extension, got %v", note.Images)
	}
	if len(note.Attachments) != 1 || note.Attachments[0] != "resources/notes.pdf" {
		t.Fatalf("expected attachment derived by extension, got %v", note.Attachments)
	}

	extracted := filepath.Join(note.BaseDir, "resources", "photo.png")
	if data, err := os.ReadFile(extracted); err != nil || string(data) != "png" {
		t.Fatalf("resource not extracted to BaseDir: %q %v", data, err)
	}
}

func TestReadExportTopLevelZnoteHasNoNotebook(t *testing.T) {
	input := t.TempDir()
	writeZnote(t, filepath.Join(input, "loose.znote"), nil, `<div>x</div>`, nil)

	r := Reader{WorkDir: t.TempDir(), Log: logger.Discard()}
	data, err := r.ReadExport(input)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(data.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(data.Notes))
	}
	note := data.Notes[0]
	if note.Notebook != "" {
		t.Fatalf("top-level note must have no notebook, got %q", note.Notebook)
	}
	if note.ID != "loose" || note.Title != "loose" {
		t.Fatalf("missing meta must default id and title from filename, got %+v", note)
	}
}

func TestReadExportZipInput(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("Recipes/note-1.znote")
	if err != nil {
		t.Fatalf("create nested znote: %v", err)
	}
	if _, err := w.Write(znoteBytes(t, map[string]any{"title": "Soup"}, `<div>boil</div>`, nil)); err != nil {
		t.Fatalf("write nested znote: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	zipPath := filepath.Join(t.TempDir(), "export.zip")
	if err := os.WriteFile(zipPath, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	r := Reader{WorkDir: t.TempDir(), Log: logger.Discard()}
	data, err := r.ReadExport(zipPath)
	if err != nil {
		t.Fatalf("read zip export: %v", err)
	}
	if len(data.Notes) != 1 || data.Notes[0].Title != "Soup" || data.Notes[0].Notebook != "Recipes" {
		t.Fatalf("unexpected notes from zip input: %+v", data.Notes)
	}
}

func TestReadExportRejectsOtherInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.tar")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := Reader{WorkDir: t.TempDir(), Log: logger.Discard()}
	if _, err := r.ReadExport(path); err == nil {
		t.Fatalf("expected rejection of non-zip file input")
	}
}

func TestReadZnoteSkipsZipSlipEntries(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range map[string]string{
		contentEntryName:           `<div>safe</div>`,
		"resources/../../evil.txt": "evil",
		"resources/ok.png":         "png",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	input := t.TempDir()
	if err := os.WriteFile(filepath.Join(input, "evil.znote"), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write znote: %v", err)
	}

	work := t.TempDir()
	r := Reader{WorkDir: work, Log: logger.Discard()}
	data, err := r.ReadExport(input)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(data.Notes) != 1 {
		t.Fatalf("hostile entry must not sink the note, got %d notes", len(data.Notes))
	}

	if _, err := os.Stat(filepath.Join(work, "evil.txt")); !os.IsNotExist(err) {
		t.Fatalf("zip-slip entry escaped the note dir: %v", err)
	}
	note := data.Notes[0]
	if len(note.Images) != 1 || note.Images[0] != "resources/ok.png" {
		t.Fatalf("safe sibling entry must survive, got %v", note.Images)
	}
}

func TestReadZnoteSkipsSymlinkEntries(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(contentEntryName)
	if err != nil {
		t.Fatalf("create content: %v", err)
	}
	if _, err := w.Write([]byte(`<div>x</div>`)); err != nil {
		t.Fatalf("write content: %v", err)
	}

	hdr := &zip.FileHeader{Name: "resources/link"}
	hdr.SetMode(fs.ModeSymlink | 0o777)
	lw, err := zw.CreateHeader(hdr)
	if err != nil {
		t.Fatalf("create symlink entry: %v", err)
	}
	if _, err := lw.Write([]byte("/etc/passwd")); err != nil {
		t.Fatalf("write symlink entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	input := t.TempDir()
	if err := os.WriteFile(filepath.Join(input, "n.znote"), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write znote: %v", err)
	}

	r := Reader{WorkDir: t.TempDir(), Log: logger.Discard()}
	data, err := r.ReadExport(input)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	note := data.Notes[0]
	if len(note.Images)+len(note.Attachments) != 0 {
		t.Fatalf("symlink entry must be skipped, got %v %v", note.Images, note.Attachments)
	}
	if _, err := os.Lstat(filepath.Join(note.BaseDir, "resources", "link")); !os.IsNotExist(err) {
		t.Fatalf("symlink entry materialized on disk: %v", err)
	}
}

func TestReadExportSkipsBrokenArchive(t *testing.T) {
	input := t.TempDir()
	writeZnote(t, filepath.Join(input, "NB", "good.znote"), map[string]any{"title": "Good"}, `<div>x</div>`, nil)
	if err := os.WriteFile(filepath.Join(input, "NB", "bad.znote"), []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write broken znote: %v", err)
	}

	r := Reader{WorkDir: t.TempDir(), Log: logger.Discard()}
	data, err := r.ReadExport(input)
	if err != nil {
		t.Fatalf("one broken archive must not fail the export: %v", err)
	}
	if len(data.Notes) != 1 || data.Notes[0].Title != "Good" {
		t.Fatalf("expected the good note to survive, got %+v", data.Notes)
	}
}

func TestReadExportMetaDeclaredResourceLists(t *testing.T) {
	input := t.TempDir()
	writeZnote(t, filepath.Join(input, "NB", "n.znote"),
		map[string]any{
			"title":       "Declared",
			"images":      []any{"resources/a.png"},
			"attachments": []any{"resources/b.bin"},
		},
		`<div>x</div>`,
		map[string]string{
			"resources/a.png": "a",
			"resources/b.bin": "b",
			"resources/c.png": "c",
		},
	)

	r := Reader{WorkDir: t.TempDir(), Log: logger.Discard()}
	data, err := r.ReadExport(input)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	note := data.Notes[0]
	if len(note.Images) != 1 || note.Images[0] != "resources/a.png" {
		t.Fatalf("declared image list must win over derivation, got %v", note.Images)
	}
	if len(note.Attachments) != 1 || note.Attachments[0] != "resources/b.bin" {
		t.Fatalf("declared attachment list must win over derivation, got %v", note.Attachments)
	}
}
