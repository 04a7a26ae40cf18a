package exporter

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFolderName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Notebook", "my-notebook"},
		{"Work  Stuff", "work-stuff"},
		{"..", "no-notebook"},
		{"...", "no-notebook"},
		{"", "no-notebook"},
		{"a.b..c", "abc"},
		{"Notes/2020\\Q1", "notes2020q1"},
		{"weird\u00a0space", "weird-space"},
		{"-leading-and-trailing-", "leading-and-trailing"},
		{"tabs\tand\nnewlines", "tabs-and-newlines"},
	}
	for _, tc := range cases {
		if got := sanitizeFolderName(tc.in); got != tc.want {
			t.Fatalf("sanitizeFolderName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFolderNameNeverYieldsTraversal(t *testing.T) {
	for _, in := range []string{".", "..", "../..", "..\\..", ". . .", "c..d"} {
		got := sanitizeFolderName(in)
		if strings.Contains(got, "..") || got == "." || strings.ContainsAny(got, `/\`) {
			t.Fatalf("sanitizeFolderName(%q) = %q can form a traversal segment", in, got)
		}
	}
}

func TestSanitizeFolderNameIdempotent(t *testing.T) {
	for _, in := range []string{"My Notebook", "a.b", "Ünïcödé Näme", "x--y"} {
		once := sanitizeFolderName(in)
		if twice := sanitizeFolderName(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plain Title", "Plain Title"},
		{"a/b\\c:d", "abcd"},
		{"what? really*", "what really"},
		{"", "untitled"},
		{"   ", "untitled"},
		{"///", "untitled"},
		{"NUL", "_NUL"},
		{"con", "_con"},
		{"COM1.txt", "_COM1.txt"},
		{"lpt9.md", "_lpt9.md"},
		{"CONtext", "CONtext"},
		{"bell\x07char", "bellchar"},
	}
	for _, tc := range cases {
		if got := sanitizeFileName(tc.in); got != tc.want {
			t.Fatalf("sanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameIdempotent(t *testing.T) {
	inputs := []string{
		"NUL",
		"COM1.txt",
		"Plain Title",
		"a b",
		"  spaced out  ",
		"what? really*",
		strings.Repeat("✓", 100),
	}
	for _, in := range inputs {
		once := sanitizeFileName(in)
		if twice := sanitizeFileName(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("✓", 100) // 3 bytes each
	got := sanitizeFileName(long)

	if len(got) > maxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", maxFileNameBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if len(got) != 198 {
		t.Fatalf("expected backoff to the previous rune boundary (198 bytes), got %d", len(got))
	}
}

func TestSanitizeFileNameASCIILimitExact(t *testing.T) {
	long := strings.Repeat("a", 300)
	if got := sanitizeFileName(long); len(got) != maxFileNameBytes {
		t.Fatalf("expected exactly %d bytes for ASCII input, got %d", maxFileNameBytes, len(got))
	}
}

func TestNormalizeSpaces(t *testing.T) {
	in := "a\u00a0b\u202fc"
	if got := normalizeSpaces(in); got != "a b c" {
		t.Fatalf("normalizeSpaces(%q) = %q", in, got)
	}
}

func TestEscapeFrontmatterValue(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`plain`, `plain`},
		{`say "hi"`, `say \"hi\"`},
		{"line\nbreak", `line\nbreak`},
		{"carriage\rreturn", `carriage\rreturn`},
		{`back\slash`, `back\\slash`},
		{"next\u0085line", `next\nline`},
		{"line\u2028sep", `line\nsep`},
		{"para\u2029sep", `para\nsep`},
		{"ctrl\x01char", `ctrlchar`},
	}
	for _, tc := range cases {
		if got := escapeFrontmatterValue(tc.in); got != tc.want {
			t.Fatalf("escapeFrontmatterValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEscapeFrontmatterValueOutputIsQuoteSafe(t *testing.T) {
	hostile := "a\"b\nc\rd\u2028e\x00f\x9fg\\h"
	got := escapeFrontmatterValue(hostile)
	for i, r := range got {
		if r == '\n' || r == '\r' || r < 0x20 || (r >= 0x80 && r <= 0x9f) {
			t.Fatalf("raw control at byte %d in %q", i, got)
		}
	}
	for i := 0; i < len(got); i++ {
		if got[i] == '"' && (i == 0 || got[i-1] != '\\') {
			t.Fatalf("unescaped quote at byte %d in %q", i, got)
		}
	}
}
