// Package exportfs holds the filesystem boundary checks and the resource
// copy primitive. Every name derived from export data passes through the
// guard here before it becomes a real path.
package exportfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WithinBase reports whether candidate resolves strictly inside base: equal
// paths do not count, and the comparison is robust to base missing a
// trailing separator. Neither path needs to exist.
func WithinBase(base string, candidate string) bool {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	absCandidate, err := filepath.Abs(candidate)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absBase, absCandidate)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SafeJoin joins rel onto base and rejects the result when it escapes base.
func SafeJoin(base string, rel string) (string, error) {
	joined := filepath.Join(base, filepath.FromSlash(rel))
	if !WithinBase(base, joined) {
		return "", fmt.Errorf("path %q escapes %q", rel, base)
	}
	return joined, nil
}

// EnsureDirWithin creates a directory named name under base after confirming
// the result stays inside base. The name is expected to have been through
// the folder sanitizer already; the check is a second line of defense.
func EnsureDirWithin(base string, name string) (string, error) {
	dir, err := SafeJoin(base, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// CopyFileWithin copies srcBase/srcRel to dstBase/dstRel. It refuses any
// resolved path outside its base, refuses symbolic-link sources no matter
// where they point, and performs no partial writes on rejection.
func CopyFileWithin(srcBase string, srcRel string, dstBase string, dstRel string) error {
	src, err := SafeJoin(srcBase, srcRel)
	if err != nil {
		return err
	}
	dst, err := SafeJoin(dstBase, dstRel)
	if err != nil {
		return err
	}

	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("refusing to copy symlink %s", src)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("refusing to copy non-regular file %s", src)
	}

	if !WithinBase(dstBase, filepath.Dir(dst)) && filepath.Clean(filepath.Dir(dst)) != filepath.Clean(dstBase) {
		return fmt.Errorf("destination dir for %q escapes %q", dstRel, dstBase)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
