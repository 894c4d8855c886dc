// Package artifact unpacks packaged build output and merges it into an
// install tree.
package artifact

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extract unpacks the ZIP archive at src into dest, overwriting existing
// files. Entries that would land outside dest are rejected, including those
// reached through symlinks extracted earlier from the same archive.
func Extract(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return err
	}
	defer root.Close()

	for _, f := range r.File {
		if err := extractFile(root, f); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(root *os.Root, f *zip.File) error {
	name := filepath.FromSlash(strings.TrimSuffix(f.Name, "/"))
	if name == "" || !filepath.IsLocal(name) {
		return fmt.Errorf("illegal path in archive")
	}

	mode := f.Mode()
	switch {
	case mode.IsDir():
		return root.MkdirAll(name, 0o755)
	case mode&os.ModeSymlink != 0:
		return extractSymlink(root, f, name)
	}

	if err := root.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err := copyTo(out, rc, perm); err != nil {
		return err
	}
	if mtime := f.Modified; !mtime.IsZero() {
		return root.Chtimes(name, mtime, mtime)
	}
	return nil
}

// extractSymlink recreates a link whose target stays within the root. The
// target is resolved against the real location of the link's directory, so
// links extracted earlier cannot be chained out of the root.
func extractSymlink(root *os.Root, f *zip.File, name string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return err
	}
	link := string(data)
	if err := checkLinkTarget(link); err != nil {
		return err
	}

	parent := filepath.Dir(name)
	if err := root.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	base, err := filepath.EvalSymlinks(root.Name())
	if err != nil {
		return err
	}
	dir, err := filepath.EvalSymlinks(filepath.Join(root.Name(), parent))
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(base, dir)
	if err != nil || !filepath.IsLocal(filepath.Join(rel, filepath.FromSlash(link))) {
		return fmt.Errorf("symlink target %q escapes the archive", link)
	}

	if err := root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return root.Symlink(link, name)
}

// checkLinkTarget accepts relative targets whose ".." elements all lead the
// path. A ".." after another element would be resolved against wherever
// that element links to, which a lexical check cannot follow.
func checkLinkTarget(link string) error {
	if link == "" || filepath.IsAbs(link) || filepath.VolumeName(link) != "" || strings.HasPrefix(link, "/") {
		return fmt.Errorf("symlink target %q must be a relative path", link)
	}
	leading := true
	for _, elem := range strings.Split(filepath.ToSlash(link), "/") {
		if elem != ".." {
			leading = false
			continue
		}
		if !leading {
			return fmt.Errorf("symlink target %q has a \"..\" after a path element", link)
		}
	}
	return nil
}

// writeFile writes r to path, replacing any existing file.
func writeFile(path string, r io.Reader, perm os.FileMode) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	return copyTo(out, r, perm)
}

// copyTo copies r into out, sets perm and closes out.
func copyTo(out *os.File, r io.Reader, perm os.FileMode) (err error) {
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err = io.Copy(out, r); err != nil {
		return err
	}
	return out.Chmod(perm)
}
