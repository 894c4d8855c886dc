package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyFile copies src to dst, following symlinks in src. An existing dst is
// overwritten. Permission bits and modification time are preserved.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", src)
	}
	if err := writeFile(dst, in, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// CopyInto copies src into directory dir under its base name, creating dir
// if absent, and returns the destination path.
func CopyInto(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := CopyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// MergeTree copies every directory and file under src to the same relative
// path under dst. Directories are created when absent and files are always
// overwritten; nothing is skipped or renamed. Symlinks are followed, and a
// link to a directory is merged as a directory. It returns the number of
// files copied.
func MergeTree(src, dst string) (int, error) {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return 0, err
	}
	return mergeTree(resolved, dst, map[string]bool{})
}

// mergeTree walks the resolved directory src. active holds the resolved
// roots currently being walked; reaching one again means a link cycle.
func mergeTree(src, dst string, active map[string]bool) (int, error) {
	if active[src] {
		return 0, fmt.Errorf("%s: symlink cycle", src)
	}
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s: not a directory", src)
	}
	active[src] = true
	defer delete(active, src)

	copied := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return err
			}
			fi, err := os.Stat(resolved)
			if err != nil {
				return err
			}
			if fi.IsDir() {
				n, err := mergeTree(resolved, target, active)
				copied += n
				return err
			}
		}
		if err := CopyFile(path, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}
