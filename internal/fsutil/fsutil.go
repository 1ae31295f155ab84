// Package fsutil provides the filesystem primitives behind kit installs:
// recursive tree copies and best-effort permission repair.
package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyTree copies the directory tree rooted at src to dst. dst must not
// already exist. Symlinked entries are followed, so the copy contains their
// target content.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("copy tree: %s is not a directory", src)
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("copy tree: %s already exists", dst)
	}
	return copyDir(src, dst, false)
}

// MergeTree copies src into dst, creating dst if needed and overwriting
// files that already exist. Used when layering a template over a project.
func MergeTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("merge tree: %s is not a directory", src)
	}
	return copyDir(src, dst, true)
}

func copyDir(src, dst string, overwrite bool) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := os.Stat(srcPath)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := copyDir(srcPath, dstPath, overwrite); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath, info.Mode().Perm(), overwrite); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode, overwrite bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(dst, flags, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	return out.Close()
}

// FixPermissions walks root and grants the owning user read/write (and
// traverse on directories and already-executable files). Sources copied
// from read-only checkouts or other owners otherwise produce kits the tool
// cannot update or remove later. Failures come back as warnings; nothing
// here is fatal.
func FixPermissions(root string) []string {
	var warnings []string

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot inspect %s: %v", path, err))
			return nil
		}

		info, err := d.Info()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot inspect %s: %v", path, err))
			return nil
		}

		perm := info.Mode().Perm()
		want := perm | 0o600
		if d.IsDir() || perm&0o111 != 0 {
			want |= 0o100
		}
		if want == perm {
			return nil
		}
		if err := os.Chmod(path, want); err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot adjust permissions on %s: %v", path, err))
		}
		return nil
	})

	return warnings
}

// IsEmptyDir reports whether path is a directory with no entries.
func IsEmptyDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
