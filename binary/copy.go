package binary

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyEntry copies a file, symlink or whole directory tree from src to dst.
// An existing directory at dst is replaced, existing files are overwritten.
func CopyEntry(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return copyLink(src, dst)
	case info.IsDir():
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to clear %s: %w", dst, err)
		}
		return CopyTree(src, dst)
	default:
		return CopyFile(src, dst)
	}
}

// CopyTree recursively copies the src directory into dst, keeping file modes and
// modification times.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			return copyLink(path, target)
		case entry.IsDir():
			info, err := entry.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		default:
			return CopyFile(path, target)
		}
	})
}

// CopyFile copies a single file, keeping its mode and modification time.
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

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(dst), err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy data to file %s: %w", dst, err)
	}

	if err := out.Close(); err != nil {
		return err
	}

	// O_TRUNC keeps the mode of a file that already existed
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func copyLink(src, dst string) error {
	link, err := os.Readlink(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}

	return os.Symlink(link, dst)
}
