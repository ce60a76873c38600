package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/ulikunitz/xz"
)

type archiveFormat string

const (
	formatZip    archiveFormat = "zip"
	formatTar    archiveFormat = "tar"
	formatTarGz  archiveFormat = "tar.gz"
	formatTarBz2 archiveFormat = "tar.bz2"
	formatTarXz  archiveFormat = "tar.xz"
)

// suffixes are matched in order, so compound extensions must come before ".tar".
var suffixes = []struct {
	suffix string
	format archiveFormat
}{
	{".tar.gz", formatTarGz},
	{".tgz", formatTarGz},
	{".tar.bz2", formatTarBz2},
	{".tbz2", formatTarBz2},
	{".tar.xz", formatTarXz},
	{".txz", formatTarXz},
	{".tar", formatTar},
	{".zip", formatZip},
}

func detectFormat(name string) (archiveFormat, error) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedArchive, filepath.Base(name))
}

// Extract unpacks archive inside a new directory created under scratch and returns
// its path. The format is picked from the file extension.
func Extract(archive, scratch string) (root string, err error) {
	logdetail(fmt.Sprintf("extracting %s", filepath.Base(archive)))

	start := time.Now()
	defer func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			logfailure(err)
			return
		}
		color.Green("     ✔ %s", elapsed)
	}()

	format, err := detectFormat(archive)
	if err != nil {
		return "", err
	}

	root, err = os.MkdirTemp(scratch, "extracted-")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create extraction directory: %w", ErrFilesystem, err)
	}

	file, err := os.Open(archive)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open archive: %w", ErrFilesystem, err)
	}
	defer file.Close()

	if err := unpack(file, format, root); err != nil {
		return "", err
	}

	if err := verifyLinks(root); err != nil {
		return "", err
	}

	return root, nil
}

func unpack(file *os.File, format archiveFormat, root string) error {
	switch format {
	case formatZip:
		info, err := file.Stat()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFilesystem, err)
		}
		return unzip(file, info.Size(), root)

	case formatTarGz:
		decompressor, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer decompressor.Close()
		return untar(decompressor, root)

	case formatTarBz2:
		return untar(bzip2.NewReader(file), root)

	case formatTarXz:
		decompressor, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to create xz reader: %w", err)
		}
		return untar(decompressor, root)

	default:
		return untar(file, root)
	}
}

// handles tar streams, compressed or not
func untar(stream io.Reader, destination string) error {
	reader := tar.NewReader(stream)

	for {
		header, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		target, err := within(destination, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, reader, header.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := symlink(destination, target, header.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			source, err := within(destination, header.Linkname)
			if err != nil {
				return err
			}
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("failed to link %s: %w", target, err)
			}
		}
	}

	return nil
}

// handles .zip files
func unzip(file io.ReaderAt, size int64, destination string) error {
	reader, err := zip.NewReader(file, size)
	if err != nil {
		return fmt.Errorf("failed to create zip reader: %w", err)
	}

	for _, entry := range reader.File {
		target, err := within(destination, entry.Name)
		if err != nil {
			return err
		}

		mode := entry.Mode()

		if mode.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			continue
		}

		contents, err := entry.Open()
		if err != nil {
			return fmt.Errorf("failed to open file %s: %w", entry.Name, err)
		}

		if mode&fs.ModeSymlink != 0 {
			linkname, err := io.ReadAll(contents)
			contents.Close()
			if err != nil {
				return fmt.Errorf("failed to read link %s: %w", entry.Name, err)
			}
			if err := symlink(destination, target, string(linkname)); err != nil {
				return err
			}
			continue
		}

		err = writeFile(target, contents, mode)
		contents.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func writeFile(target string, contents io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(target), err)
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, contents); err != nil {
		return fmt.Errorf("failed to copy data to file %s: %w", target, err)
	}

	return nil
}

// symlink creates a link inside root; links pointing outside of it are refused.
func symlink(root, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("refusing absolute link %s -> %s", target, linkname)
	}

	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))
	if !inside(root, resolved) {
		return fmt.Errorf("refusing link escaping the archive root: %s -> %s", target, linkname)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(target), err)
	}

	if err := os.Symlink(linkname, target); err != nil {
		return fmt.Errorf("failed to create link %s: %w", target, err)
	}

	return nil
}

// within joins an archive entry name to root, refusing names that escape it. Names
// going through a link extracted earlier are refused too, the link may point anywhere
// once it is followed.
func within(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !inside(root, target) {
		return "", fmt.Errorf("refusing archive entry outside of the destination: %s", name)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." {
		return target, nil
	}

	current := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrFilesystem, err)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return "", fmt.Errorf("refusing archive entry %s: %s is a link", name, current)
		}
	}

	return target, nil
}

// verifyLinks walks the extracted tree and fails if any link resolves outside of it.
// Dangling links are left alone since nothing can be reached through them.
func verifyLinks(root string) error {
	realroot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if !inside(realroot, resolved) {
			return fmt.Errorf("refusing link escaping the archive root: %s -> %s", path, resolved)
		}
		return nil
	})
}

func inside(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
