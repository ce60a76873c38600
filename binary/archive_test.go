package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// archiveEntry describes a file to put in a test archive.
// Entries with a trailing slash are directories, entries with a link are symlinks and
// entries with a hardlink point to another entry of the same tar archive.
type archiveEntry struct {
	name     string
	content  string
	mode     fs.FileMode
	link     string
	hardlink string
}

func writeZip(t *testing.T, path string, entries ...archiveEntry) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer := zip.NewWriter(file)
	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.name, Method: zip.Deflate}

		mode := entry.mode
		if mode == 0 {
			mode = 0o644
		}
		switch {
		case entry.link != "":
			header.SetMode(fs.ModeSymlink | 0o777)
		case entry.name[len(entry.name)-1] == '/':
			header.SetMode(fs.ModeDir | 0o755)
		default:
			header.SetMode(mode)
		}

		w, err := writer.CreateHeader(header)
		require.NoError(t, err)

		content := entry.content
		if entry.link != "" {
			content = entry.link
		}
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
}

func writeTar(t *testing.T, path string, entries ...archiveEntry) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writeTarStream(t, file, entries...)
}

func writeTarGz(t *testing.T, path string, entries ...archiveEntry) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	gz := gzip.NewWriter(file)
	writeTarStream(t, gz, entries...)
	require.NoError(t, gz.Close())
}

func writeTarXz(t *testing.T, path string, entries ...archiveEntry) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	compressor, err := xz.NewWriter(file)
	require.NoError(t, err)
	writeTarStream(t, compressor, entries...)
	require.NoError(t, compressor.Close())
}

func writeTarStream(t *testing.T, out io.Writer, entries ...archiveEntry) {
	t.Helper()

	writer := tar.NewWriter(out)

	for _, entry := range entries {
		mode := entry.mode
		if mode == 0 {
			mode = 0o644
		}

		header := &tar.Header{Name: entry.name, Mode: int64(mode), Size: int64(len(entry.content))}
		switch {
		case entry.link != "":
			header.Typeflag = tar.TypeSymlink
			header.Linkname = entry.link
			header.Size = 0
		case entry.hardlink != "":
			header.Typeflag = tar.TypeLink
			header.Linkname = entry.hardlink
			header.Size = 0
		case entry.name[len(entry.name)-1] == '/':
			header.Typeflag = tar.TypeDir
			header.Mode = 0o755
			header.Size = 0
		default:
			header.Typeflag = tar.TypeReg
		}

		require.NoError(t, writer.WriteHeader(header))
		if header.Typeflag == tar.TypeReg {
			_, err := writer.Write([]byte(entry.content))
			require.NoError(t, err)
		}
	}

	require.NoError(t, writer.Close())
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func touch(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
