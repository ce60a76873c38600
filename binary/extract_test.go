package binary

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Zip(t *testing.T) {
	scratch := t.TempDir()
	archive := filepath.Join(scratch, "lib-win-x86_64.zip")

	writeZip(t, archive,
		archiveEntry{name: "pkg/"},
		archiveEntry{name: "pkg/bin/a.dll", content: "a"},
		archiveEntry{name: "pkg/bin/b.dll", content: "b"},
		archiveEntry{name: "README.md", content: "readme"},
	)

	root, err := Extract(archive, scratch)
	require.NoError(t, err)

	assert.Equal(t, scratch, filepath.Dir(root))
	assert.Equal(t, "a", readFile(t, filepath.Join(root, "pkg", "bin", "a.dll")))
	assert.Equal(t, "b", readFile(t, filepath.Join(root, "pkg", "bin", "b.dll")))
	assert.Equal(t, "readme", readFile(t, filepath.Join(root, "README.md")))
}

func TestExtract_TarFamily(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	entries := []archiveEntry{
		{name: "tool/"},
		{name: "tool/mxu", content: "#!/bin/sh", mode: 0o755},
		{name: "tool/mxu-hard", hardlink: "tool/mxu"},
		{name: "tool/latest", link: "mxu"},
	}

	// there is no bzip2 writer around, bz2 archives come from testdata
	fixture := func(t *testing.T, path string, _ ...archiveEntry) {
		t.Helper()
		content, err := os.ReadFile(filepath.Join("testdata", "tool.tar.bz2"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}

	tests := []struct {
		name  string
		write func(t *testing.T, path string, entries ...archiveEntry)
	}{
		{"tool-linux-x86_64.tar", writeTar},
		{"tool-linux-x86_64.TAR.GZ", writeTarGz},
		{"tool-linux-x86_64.tgz", writeTarGz},
		{"tool-linux-x86_64.tar.xz", writeTarXz},
		{"tool-linux-x86_64.txz", writeTarXz},
		{"tool-linux-x86_64.tar.bz2", fixture},
		{"tool-linux-x86_64.tbz2", fixture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scratch := t.TempDir()
			archive := filepath.Join(scratch, tt.name)
			tt.write(t, archive, entries...)

			root, err := Extract(archive, scratch)
			require.NoError(t, err)

			executable := filepath.Join(root, "tool", "mxu")
			info, err := os.Stat(executable)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
			assert.Equal(t, "#!/bin/sh", readFile(t, executable))

			hard, err := os.Lstat(filepath.Join(root, "tool", "mxu-hard"))
			require.NoError(t, err)
			assert.True(t, hard.Mode().IsRegular())
			assert.True(t, os.SameFile(info, hard))

			link, err := os.Readlink(filepath.Join(root, "tool", "latest"))
			require.NoError(t, err)
			assert.Equal(t, "mxu", link)
		})
	}
}

func TestExtract_Unsupported(t *testing.T) {
	scratch := t.TempDir()
	archive := filepath.Join(scratch, "tool.7z")
	touch(t, archive, "not really")

	_, err := Extract(archive, scratch)
	assert.ErrorIs(t, err, ErrUnsupportedArchive)
	assert.Equal(t, "unsupported-archive", Category(err))
}

func TestExtract_Corrupted(t *testing.T) {
	scratch := t.TempDir()
	archive := filepath.Join(scratch, "broken.zip")
	touch(t, archive, "definitely not a zip")

	_, err := Extract(archive, scratch)
	assert.Error(t, err)
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []archiveEntry
	}{
		{
			name:    "parent traversal",
			entries: []archiveEntry{{name: "../evil.txt", content: "evil"}},
		},
		{
			name:    "nested traversal",
			entries: []archiveEntry{{name: "pkg/../../evil.txt", content: "evil"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			scratch := filepath.Join(parent, "scratch")
			require.NoError(t, os.Mkdir(scratch, 0o755))

			archive := filepath.Join(scratch, "evil.zip")
			writeZip(t, archive, tt.entries...)

			_, err := Extract(archive, scratch)
			assert.Error(t, err)
			assert.NoFileExists(t, filepath.Join(parent, "evil.txt"))
			assert.NoFileExists(t, filepath.Join(scratch, "evil.txt"))
		})
	}
}

func TestExtract_RejectsEscapingLinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	tests := []struct {
		name     string
		entries  []archiveEntry
		contains string
		outside  string
	}{
		{
			name:     "link out of the root",
			entries:  []archiveEntry{{name: "pkg/passwd", link: "../../../etc/passwd"}},
			contains: "escaping the archive root",
		},
		{
			name: "entry below chained links",
			entries: []archiveEntry{
				{name: "d/y", link: ".."},
				{name: "d/y/z", link: ".."},
				{name: "d/y/z/evil", content: "evil"},
			},
			contains: "is a link",
			outside:  "evil",
		},
		{
			name: "file written over a link",
			entries: []archiveEntry{
				{name: "d/b", link: ".."},
				{name: "x", link: "d/b/../outside.txt"},
				{name: "x", content: "evil"},
			},
			contains: "is a link",
			outside:  "outside.txt",
		},
		{
			name: "link resolving through another link",
			entries: []archiveEntry{
				{name: "d/b", link: ".."},
				{name: "bin", link: "d/b/.."},
			},
			contains: "escaping the archive root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scratch := t.TempDir()
			archive := filepath.Join(scratch, "links.tar.gz")
			writeTarGz(t, archive, tt.entries...)

			_, err := Extract(archive, scratch)
			assert.ErrorContains(t, err, tt.contains)
			if tt.outside != "" {
				assert.NoFileExists(t, filepath.Join(scratch, tt.outside))
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name   string
		format archiveFormat
	}{
		{"a.zip", formatZip},
		{"a.ZIP", formatZip},
		{"a.tar", formatTar},
		{"a.tar.gz", formatTarGz},
		{"a.tgz", formatTarGz},
		{"a.tar.bz2", formatTarBz2},
		{"a.tbz2", formatTarBz2},
		{"a.tar.xz", formatTarXz},
		{"a.TXZ", formatTarXz},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := detectFormat(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
		})
	}

	_, err := detectFormat("a.rar")
	assert.ErrorIs(t, err, ErrUnsupportedArchive)
}
