package binary

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Entry is a file or directory of the extracted archive and the name it gets in the
// destination.
type Entry struct {
	Source string
	Name   string
}

// Plan describes how the content of an extracted release archive gets installed.
type Plan interface {
	// Locate inspects the extracted tree and returns the entries that have to be copied
	// into the destination. It fails with [ErrLayoutMismatch] when the archive doesn't
	// carry the expected artifact.
	Locate(extracted string) ([]Entry, error)
	// Obstruction is the previous installation, removed before copying.
	Obstruction() string
	// Destination is the directory receiving the located entries.
	Destination() string
	// Artifact is the path that exists after a successful installation.
	Artifact() string
}

type libraryplan struct {
	destination string
	artifact    string
}

// LibraryPlan installs the content of the first "bin" directory found in the archive
// into destination, which is replaced as a whole.
// artifact is the library file name that has to be part of it.
func LibraryPlan(destination, artifact string) Plan {
	return &libraryplan{destination: destination, artifact: artifact}
}

func (p *libraryplan) Locate(extracted string) ([]Entry, error) {
	bindir := ""

	// directories are visited before their children, so a "bin" closer to the root wins
	err := filepath.WalkDir(extracted, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}

		candidate := filepath.Join(path, "bin")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			bindir = candidate
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	if bindir == "" {
		return nil, fmt.Errorf("%w: no bin directory in the extracted archive", ErrLayoutMismatch)
	}

	entries, err := os.ReadDir(bindir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	found := false
	located := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		located = append(located, Entry{Source: filepath.Join(bindir, entry.Name()), Name: entry.Name()})
		if entry.Name() == p.artifact {
			found = true
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: %s not found in %s", ErrLayoutMismatch, p.artifact, bindir)
	}

	return located, nil
}

func (p *libraryplan) Obstruction() string { return p.destination }
func (p *libraryplan) Destination() string { return p.destination }
func (p *libraryplan) Artifact() string    { return filepath.Join(p.destination, p.artifact) }

type toolplan struct {
	destination string
	executable  string
	companions  []string
}

// ToolPlan installs files found at the top level of the archive whose name matches,
// ignoring case, the executable or one of the companions (e.g. debug symbols).
// Matches are installed under the configured spelling, not the archive's one.
// Only the executable is mandatory and only the executable is replaced beforehand.
func ToolPlan(destination, executable string, companions ...string) Plan {
	return &toolplan{destination: destination, executable: executable, companions: companions}
}

func (p *toolplan) Locate(extracted string) ([]Entry, error) {
	entries, err := os.ReadDir(extracted)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	wanted := make(map[string]string, len(p.companions)+1)
	for _, companion := range p.companions {
		wanted[strings.ToLower(companion)] = companion
	}
	wanted[strings.ToLower(p.executable)] = p.executable

	found := false
	var located []Entry
	for _, entry := range entries {
		name, ok := wanted[strings.ToLower(entry.Name())]
		if !ok {
			continue
		}

		located = append(located, Entry{Source: filepath.Join(extracted, entry.Name()), Name: name})
		if name == p.executable {
			found = true
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: %s not found at the top level of the archive", ErrLayoutMismatch, p.executable)
	}

	return located, nil
}

func (p *toolplan) Obstruction() string { return filepath.Join(p.destination, p.executable) }
func (p *toolplan) Destination() string { return p.destination }
func (p *toolplan) Artifact() string    { return filepath.Join(p.destination, p.executable) }
