package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration is looked up when no path is given,
// relative to the workspace root.
const DefaultPath = "wsboot.yaml"

type Config struct {
	Workspace Workspace `yaml:"workspace"`
	Library   Release   `yaml:"library"`
	Tool      Release   `yaml:"tool"`
	Agent     Agent     `yaml:"agent"`
	Network   Network   `yaml:"network"`
	Log       Log       `yaml:"log"`
}

type Workspace struct {
	Install    string `yaml:"install"`    // install directory, relative to the root
	Assets     string `yaml:"assets"`     // assets directory, relative to the root
	Submodules string `yaml:"submodules"` // file whose presence means submodules are checked out
}

// Release describes a binary published as a github release asset.
// Keywords, artifact and companions are templates resolved against the host profile,
// e.g. "{{.OS}}" or "mxu{{.Extension}}".
type Release struct {
	Repo       string   `yaml:"repo"`       // owner/name
	Keywords   []string `yaml:"keywords"`   // every one must be part of the asset name
	Directory  string   `yaml:"directory"`  // destination, relative to the install directory
	Artifact   string   `yaml:"artifact"`   // file proving the installation
	Companions []string `yaml:"companions"` // optional files installed alongside the artifact
	Prerelease bool     `yaml:"prerelease"` // allow picking prereleases
}

type Agent struct {
	Source string `yaml:"source"` // go module of the companion service, relative to the root
	Output string `yaml:"output"` // binary path without extension, relative to the install directory
}

type Network struct {
	Timeout    time.Duration `yaml:"timeout"`
	APIBaseURL string        `yaml:"api_base_url"`
}

type Log struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Filename   string `yaml:"filename"`    // log file path, relative to the root; empty disables it
	MaxSize    int    `yaml:"max_size"`    // megabytes
	MaxBackups int    `yaml:"max_backups"` // number of backups
	MaxAge     int    `yaml:"max_age"`     // days
	Compress   bool   `yaml:"compress"`    // compress rotated files
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Workspace: Workspace{
			Install:    "install",
			Assets:     "assets",
			Submodules: "assets/MaaCommonAssets/LICENSE",
		},
		Library: Release{
			Repo:       "MaaXYZ/MaaFramework",
			Keywords:   []string{"maa", "{{.OS}}", "{{.Arch}}"},
			Prerelease: true,
			Directory:  "maafw",
			Artifact:   "{{.LibPrefix}}MaaFramework{{.LibExtension}}",
		},
		Tool: Release{
			Repo:       "MistEO/MXU",
			Keywords:   []string{"mxu", "{{.OS}}", "{{.Arch}}"},
			Prerelease: true,
			Directory:  ".",
			Artifact:   "mxu{{.Extension}}",
			Companions: []string{"{{if .IsWindows}}mxu.pdb{{end}}"},
		},
		Agent: Agent{
			Source: "agent/go-service",
			Output: "agent/go-service",
		},
		Network: Network{
			Timeout: 30 * time.Second,
		},
		Log: Log{
			Level:      "info",
			Filename:   "install/wsboot.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// LoadFromFile overlays the yaml file at path on top of the defaults.
// A missing file isn't an error, the defaults are returned as they are.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the fields the setup can't work without.
func (c *Config) Validate() error {
	if c.Workspace.Install == "" {
		return errors.New("workspace.install must be set")
	}

	for name, rel := range map[string]Release{"library": c.Library, "tool": c.Tool} {
		if rel.Repo == "" {
			return fmt.Errorf("%s.repo must be set", name)
		}
		if rel.Artifact == "" {
			return fmt.Errorf("%s.artifact must be set", name)
		}
	}

	if c.Network.Timeout <= 0 {
		return errors.New("network.timeout must be positive")
	}

	return nil
}
