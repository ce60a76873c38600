package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/maaend/wsboot/binary"
	"github.com/maaend/wsboot/internal/config"
	"github.com/maaend/wsboot/internal/logger"
)

type platformOpts struct {
	OS   string `long:"os" description:"target operating system (win, macos, linux)"`
	Arch string `long:"arch" description:"target architecture (x86_64, aarch64)"`
}

// host returns the target profile, defaulting what isn't set to the running machine.
func (p platformOpts) host() (binary.HostProfile, error) {
	osname, arch := p.OS, p.Arch
	if osname == "" {
		osname = runtime.GOOS
	}
	if arch == "" {
		arch = runtime.GOARCH
	}
	return binary.NewHostProfile(osname, arch)
}

// workspace gathers what every command needs: paths, configuration and logger.
type workspace struct {
	root    string
	install string
	cfg     *config.Config
	host    binary.HostProfile
	logger  *zap.Logger
}

func openWorkspace(root, cfgpath string, platform platformOpts) (*workspace, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	if cfgpath == "" {
		cfgpath = filepath.Join(root, config.DefaultPath)
	}

	cfg, err := config.LoadFromFile(cfgpath)
	if err != nil {
		return nil, err
	}

	host, err := platform.host()
	if err != nil {
		return nil, err
	}

	logcfg := cfg.Log
	if logcfg.Filename != "" && !filepath.IsAbs(logcfg.Filename) {
		logcfg.Filename = filepath.Join(root, logcfg.Filename)
	}

	log, err := logger.New(logcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info("workspace opened",
		zap.String("root", root),
		zap.String("config", cfgpath),
		zap.Stringer("host", host),
	)

	return &workspace{
		root:    root,
		install: filepath.Join(root, cfg.Workspace.Install),
		cfg:     cfg,
		host:    host,
		logger:  log,
	}, nil
}

func (w *workspace) path(rel string) string {
	return filepath.Join(w.root, rel)
}

// release holds the host specific names of a configured release.
type release struct {
	keywords    []string
	artifact    string
	companions  []string
	destination string
}

func (w *workspace) resolve(rel config.Release) (release, error) {
	keywords, err := w.host.ResolveAll(rel.Keywords)
	if err != nil {
		return release{}, err
	}

	artifact, err := w.host.Resolve(rel.Artifact)
	if err != nil {
		return release{}, fmt.Errorf("failed to resolve artifact %q: %w", rel.Artifact, err)
	}

	resolved, err := w.host.ResolveAll(rel.Companions)
	if err != nil {
		return release{}, err
	}

	// companions resolving to nothing don't apply to this host
	companions := make([]string, 0, len(resolved))
	for _, companion := range resolved {
		if companion != "" {
			companions = append(companions, companion)
		}
	}

	return release{
		keywords:    keywords,
		artifact:    artifact,
		companions:  companions,
		destination: filepath.Join(w.install, rel.Directory),
	}, nil
}
