package binary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Dependency is an externally released binary installed into the workspace.
// It knows which repository publishes it, how to recognise the right asset for the
// host and how the downloaded archive maps onto the destination.
type Dependency struct {
	name       string
	repo       string
	keywords   []string
	plan       Plan
	prerelease bool
	update     bool
	scratch    string

	resolver   AssetResolver
	downloader *Downloader
	decider    Decider
	replacer   *Replacer
	logger     *zap.Logger
}

// New defines a dependency published on repo ("owner/name") whose release asset name
// contains every keyword.
func New(name, repo string, keywords []string, plan Plan, options ...Option) (*Dependency, error) {
	if repo == "" {
		return nil, fmt.Errorf("repository must be set")
	}
	if plan == nil {
		return nil, fmt.Errorf("installation plan must be set")
	}

	dep := Dependency{
		name:     name,
		repo:     repo,
		keywords: keywords,
		plan:     plan,
		logger:   zap.NewNop(),
	}

	for _, opt := range options {
		opt(&dep)
	}

	if dep.resolver == nil {
		resolver, err := NewGitHubResolver(WithResolverLogger(dep.logger))
		if err != nil {
			return nil, err
		}
		dep.resolver = resolver
	}

	if dep.downloader == nil {
		dep.downloader = NewDownloader(WithDownloadLogger(dep.logger))
	}

	if dep.decider == nil {
		dep.decider = NewConsolePrompt(os.Stdin, os.Stdout)
	}

	dep.replacer = NewReplacer(dep.decider, dep.logger)

	return &dep, nil
}

func (d *Dependency) Name() string {
	return d.name
}

// ArtifactPath is the file whose presence means the dependency is installed.
func (d *Dependency) ArtifactPath() string {
	return d.plan.Artifact()
}

// Ensure installs the dependency unless its artifact is already present.
// Updates are forced with [WithUpdate].
func (d *Dependency) Ensure(ctx context.Context) error {
	if !d.update && d.isInstalled() {
		logstep(fmt.Sprintf("%s already installed, skipping (use --update to refresh it)", d.name))
		d.logger.Info("dependency already installed", zap.String("name", d.name), zap.String("artifact", d.ArtifactPath()))
		return nil
	}
	return d.Install(ctx)
}

// Install resolves the latest matching release, downloads and extracts it, and then
// swaps the previous installation for the new one.
// The previous installation is only touched once the archive is known to be valid.
func (d *Dependency) Install(ctx context.Context) error {
	logstep(fmt.Sprintf("installing %s from %s", d.name, d.repo))

	asset, err := d.resolver.Resolve(ctx, d.repo, d.keywords, d.prerelease)
	if err != nil {
		return fmt.Errorf("no download available for %s: %w", d.name, err)
	}

	scratch, err := os.MkdirTemp(d.scratch, "wsboot-")
	if err != nil {
		return fmt.Errorf("%w: failed to create scratch directory: %w", ErrFilesystem, err)
	}
	defer os.RemoveAll(scratch)

	archive := filepath.Join(scratch, filepath.Base(asset.Name))
	if err := d.downloader.Download(ctx, asset.URL, archive); err != nil {
		return fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}

	extracted, err := Extract(archive, scratch)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", asset.Name, err)
	}

	entries, err := d.plan.Locate(extracted)
	if err != nil {
		logfailure(err)
		return fmt.Errorf("unexpected content in %s: %w", asset.Name, err)
	}

	if _, err := os.Lstat(d.plan.Obstruction()); err == nil {
		logwarn(fmt.Sprintf("replacing previous installation at %s", d.plan.Obstruction()))
		if err := d.replacer.Replace(d.plan.Obstruction()); err != nil {
			return err
		}
	}

	destination := d.plan.Destination()
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create destination folder %s: %w", ErrFilesystem, destination, err)
	}

	logdetail(fmt.Sprintf("copying %d entries to %s", len(entries), destination))
	for _, entry := range entries {
		target := filepath.Join(destination, entry.Name)
		if err := CopyEntry(entry.Source, target); err != nil {
			return fmt.Errorf("%w: failed to install %s: %w", ErrFilesystem, target, err)
		}
		d.logger.Debug("installed entry", zap.String("name", d.name), zap.String("path", target))
	}

	if !d.isInstalled() {
		err := fmt.Errorf("%w: %s missing after installation", ErrLayoutMismatch, d.ArtifactPath())
		logfailure(err)
		return err
	}

	d.logger.Info("dependency installed",
		zap.String("name", d.name),
		zap.String("asset", asset.Name),
		zap.String("artifact", d.ArtifactPath()),
	)
	logdetail(fmt.Sprintf("%s installed", d.name))

	return nil
}

// isInstalled returns true if the artifact is present.
func (d *Dependency) isInstalled() bool {
	_, err := os.Stat(d.ArtifactPath())
	return err == nil
}
