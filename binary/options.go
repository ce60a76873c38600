package binary

import (
	"go.uber.org/zap"
)

type Option func(d *Dependency)

// WithUpdate forces a new installation even when the artifact is already present.
func WithUpdate(update bool) Option {
	return func(d *Dependency) {
		d.update = update
	}
}

// WithPrerelease allows prerelease versions to be picked.
// Drafts are never picked.
func WithPrerelease(allow bool) Option {
	return func(d *Dependency) {
		d.prerelease = allow
	}
}

// WithResolver replaces the github resolver, e.g. to target a mirror.
func WithResolver(resolver AssetResolver) Option {
	return func(d *Dependency) {
		d.resolver = resolver
	}
}

// WithDownloader replaces the default downloader.
func WithDownloader(downloader *Downloader) Option {
	return func(d *Dependency) {
		d.downloader = downloader
	}
}

// WithDecider sets who decides between retrying and aborting when the previous
// installation is locked. Defaults to asking on the console.
func WithDecider(decider Decider) Option {
	return func(d *Dependency) {
		d.decider = decider
	}
}

// WithScratchDir sets the parent of the temporary directories used while installing.
// Defaults to the system temporary directory.
func WithScratchDir(dir string) Option {
	return func(d *Dependency) {
		d.scratch = dir
	}
}

// WithLogger sets the structured logger shared by every step of the installation.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dependency) {
		d.logger = logger
	}
}
