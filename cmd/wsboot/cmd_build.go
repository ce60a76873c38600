package main

import (
	"context"
	"path/filepath"

	"github.com/maaend/wsboot"
	"github.com/maaend/wsboot/commons"
)

type buildCmd struct {
	platformOpts
	CI      bool   `long:"ci" description:"copy files instead of linking them, for packaging"`
	Version string `long:"version" description:"version embedded into the go agent"`
}

func (b *buildCmd) Execute([]string) error {
	ws, err := openWorkspace(opt.Root, opt.Config, b.platformOpts)
	if err != nil {
		return err
	}
	defer ws.logger.Sync()

	local := func() bool { return !b.CI }

	return wsboot.New().Execute(appctx,
		wsboot.Step("prepare install directory", ws.layout(b.CI).Prepare()),
		wsboot.Step("build go agent", ws.agent(b.Version)),
		wsboot.When(local, commons.OnlyLocally(commons.NextSteps(ws.install, ws.cfg.Library.Repo, ws.cfg.Tool.Repo))),
	)
}

func (w *workspace) layout(ci bool) commons.Layout {
	return commons.Layout{
		Root:    w.root,
		Install: w.install,
		Assets:  w.path(w.cfg.Workspace.Assets),
		CI:      ci,
		Logger:  w.logger,
	}
}

func (w *workspace) agent(version string) wsboot.Task {
	return func(ctx context.Context) error {
		return commons.BuildAgent(commons.AgentBuild{
			Source:  w.path(w.cfg.Agent.Source),
			Output:  filepath.Join(w.install, w.cfg.Agent.Output),
			GOOS:    w.host.GOOS(),
			GOARCH:  w.host.GOARCH(),
			Version: version,
		})(ctx)
	}
}
