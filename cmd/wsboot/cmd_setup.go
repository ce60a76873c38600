package main

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/maaend/wsboot"
	"github.com/maaend/wsboot/binary"
	"github.com/maaend/wsboot/commons"
)

type setupCmd struct {
	platformOpts
	Update bool `long:"update" description:"reinstall dependencies and refresh submodules even when present"`
}

func (s *setupCmd) Execute([]string) error {
	ws, err := openWorkspace(opt.Root, opt.Config, s.platformOpts)
	if err != nil {
		return err
	}
	defer ws.logger.Sync()

	token := binary.TokenFromEnv()

	library, tool, err := ws.dependencies(token, s.Update)
	if err != nil {
		return err
	}

	h := wsboot.New(
		wsboot.WithPreExecFunc(commons.TokenReport(token)),
		wsboot.WithPostExecFunc(func(context.Context) error {
			_ = ws.logger.Sync()
			return nil
		}),
	)

	return h.Execute(
		appctx,
		wsboot.Step("sync submodules", commons.SyncSubmodules(
			ws.root,
			commons.WithSubmoduleMarker(ws.cfg.Workspace.Submodules),
			commons.WithSubmoduleUpdate(s.Update),
			commons.WithSubmoduleLogger(ws.logger),
		)),
		wsboot.Step("build go agent", func(ctx context.Context) error {
			if err := ws.layout(false).Prepare()(ctx); err != nil {
				return err
			}
			return ws.agent("")(ctx)
		}),
		wsboot.Step("install dependencies", commons.Provision(library, tool)),
		commons.Ready(tool.ArtifactPath(), ws.install),
	)
}

// dependencies defines the library and the tool sharing a single resolver, downloader
// and console prompt.
func (w *workspace) dependencies(token string, update bool) (library, tool *binary.Dependency, err error) {
	resolveropts := []binary.ResolverOpt{
		binary.WithToken(token),
		binary.WithTimeout(w.cfg.Network.Timeout),
		binary.WithResolverLogger(w.logger),
	}
	if w.cfg.Network.APIBaseURL != "" {
		resolveropts = append(resolveropts, binary.WithAPIBaseURL(w.cfg.Network.APIBaseURL))
	}

	resolver, err := binary.NewGitHubResolver(resolveropts...)
	if err != nil {
		return nil, nil, err
	}

	shared := []binary.Option{
		binary.WithUpdate(update),
		binary.WithResolver(resolver),
		binary.WithDownloader(binary.NewDownloader(
			binary.WithDownloadTimeout(w.cfg.Network.Timeout),
			binary.WithDownloadLogger(w.logger),
		)),
		binary.WithDecider(binary.NewConsolePrompt(os.Stdin, os.Stdout)),
		binary.WithLogger(w.logger),
	}

	lib, err := w.resolve(w.cfg.Library)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid library configuration: %w", err)
	}

	library, err = binary.New(
		path.Base(w.cfg.Library.Repo),
		w.cfg.Library.Repo,
		lib.keywords,
		binary.LibraryPlan(lib.destination, lib.artifact),
		append(shared, binary.WithPrerelease(w.cfg.Library.Prerelease))...,
	)
	if err != nil {
		return nil, nil, err
	}

	tl, err := w.resolve(w.cfg.Tool)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid tool configuration: %w", err)
	}

	tool, err = binary.New(
		path.Base(w.cfg.Tool.Repo),
		w.cfg.Tool.Repo,
		tl.keywords,
		binary.ToolPlan(tl.destination, tl.artifact, tl.companions...),
		append(shared, binary.WithPrerelease(w.cfg.Tool.Prerelease))...,
	)
	if err != nil {
		return nil, nil, err
	}

	return library, tool, nil
}
