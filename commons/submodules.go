package commons

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/maaend/wsboot"
)

type submoduleconf struct {
	update bool
	marker string
	logger *zap.Logger
}

type SubmoduleOpt func(c *submoduleconf)

// WithSubmoduleUpdate syncs submodules even when they look checked out already.
func WithSubmoduleUpdate(update bool) SubmoduleOpt {
	return func(c *submoduleconf) {
		c.update = update
	}
}

// WithSubmoduleMarker sets the file, relative to the repository root, whose presence
// means the submodules are checked out.
func WithSubmoduleMarker(marker string) SubmoduleOpt {
	return func(c *submoduleconf) {
		c.marker = marker
	}
}

func WithSubmoduleLogger(logger *zap.Logger) SubmoduleOpt {
	return func(c *submoduleconf) {
		c.logger = logger
	}
}

// SyncSubmodules initializes and updates, recursively, the submodules of the repository
// at root.
// The update goes through go-git and falls back to the git cli, which handles
// credentials helpers and lfs filters that go-git doesn't support.
func SyncSubmodules(root string, opts ...SubmoduleOpt) wsboot.Task {
	conf := submoduleconf{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&conf)
	}

	return func(ctx context.Context) (err error) {
		wsboot.LogStep("checking submodules")

		if !conf.update && conf.marker != "" {
			if _, err := os.Stat(filepath.Join(root, conf.marker)); err == nil {
				wsboot.LogDetail("submodules already checked out, skipping (use --update to refresh them)")
				return nil
			}
		}

		start := time.Now()
		defer func() {
			elapsed := time.Since(start).Round(time.Millisecond)
			if err != nil {
				conf.logger.Error("submodule update failed", zap.String("root", root), zap.Error(err))
				color.Red("   ✘ %s", elapsed)
				return
			}
			conf.logger.Info("submodules updated", zap.String("root", root))
			color.Green("   ✔ %s", elapsed)
		}()

		wsboot.LogDetail("updating submodules")

		gitErr := updateWithGoGit(ctx, root)
		if gitErr == nil {
			return nil
		}

		conf.logger.Warn("go-git submodule update failed, falling back to the git cli", zap.Error(gitErr))
		wsboot.LogWarn(fmt.Sprintf("%s, retrying with git", gitErr))

		cliErr := wsboot.Run(
			ctx,
			"git",
			wsboot.WithArgs("submodule", "update", "--init", "--recursive"),
			wsboot.WithDir(root),
			// credentials can't be typed in, fail instead of waiting for them
			wsboot.WithEnv("GIT_TERMINAL_PROMPT=0"),
			wsboot.WithStdIn(nil),
			wsboot.WithOKMsg("   submodules updated with the git cli"),
			wsboot.WithErrMsg("   git could not update the submodules, check the network and the urls in .gitmodules"),
		)
		if cliErr != nil {
			return fmt.Errorf("failed to update submodules: %w", errors.Join(gitErr, cliErr))
		}

		return nil
	}
}

func updateWithGoGit(ctx context.Context, root string) error {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	submodules, err := worktree.Submodules()
	if err != nil {
		return fmt.Errorf("failed to list submodules: %w", err)
	}

	for _, sub := range submodules {
		wsboot.LogDetail(fmt.Sprintf("%s -> %s", sub.Config().Name, sub.Config().Path))
	}

	err = submodules.UpdateContext(ctx, &git.SubmoduleUpdateOptions{
		Init:              true,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		return fmt.Errorf("failed to update submodules: %w", err)
	}

	return nil
}
