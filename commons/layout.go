package commons

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/maaend/wsboot"
	"github.com/maaend/wsboot/binary"
)

const commonAssets = "MaaCommonAssets"

// Layout prepares the install directory from the workspace sources.
// Local development links the sources so edits show up without rebuilding;
// ci copies them so the install directory can be packaged.
type Layout struct {
	Root    string
	Install string
	Assets  string
	CI      bool
	Logger  *zap.Logger
}

func (l Layout) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l Layout) mode() string {
	if l.CI {
		return "copy"
	}
	return "link"
}

// Prepare runs every layout step in order.
func (l Layout) Prepare() wsboot.Task {
	return func(ctx context.Context) error {
		wsboot.LogStep(fmt.Sprintf("preparing %s (%s mode)", l.Install, l.mode()))

		if err := os.MkdirAll(l.Install, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", l.Install, err)
		}

		steps := []wsboot.Task{
			l.OCRModel(),
			l.AssetEntries(),
			l.ProjectFiles("README.md", "LICENSE"),
			l.LibraryDir("maafw"),
		}

		for _, step := range steps {
			if err := step(ctx); err != nil {
				return err
			}
		}

		return nil
	}
}

// OCRModel copies the ocr model shipped by the common assets into the resource folder.
// Files already present are left alone; a missing model is reported but isn't fatal.
func (l Layout) OCRModel() wsboot.Task {
	return func(_ context.Context) error {
		source := filepath.Join(l.Assets, commonAssets, "OCR", "ppocr_v5", "zh_cn")
		target := filepath.Join(l.Assets, "resource", "model", "ocr")

		wsboot.LogStep("configuring ocr model")

		entries, err := os.ReadDir(source)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				wsboot.LogError(fmt.Sprintf("ocr model not found in %s", source))
				wsboot.LogDetail("make sure submodules are initialized: git submodule update --init")
				return nil
			}
			return fmt.Errorf("failed to read %s: %w", source, err)
		}

		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", target, err)
		}

		copied, skipped := 0, 0
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}

			dst := filepath.Join(target, entry.Name())
			if _, err := os.Lstat(dst); err == nil {
				skipped++
				continue
			}

			if err := binary.CopyFile(filepath.Join(source, entry.Name()), dst); err != nil {
				return fmt.Errorf("failed to copy ocr model file %s: %w", entry.Name(), err)
			}
			copied++
		}

		l.logger().Info("ocr model configured", zap.Int("copied", copied), zap.Int("skipped", skipped))
		wsboot.LogDetail(fmt.Sprintf("%s: copied %d files, skipped %d existing", target, copied, skipped))
		return nil
	}
}

// AssetEntries links or copies every entry of the assets folder, except the common
// assets, into the install directory.
func (l Layout) AssetEntries() wsboot.Task {
	return func(ctx context.Context) error {
		wsboot.LogStep(fmt.Sprintf("processing %s", l.Assets))

		entries, err := os.ReadDir(l.Assets)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", l.Assets, err)
		}

		for _, entry := range entries {
			if entry.Name() == commonAssets {
				continue
			}

			src := filepath.Join(l.Assets, entry.Name())
			dst := filepath.Join(l.Install, entry.Name())

			info, err := os.Stat(src)
			if err != nil {
				return fmt.Errorf("failed to inspect %s: %w", src, err)
			}

			if info.IsDir() {
				err = l.placeDir(ctx, src, dst)
			} else {
				err = l.placeFile(ctx, src, dst)
			}
			if err != nil {
				return err
			}

			wsboot.LogDetail(dst)
		}

		return nil
	}
}

// ProjectFiles links or copies the named files of the workspace root, when present.
func (l Layout) ProjectFiles(names ...string) wsboot.Task {
	return func(ctx context.Context) error {
		wsboot.LogStep("processing project files")

		for _, name := range names {
			src := filepath.Join(l.Root, name)
			if _, err := os.Stat(src); err != nil {
				continue
			}

			dst := filepath.Join(l.Install, name)
			if err := l.placeFile(ctx, src, dst); err != nil {
				return err
			}
			wsboot.LogDetail(dst)
		}

		return nil
	}
}

// LibraryDir creates the empty folder receiving the library.
func (l Layout) LibraryDir(name string) wsboot.Task {
	return func(_ context.Context) error {
		dir := filepath.Join(l.Install, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		wsboot.LogStep(fmt.Sprintf("created %s", dir))
		return nil
	}
}

func (l Layout) placeDir(ctx context.Context, src, dst string) error {
	if l.CI {
		if err := binary.CopyEntry(src, dst); err != nil {
			return fmt.Errorf("failed to copy %s: %w", src, err)
		}
		return nil
	}
	return LinkDir(ctx, src, dst)
}

func (l Layout) placeFile(ctx context.Context, src, dst string) error {
	if l.CI {
		if err := vacate(dst); err != nil {
			return err
		}
		if err := binary.CopyFile(src, dst); err != nil {
			return fmt.Errorf("failed to copy %s: %w", src, err)
		}
		return nil
	}
	return LinkFile(ctx, src, dst)
}

// LinkDir makes dst point to the src directory: a junction on windows, which doesn't
// need elevated privileges, and a symlink elsewhere.
// Whatever is at dst gets replaced.
func LinkDir(ctx context.Context, src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	if err := vacate(dst); err != nil {
		return err
	}

	if runtime.GOOS == "windows" {
		return mklink(ctx, "/J", dst, abs)
	}

	if err := os.Symlink(abs, dst); err != nil {
		return fmt.Errorf("failed to link %s: %w", dst, err)
	}
	return nil
}

// LinkFile makes dst point to the src file, preferring a hardlink and falling back to a
// symlink, e.g. when both sit on different volumes.
// Whatever is at dst gets replaced.
func LinkFile(ctx context.Context, src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	if err := vacate(dst); err != nil {
		return err
	}

	if runtime.GOOS == "windows" {
		if err := mklink(ctx, "/H", dst, abs); err == nil {
			return nil
		}
		return mklink(ctx, "", dst, abs)
	}

	if err := os.Link(abs, dst); err == nil {
		return nil
	}

	if err := os.Symlink(abs, dst); err != nil {
		return fmt.Errorf("failed to link %s: %w", dst, err)
	}
	return nil
}

func mklink(ctx context.Context, flag, dst, src string) error {
	args := []string{"/c", "mklink"}
	if flag != "" {
		args = append(args, flag)
	}
	args = append(args, dst, src)

	if err := wsboot.Run(ctx, "cmd", wsboot.WithArgs(args...), wsboot.WithoutNoise()); err != nil {
		return fmt.Errorf("failed to link %s: %w", dst, err)
	}
	return nil
}

// vacate removes dst, without following links, and makes sure its parent exists.
func vacate(dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dst, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}
	return nil
}
