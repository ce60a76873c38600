package commons

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"

	"github.com/maaend/wsboot"
)

// GoBuild builds a go binary, from the package specified as argument, outputting it on the relative path
// supplied as argument.
// The go build command can be customized with environment variables, ldflags and the
// working directory via GoBuildOpt arguments.
func GoBuild(pkg, out string, opts ...GoBuildOpt) wsboot.Task {
	var conf buildconf

	for _, opt := range opts {
		opt(&conf)
	}

	return func(ctx context.Context) error {
		args := []string{"build"}

		if len(conf.ldflags) > 0 {
			args = append(args, "-ldflags", strings.Join(conf.ldflags, " "))
		}

		args = append(args, "-o", out, pkg)

		runopts := []wsboot.RunnerOpt{wsboot.WithArgs(args...)}
		if len(conf.env) > 0 {
			runopts = append(runopts, wsboot.WithEnv(conf.env...))
		}
		if conf.dir != "" {
			runopts = append(runopts, wsboot.WithDir(conf.dir))
		}

		return wsboot.Run(ctx, "go", runopts...)
	}
}

// GoModTidy runs go mod tidy inside dir.
func GoModTidy(dir string, env ...string) wsboot.Task {
	return func(ctx context.Context) error {
		opts := []wsboot.RunnerOpt{
			wsboot.WithArgs("mod", "tidy"),
			wsboot.WithDir(dir),
		}
		if len(env) > 0 {
			opts = append(opts, wsboot.WithEnv(env...))
		}
		return wsboot.Run(ctx, "go", opts...)
	}
}

type buildconf struct {
	env     []string
	ldflags []string
	dir     string
}

type GoBuildOpt func(c *buildconf)

// WithGoBuildEnv sets environment variables, in NAME=value format, for the go build command.
func WithGoBuildEnv(vars ...string) GoBuildOpt {
	return func(c *buildconf) {
		c.env = append(c.env, vars...)
	}
}

// WithGoBuildLDFlags allows specifying ldflags for the go build command.
func WithGoBuildLDFlags(flags ...string) GoBuildOpt {
	return func(c *buildconf) {
		c.ldflags = append(c.ldflags, flags...)
	}
}

// WithGoBuildDir runs the go build command inside dir.
func WithGoBuildDir(dir string) GoBuildOpt {
	return func(c *buildconf) {
		c.dir = dir
	}
}

// AgentBuild describes the companion service compiled into the install directory.
type AgentBuild struct {
	Source  string // directory of the go module
	Output  string // binary path, without the platform extension
	GOOS    string
	GOARCH  string
	Version string // injected as main.Version when set
}

// BuildAgent checks the go toolchain, tidies the companion module and cross compiles it
// with cgo disabled.
func BuildAgent(build AgentBuild) wsboot.Task {
	return func(ctx context.Context) error {
		toolchain, err := GoVersion(ctx)
		if err != nil {
			wsboot.LogError("go toolchain not found")
			wsboot.LogDetail("install go and make sure the go command is available in PATH")
			wsboot.LogDetail("    https://go.dev/dl/")
			wsboot.LogDetail("    windows: winget install GoLang.Go")
			wsboot.LogDetail("    macos:   brew install go")
			return err
		}
		wsboot.LogStep(fmt.Sprintf("using go %s", strings.TrimPrefix(toolchain, "v")))

		required, module, err := ModuleRequirements(filepath.Join(build.Source, "go.mod"))
		if err != nil {
			return err
		}
		wsboot.LogDetail(fmt.Sprintf("module %s requires go %s", module, strings.TrimPrefix(required, "v")))

		if required != "" && semver.Compare(toolchain, required) < 0 {
			return fmt.Errorf("go %s is older than the go %s required by %s", toolchain, required, module)
		}

		if build.Version != "" && !semver.IsValid(build.Version) {
			wsboot.LogWarn(fmt.Sprintf("%s is not a semantic version, embedding it anyway", build.Version))
		}

		out := build.Output
		if build.GOOS == "windows" {
			out += ".exe"
		}

		abs, err := filepath.Abs(out)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", out, err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}

		wsboot.LogDetail(fmt.Sprintf("target %s/%s", build.GOOS, build.GOARCH))
		wsboot.LogDetail(fmt.Sprintf("output %s", abs))

		env := []string{
			"GOOS=" + build.GOOS,
			"GOARCH=" + build.GOARCH,
			"CGO_ENABLED=0",
		}

		if err := GoModTidy(build.Source, env...)(ctx); err != nil {
			return err
		}

		return GoBuild(
			".", abs,
			WithGoBuildDir(build.Source),
			WithGoBuildEnv(env...),
			WithGoBuildLDFlags(agentLDFlags(build.Version)...),
		)(ctx)
	}
}

func agentLDFlags(version string) []string {
	flags := []string{"-s", "-w"}
	if version != "" {
		flags = append(flags, "-X", "main.Version="+version)
	}
	return flags
}

// GoVersion returns the version of the go toolchain in PATH in semver notation, e.g. v1.24.1.
func GoVersion(ctx context.Context) (string, error) {
	out, err := wsboot.Output(ctx, "go", wsboot.WithArgs("env", "GOVERSION"))
	if err != nil {
		return "", fmt.Errorf("failed to query the go toolchain: %w", err)
	}
	return toolchainSemver(out)
}

// toolchainSemver converts a toolchain name like go1.24.1 or go1.25rc1 to semver.
func toolchainSemver(name string) (string, error) {
	version := strings.TrimPrefix(strings.TrimSpace(name), "go")

	// drop prerelease and build suffixes, e.g. rc1 or "-X:nocoverageredesign"
	if i := strings.IndexFunc(version, func(r rune) bool { return (r < '0' || r > '9') && r != '.' }); i >= 0 {
		version = version[:i]
	}

	v := "v" + version
	if !semver.IsValid(v) {
		return "", fmt.Errorf("unrecognized go version %q", name)
	}
	return semver.Canonical(v), nil
}

// ModuleRequirements parses the go.mod file at path returning the minimum go version,
// in semver notation, and the module path.
func ModuleRequirements(path string) (goversion, module string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	mod, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if mod.Module != nil {
		module = mod.Module.Mod.Path
	}

	if mod.Go != nil {
		goversion, err = toolchainSemver(mod.Go.Version)
		if err != nil {
			return "", "", err
		}
	}

	return goversion, module, nil
}
