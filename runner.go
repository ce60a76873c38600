package wsboot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// TaskRunner holds the metadata for a specific command.
type TaskRunner struct {
	Executable string
	Arguments  []string

	cmd      *exec.Cmd
	okmsg    string
	errmsg   string
	quiet    bool
	allowerr bool
}

// Cmd builds a command runner for a specific Executable.
// The executable is resolved to an absolute path before any option is applied, so
// relative paths are relative to the current directory and not to [WithDir].
func Cmd(ctx context.Context, executable string, opts ...RunnerOpt) (*TaskRunner, error) {
	resolved, err := resolveExecutable(executable)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, resolved)

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	r := TaskRunner{
		Executable: resolved,
		cmd:        cmd,
	}

	for _, opt := range opts {
		err := opt(&r)
		if err != nil {
			return nil, err
		}
	}

	cmd.Args = append([]string{resolved}, r.Arguments...)

	return &r, nil
}

// resolveExecutable turns bare names into the path found in PATH and relative paths
// into absolute ones.
func resolveExecutable(executable string) (string, error) {
	if filepath.IsAbs(executable) {
		return executable, nil
	}

	if !strings.ContainsRune(executable, '/') && !strings.ContainsRune(executable, filepath.Separator) {
		path, err := exec.LookPath(executable)
		if err != nil {
			return "", fmt.Errorf("%s not found in PATH: %w", executable, err)
		}
		if filepath.IsAbs(path) {
			return path, nil
		}
		executable = path
	}

	abs, err := filepath.Abs(executable)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", executable, err)
	}
	return abs, nil
}

// Exec a command returning its error and pretty printing the ok and error messages.
func (r *TaskRunner) Exec() error {
	var err error

	start := time.Now()
	defer func() {
		if r.quiet {
			return
		}
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			color.Red("   ✘ %s", elapsed)
			return
		}
		color.Green("   ✔ %s", elapsed)
	}()

	if !r.quiet {
		logcommand(fmt.Sprint(filepath.Base(r.Executable), " ", strings.Join(r.Arguments, " ")))
	}

	err = r.cmd.Run()

	if !r.allowerr && err != nil {
		if !r.quiet && r.errmsg != "" {
			color.Red(r.errmsg)
		}
		return fmt.Errorf("%s: %w", filepath.Base(r.Executable), err)
	}

	if !r.quiet && r.okmsg != "" {
		color.Green(r.okmsg)
	}

	return nil
}

// Run is a helper function to avoid repetition while gracefully handling errors.
func Run(ctx context.Context, program string, opts ...RunnerOpt) error {
	rnr, err := Cmd(ctx, program, opts...)
	if err != nil {
		return err
	}

	return rnr.Exec()
}

// Output runs a command silently and returns what it printed on stdout, trimmed.
func Output(ctx context.Context, program string, opts ...RunnerOpt) (string, error) {
	var out bytes.Buffer

	opts = append(opts, WithoutNoise(), WithStdOut(&out))
	if err := Run(ctx, program, opts...); err != nil {
		return "", err
	}

	return strings.TrimSpace(out.String()), nil
}

// RunnerOpt allows customizing the behavior of the command runner.
type RunnerOpt func(r *TaskRunner) error

// WithEnv sets up environment variables for the command, on top of the current ones.
func WithEnv(vars ...string) RunnerOpt {
	return func(r *TaskRunner) error {
		if r.cmd.Env == nil {
			r.cmd.Env = os.Environ()
		}
		for _, vrb := range vars {
			name, _, ok := strings.Cut(vrb, "=")
			if !ok || name == "" {
				return fmt.Errorf("invalid env format; %s doesn't match NAME=value expectation", vrb)
			}
			r.cmd.Env = append(r.cmd.Env, vrb)
		}
		return nil
	}
}

// WithArgs command arguments.
func WithArgs(args ...string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.Arguments = args
		return nil
	}
}

// WithOKMsg sets a message to be printed when the command finishes successfully.
func WithOKMsg(msg string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.okmsg = msg
		return nil
	}
}

// WithErrMsg sets a message to be printed when the command fails.
func WithErrMsg(msg string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.errmsg = msg
		return nil
	}
}

// WithDir sets the directory where the command should be run inside.
func WithDir(dir string) RunnerOpt {
	return func(r *TaskRunner) error {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", dir, err)
		}
		r.cmd.Dir = abs
		return nil
	}
}

// WithoutNoise silences all output for the command; useful when handling that on the caller side.
func WithoutNoise() RunnerOpt {
	return func(r *TaskRunner) error {
		r.quiet = true
		r.cmd.Stdout = nil
		r.cmd.Stderr = nil

		return nil
	}
}

// WithStdOut set up stdout writer.
func WithStdOut(w io.Writer) RunnerOpt {
	return func(r *TaskRunner) error {
		r.cmd.Stdout = w
		return nil
	}
}

// WithStdIn set up stdin reader.
func WithStdIn(read io.Reader) RunnerOpt {
	return func(r *TaskRunner) error {
		r.cmd.Stdin = read
		return nil
	}
}

// WithAllowErrors allow errors in the command.
func WithAllowErrors() RunnerOpt {
	return func(r *TaskRunner) error {
		r.allowerr = true
		return nil
	}
}
