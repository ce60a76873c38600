package binary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Decision is the answer of a [Decider] to a locked resource.
type Decision int

const (
	Retry Decision = iota
	Abort
)

// Decider is asked what to do when an installed artifact can't be removed because
// it's locked, usually by a process that is still running it.
type Decider interface {
	Decide(path string, cause error) Decision
}

// DeciderFunc adapts a function to the [Decider] interface.
type DeciderFunc func(path string, cause error) Decision

func (f DeciderFunc) Decide(path string, cause error) Decision {
	return f(path, cause)
}

// ConsolePrompt asks the operator on the console.
// An empty line retries, "q" aborts.
type ConsolePrompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsolePrompt(in io.Reader, out io.Writer) *ConsolePrompt {
	return &ConsolePrompt{in: bufio.NewReader(in), out: out}
}

func (p *ConsolePrompt) Decide(path string, cause error) Decision {
	fmt.Fprintf(p.out, "\n   ✘ [locked] %s\n", cause)
	fmt.Fprintf(p.out, "   ! unable to remove %s, make sure the program using it has fully exited\n", path)
	fmt.Fprint(p.out, "   ? press enter to retry after handling it, or type 'q' to quit: ")

	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		// stdin closed, nobody can fix the lock
		return Abort
	}

	if strings.EqualFold(strings.TrimSpace(answer), "q") {
		return Abort
	}
	return Retry
}

// Replacer removes an existing installation before it gets overwritten.
// Removal is attempted until it succeeds, the decider aborts, or a failure other
// than a lock happens; there is no retry limit.
type Replacer struct {
	decider Decider
	logger  *zap.Logger
	remove  func(path string) error
}

func NewReplacer(decider Decider, logger *zap.Logger) *Replacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replacer{
		decider: decider,
		logger:  logger,
		remove:  os.RemoveAll,
	}
}

// Replace deletes path, recursively when it's a directory.
// It returns nil once the path is gone, an error wrapping [ErrUserAborted] when the
// decider gives up, and an error wrapping [ErrFilesystem] on any other failure.
func (r *Replacer) Replace(path string) error {
	for attempt := 1; ; attempt++ {
		logdetail(fmt.Sprintf("removing %s", path))

		err := r.remove(path)
		if err == nil {
			r.logger.Debug("previous installation removed", zap.String("path", path), zap.Int("attempts", attempt))
			return nil
		}

		if !isLocked(err) {
			r.logger.Error("unexpected failure removing previous installation", zap.String("path", path), zap.Error(err))
			return fmt.Errorf("%w: failed to remove %s: %w", ErrFilesystem, path, err)
		}

		r.logger.Warn("previous installation is locked", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))

		if r.decider.Decide(path, err) == Abort {
			return fmt.Errorf("%w: %w: %s", ErrUserAborted, ErrLocked, path)
		}
	}
}

func isLocked(err error) bool {
	return errors.Is(err, fs.ErrPermission) || isLockViolation(err)
}
