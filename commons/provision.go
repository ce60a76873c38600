package commons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/maaend/wsboot"
	"github.com/maaend/wsboot/binary"
)

// Installer is satisfied by [binary.Dependency].
type Installer interface {
	Name() string
	Ensure(ctx context.Context) error
}

var _ Installer = (*binary.Dependency)(nil)

// Provision a list of dependencies.
// Dependencies are ensured in order and the first failure stops the provisioning, as
// later dependencies usually need the previous ones to be usable.
func Provision(deps ...Installer) wsboot.Task {
	return func(ctx context.Context) (err error) {
		start := time.Now()
		defer func() {
			elapsed := time.Since(start).Round(time.Millisecond)
			if err != nil {
				color.Red("   ✘ %s", elapsed)
				return
			}
			color.Green("   ✔ %s", elapsed)
		}()

		names := make([]string, 0, len(deps))
		for _, dep := range deps {
			names = append(names, dep.Name())
		}
		wsboot.LogStep(fmt.Sprintf("provisioning %d dependencies: %s", len(deps), strings.Join(names, ", ")))

		for _, dep := range deps {
			if err := dep.Ensure(ctx); err != nil {
				wsboot.LogError(fmt.Sprintf("[%s] failed to provision %s", binary.Category(err), dep.Name()))
				return fmt.Errorf("failed to provision %s: %w", dep.Name(), err)
			}
		}

		return nil
	}
}
