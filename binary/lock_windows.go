//go:build windows

package binary

import (
	"errors"

	"golang.org/x/sys/windows"
)

// isLockViolation detects files held open by another process, which windows reports
// as sharing or lock violations rather than permission errors.
func isLockViolation(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}
