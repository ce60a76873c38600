//go:build !windows

package binary

func isLockViolation(error) bool { return false }
