// Package dberrors defines the sentinel errors returned by repository
// implementations and the helpers used to produce and classify them.
package dberrors

import (
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors for repository-level conditions.
var (
	// ErrNotFound indicates the requested aggregate does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidVersion indicates an optimistic-concurrency mismatch
	// between the caller's expected revision and the stored one.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrIO indicates a transport/storage failure unrelated to the
	// caller's input (disk, connection, driver).
	ErrIO = errors.New("storage io error")

	// ErrOther is the catch-all for repository errors that do not fit
	// one of the above kinds.
	ErrOther = errors.New("repository error")
)

// Wrap classifies err against the sentinels above and wraps it with op
// context. sql.ErrNoRows becomes ErrNotFound. Passing nil returns nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInvalidVersion) || errors.Is(err, ErrIO) || errors.Is(err, ErrOther) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrOther, err)
}

// Wrapf is Wrap with a formatted op string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(fmt.Sprintf(format, args...), err)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsInvalidVersion reports whether err is or wraps ErrInvalidVersion.
func IsInvalidVersion(err error) bool { return errors.Is(err, ErrInvalidVersion) }
