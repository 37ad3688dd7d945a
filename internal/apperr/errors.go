// Package apperr defines the error taxonomy shared by every gnotes surface.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDirWithAll    = errors.New("--dir can't be used with --all")
	ErrNoRepository  = errors.New("no repository configured")
	ErrInvalidConfig = errors.New("invalid config")
	ErrUsage         = errors.New("usage")
	ErrPathEscape    = errors.New("path escapes notes root")
)

// MissingRepositoryError is returned by commands that need a remote
// repository when none is configured.
type MissingRepositoryError struct {
	Action string
}

func (e *MissingRepositoryError) Error() string {
	return fmt.Sprintf("Can't %s without a repository. Please specify a repository in the config file.", e.Action)
}

func (e *MissingRepositoryError) Unwrap() error {
	return ErrNoRepository
}

// IsUserFacing reports whether err is caused by how gnotes was invoked
// rather than by an I/O or parse failure. Such errors are printed verbatim.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDirWithAll) ||
		errors.Is(err, ErrNoRepository) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrPathEscape)
}
