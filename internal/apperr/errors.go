/**
 * @description
 * Error taxonomy shared by the storage resolver, query layer, and HTTP
 * facade. Callers branch with errors.Is / errors.As; raw engine errors
 * never cross a package boundary unwrapped.
 *
 * @notes
 * - ErrStorageUnavailable is advisory: the storage layer logs it and
 *   degrades to in-memory instead of failing the request.
 */

package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrDataSourceUnavailable means the remote fetch produced no usable CSV.
	ErrDataSourceUnavailable = errors.New("data source unavailable")

	// ErrStorageUnavailable means persistent storage was requested but the
	// filesystem is not writable.
	ErrStorageUnavailable = errors.New("persistent storage unavailable")

	// ErrInvalidArgument means a caller-supplied parameter is out of bounds.
	ErrInvalidArgument = errors.New("invalid argument")
)

// QueryError wraps any engine-level failure raised during a query so
// callers see a uniform type regardless of the underlying driver.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Query wraps err as a QueryError for the named operation.
func Query(op string, err error) error {
	return &QueryError{Op: op, Err: err}
}

// Invalid builds an ErrInvalidArgument with a caller-facing detail message.
func Invalid(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, v...))
}
