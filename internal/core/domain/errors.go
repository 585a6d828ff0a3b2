package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig indicates a required credential or identifier is missing.
	// It is the only error class that is fatal to the whole process.
	ErrConfig = errors.New("configuration error")

	// ErrIO indicates a record or attachment file is missing or unreadable.
	ErrIO = errors.New("io error")

	// ErrParse indicates a record file has a malformed metadata header.
	ErrParse = errors.New("parse error")

	// Remote Errors.

	// ErrNetwork indicates a connection failure or timeout that outlived the retry budget.
	ErrNetwork = errors.New("network error")

	// ErrRemoteRejected indicates the remote returned a non-retryable response.
	ErrRemoteRejected = errors.New("remote rejected request")

	// ErrSyncFailed indicates at least one record in a batch ended FAILED.
	ErrSyncFailed = errors.New("sync finished with failures")
)

// ItemError reports a problem confined to a single item of a batch.
// The batch continues; the item is skipped and reported.
type ItemError struct {
	// Path is the file the problem relates to, relative to the store root when possible.
	Path string

	// Kind is one of ErrIO, ErrParse.
	Kind error

	// Err is the underlying cause.
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *ItemError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewIOError wraps err as an IO item error for path.
func NewIOError(path string, err error) *ItemError {
	return &ItemError{Path: path, Kind: ErrIO, Err: err}
}

// NewParseError wraps err as a parse item error for path.
func NewParseError(path string, err error) *ItemError {
	return &ItemError{Path: path, Kind: ErrParse, Err: err}
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}
