package opengine

import "errors"

// Exported variables.
var (
	ErrUnknownKind      = errors.New("unknown operation kind")
	ErrNoSources        = errors.New("no sources given")
	ErrNoDestination    = errors.New("destination required for copy and move")
	ErrInvalidPattern   = errors.New("invalid exclude pattern")
	ErrManagerClosed    = errors.New("manager closed")
	ErrUnknownID        = errors.New("unknown operation id")
	ErrNoArchiveRemover = errors.New("no archive remover configured")
)

// FileError is a per-file failure that did not stop the operation.
type FileError struct {
	OperationID string
	Path        string
	Err         error
}

// Error implements the error interface.
func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e FileError) Unwrap() error {
	return e.Err
}
