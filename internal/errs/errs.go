// Package errs provides error construction and translation for the azure filesystem.
//
// Every error produced by the filesystem is an errors.PlatformError whose code
// identifies its kind. Where a matching io/fs sentinel exists it is kept as the
// cause, so errors.Is(err, fs.ErrNotExist) and friends keep working.
package errs

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/azure/store"
	"github.com/jmgilman/go/fs/core"
)

const (
	// CodeNotAFile indicates an operation that requires a file was given a
	// container or directory.
	CodeNotAFile errors.ErrorCode = "NOT_A_FILE"

	// CodeIO indicates a store request failed or an access fell outside the
	// bounds of an object.
	CodeIO errors.ErrorCode = "IO_ERROR"
)

// ErrNotAFile is the cause attached to every CodeNotAFile error.
var ErrNotAFile = stderrors.New("not a file")

// notImplementedMessage is shared by every unsupported filesystem operation.
const notImplementedMessage = "The Azure FileSystem is not fully implemented"

// Invalid returns an invalid-argument error.
func Invalid(message string) error {
	return errors.Wrap(fs.ErrInvalid, errors.CodeInvalidInput, message)
}

// Invalidf returns an invalid-argument error with a formatted message.
func Invalidf(format string, args ...interface{}) error {
	return Invalid(fmt.Sprintf(format, args...))
}

// Closed returns the error reported when an operation is attempted on a
// closed handle. action is the verb used in the message ("read", "seek", ...).
func Closed(action string) error {
	return errors.Wrapf(fs.ErrClosed, errors.CodeInvalidInput, "Cannot %s on closed file.", action)
}

// PathNotFound returns a not-found error naming the full path.
func PathNotFound(path string) error {
	return errors.WrapWithContext(
		fs.ErrNotExist,
		errors.CodeNotFound,
		fmt.Sprintf("Path does not exist '%s'", path),
		map[string]interface{}{"path": path},
	)
}

// NotAFile returns an error for paths that name a container or directory.
func NotAFile(path string) error {
	return errors.WrapWithContext(
		ErrNotAFile,
		CodeNotAFile,
		fmt.Sprintf("Not a regular file: '%s'", path),
		map[string]interface{}{"path": path},
	)
}

// IOErrorf returns an I/O error with no underlying store failure.
func IOErrorf(format string, args ...interface{}) error {
	return errors.Newf(CodeIO, format, args...)
}

// NotImplemented returns the error reported by every operation the filesystem
// does not support.
func NotImplemented(op string) error {
	return errors.WrapWithContext(
		core.ErrUnsupported,
		errors.CodeNotImplemented,
		notImplementedMessage,
		map[string]interface{}{"op": op},
	)
}

// FromStore translates a store failure into a filesystem error.
//
// A not-found status becomes a path-not-found error for path. Anything else
// becomes an I/O error whose message is prefix followed by the store's own
// text; the original error remains reachable through Unwrap.
func FromStore(prefix, path string, err error) error {
	if err == nil {
		return nil
	}

	if StatusCode(err) == http.StatusNotFound {
		return PathNotFound(path)
	}

	return errors.WrapWithContext(err, CodeIO, prefix, map[string]interface{}{"path": path})
}

// StatusCode returns the HTTP status carried by a store error, or 0.
func StatusCode(err error) int {
	var respErr *store.ResponseError
	if stderrors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// ValidateFilePath performs the local checks that precede any network call
// when a path is about to be opened as a file.
func ValidateFilePath(container, relative, full string) error {
	if container == "" {
		return PathNotFound(full)
	}
	if relative == "" {
		return NotAFile(full)
	}
	return nil
}

// PathError wraps an error in a fs.PathError for the given operation and path.
// If the error is nil, returns nil.
func PathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}
