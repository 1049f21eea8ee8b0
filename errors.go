package azure

import "github.com/jmgilman/go/fs/azure/internal/errs"

// Error codes specific to the azure filesystem. The remaining kinds use the
// shared codes from github.com/jmgilman/go/errors: CodeInvalidInput,
// CodeNotFound and CodeNotImplemented.
const (
	CodeNotAFile = errs.CodeNotAFile
	CodeIO       = errs.CodeIO
)

// ErrNotAFile is the cause of every CodeNotAFile error.
var ErrNotAFile = errs.ErrNotAFile
