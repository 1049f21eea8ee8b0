package azure

import (
	"io"
	"io/fs"
	"log/slog"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/azure/internal/errs"
	"github.com/jmgilman/go/fs/azure/internal/pathutil"
	"github.com/jmgilman/go/fs/azure/store"
	"github.com/jmgilman/go/fs/azure/store/azurestore"
)

// TypeName identifies the Azure filesystem.
const TypeName = "abfs"

// Filesystem is implemented by every filesystem that can be compared with
// FileSystem.Equals.
type Filesystem interface {
	TypeName() string
}

// Mutator lists the operations the filesystem exposes but does not implement.
// Each of them returns a CodeNotImplemented error.
type Mutator interface {
	GetFileInfo(path string) (*FileInfo, error)
	GetFileInfoSelector(sel FileSelector) ([]*FileInfo, error)
	CreateDir(path string, recursive bool) error
	DeleteDir(path string) error
	DeleteDirContents(path string, missingDirOK bool) error
	DeleteRootDirContents() error
	DeleteFile(path string) error
	Move(src, dest string) error
	CopyFile(src, dest string) error
	OpenOutputStream(path string, metadata map[string]string) (io.WriteCloser, error)
	OpenAppendStream(path string, metadata map[string]string) (io.WriteCloser, error)
}

// FileSelector selects the entries returned by GetFileInfoSelector.
type FileSelector struct {
	BaseDir       string
	AllowNotFound bool
	Recursive     bool
	MaxRecursion  int
}

// FileSystem is a read-only filesystem over one Azure storage account.
//
// Paths have the form "container/dir/file". The configuration is fixed at
// construction, so a FileSystem may be shared between goroutines; the files
// it opens may not.
type FileSystem struct {
	options Options
	io      IOContext
	service store.Service
	logger  *slog.Logger
}

// Option customizes a FileSystem.
type Option func(*FileSystem)

// WithService replaces the store built from the options' credentials.
func WithService(svc store.Service) Option {
	return func(f *FileSystem) {
		f.service = svc
	}
}

// WithIOContext sets the execution settings shared by every opened file.
func WithIOContext(ioCtx IOContext) Option {
	return func(f *FileSystem) {
		f.io = ioCtx
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FileSystem) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a filesystem for the account described by opts.
func New(opts Options, options ...Option) (*FileSystem, error) {
	f := &FileSystem{
		options: opts,
		io:      DefaultIOContext(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		opt(f)
	}

	if f.service == nil {
		if err := f.options.validate(); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid options")
		}
		svc, err := newService(f.options)
		if err != nil {
			return nil, err
		}
		f.service = svc
	}

	f.logger = f.logger.With("fs", TypeName, "account", f.options.AccountBlobURL)
	return f, nil
}

func newService(opts Options) (store.Service, error) {
	var (
		svc *azurestore.Service
		err error
	)
	switch {
	case opts.sharedKey != nil:
		svc, err = azurestore.NewWithSharedKey(opts.AccountBlobURL, opts.sharedKey)
	case opts.token != nil:
		svc, err = azurestore.NewWithToken(opts.AccountBlobURL, opts.token)
	default:
		svc, err = azurestore.NewAnonymous(opts.AccountBlobURL)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to create blob service client")
	}
	return svc, nil
}

// TypeName returns "abfs".
func (f *FileSystem) TypeName() string { return TypeName }

// Options returns the filesystem configuration.
func (f *FileSystem) Options() Options { return f.options }

// IOContext returns the execution settings shared with opened files.
func (f *FileSystem) IOContext() IOContext { return f.io }

// Equals reports whether other is this filesystem or an Azure filesystem
// with equivalent options.
func (f *FileSystem) Equals(other Filesystem) bool {
	if other == nil {
		return false
	}
	if o, ok := other.(*FileSystem); ok && o == f {
		return true
	}
	if other.TypeName() != f.TypeName() {
		return false
	}
	o, ok := other.(*FileSystem)
	if !ok || o == nil {
		return false
	}
	return f.options.Equals(o.options)
}

// OpenInputFile opens the blob at path for random access reads. The blob's
// properties are fetched before the file is returned.
func (f *FileSystem) OpenInputFile(path string) (*File, error) {
	return f.openFile(path, NoSize)
}

// OpenInputFileFromInfo opens the blob described by info. A known size in
// info is trusted and no property fetch is made.
func (f *FileSystem) OpenInputFileFromInfo(info *FileInfo) (*File, error) {
	if info == nil {
		return nil, errs.Invalid("file info must not be nil")
	}
	if pathutil.HasTrailingSlash(info.Path()) {
		return nil, errs.NotAFile(info.Path())
	}
	switch info.Type() {
	case FileTypeNotFound:
		return nil, errs.PathNotFound(info.Path())
	case FileTypeFile, FileTypeUnknown:
	default:
		return nil, errs.NotAFile(info.Path())
	}
	return f.openFile(info.Path(), info.Size())
}

// OpenInputStream opens the blob at path for sequential reads.
func (f *FileSystem) OpenInputStream(path string) (io.ReadCloser, error) {
	file, err := f.OpenInputFile(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// OpenInputStreamFromInfo opens the blob described by info for sequential reads.
func (f *FileSystem) OpenInputStreamFromInfo(info *FileInfo) (io.ReadCloser, error) {
	file, err := f.OpenInputFileFromInfo(info)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Open implements fs.FS. Errors are returned as *fs.PathError.
func (f *FileSystem) Open(name string) (fs.File, error) {
	file, err := f.OpenInputFile(name)
	if err != nil {
		return nil, errs.PathError("open", name, err)
	}
	return file, nil
}

func (f *FileSystem) openFile(path string, size int64) (*File, error) {
	if pathutil.HasTrailingSlash(path) {
		return nil, errs.NotAFile(path)
	}

	p, err := pathutil.Parse(path)
	if err != nil {
		return nil, err
	}
	if err := errs.ValidateFilePath(p.Container(), p.Relative(), p.String()); err != nil {
		return nil, err
	}

	f.logger.Debug("opening file", "path", p.String(), "size_known", size >= 0)

	file := newFile(f.service.NewBlob(p.Container(), p.Relative()), f.io, p.String(), size, f.logger)
	if err := file.init(); err != nil {
		return nil, err
	}
	return file, nil
}

// GetFileInfo is not implemented.
func (f *FileSystem) GetFileInfo(string) (*FileInfo, error) {
	return nil, errs.NotImplemented("GetFileInfo")
}

// GetFileInfoSelector is not implemented.
func (f *FileSystem) GetFileInfoSelector(FileSelector) ([]*FileInfo, error) {
	return nil, errs.NotImplemented("GetFileInfoSelector")
}

// CreateDir is not implemented.
func (f *FileSystem) CreateDir(string, bool) error {
	return errs.NotImplemented("CreateDir")
}

// DeleteDir is not implemented.
func (f *FileSystem) DeleteDir(string) error {
	return errs.NotImplemented("DeleteDir")
}

// DeleteDirContents is not implemented.
func (f *FileSystem) DeleteDirContents(string, bool) error {
	return errs.NotImplemented("DeleteDirContents")
}

// DeleteRootDirContents is not implemented.
func (f *FileSystem) DeleteRootDirContents() error {
	return errs.NotImplemented("DeleteRootDirContents")
}

// DeleteFile is not implemented.
func (f *FileSystem) DeleteFile(string) error {
	return errs.NotImplemented("DeleteFile")
}

// Move is not implemented.
func (f *FileSystem) Move(string, string) error {
	return errs.NotImplemented("Move")
}

// CopyFile is not implemented.
func (f *FileSystem) CopyFile(string, string) error {
	return errs.NotImplemented("CopyFile")
}

// OpenOutputStream is not implemented.
func (f *FileSystem) OpenOutputStream(string, map[string]string) (io.WriteCloser, error) {
	return nil, errs.NotImplemented("OpenOutputStream")
}

// OpenAppendStream is not implemented.
func (f *FileSystem) OpenAppendStream(string, map[string]string) (io.WriteCloser, error) {
	return nil, errs.NotImplemented("OpenAppendStream")
}

// Compile-time interface checks.
var (
	_ fs.FS      = (*FileSystem)(nil)
	_ Filesystem = (*FileSystem)(nil)
	_ Mutator    = (*FileSystem)(nil)
)
