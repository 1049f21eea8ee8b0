package azure

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmgilman/go/fs/azure/internal/errs"
	"github.com/jmgilman/go/fs/azure/store"
	"golang.org/x/sync/errgroup"
)

// properties holds the lazily resolved state of a blob. Once resolved it is
// never refreshed.
type properties struct {
	resolved bool
	size     int64
	metadata map[string]string
	modTime  time.Time
}

// File is a read-only, random access view of a single blob.
//
// Reads are served by ranged downloads; nothing is buffered between calls.
// A File is not safe for concurrent use, with the exception of ReadRanges
// which issues its own requests in parallel.
type File struct {
	blob   store.Blob
	io     IOContext
	path   string
	logger *slog.Logger

	props  properties
	pos    int64
	closed bool
}

// newFile creates an uninitialized handle. A non-negative size is trusted and
// skips the property fetch.
func newFile(blob store.Blob, ioCtx IOContext, path string, size int64, logger *slog.Logger) *File {
	f := &File{
		blob:   blob,
		io:     ioCtx,
		path:   path,
		logger: logger,
	}
	if size >= 0 {
		f.props = properties{resolved: true, size: size}
	}
	return f
}

// init resolves the blob's size and metadata if they are not known yet.
func (f *File) init() error {
	if f.props.resolved {
		return nil
	}

	ctx, cancel := f.io.request()
	defer cancel()

	props, err := f.blob.GetProperties(ctx)
	if err != nil {
		return errs.FromStore(
			fmt.Sprintf("When fetching properties for '%s'", f.blob.URL()), f.path, err)
	}

	f.props = properties{
		resolved: true,
		size:     props.Size,
		metadata: props.Metadata,
		modTime:  props.LastModified,
	}
	f.logger.Debug("resolved blob properties", "path", f.path, "size", props.Size)
	return nil
}

func (f *File) checkClosed(action string) error {
	if f.closed {
		return errs.Closed(action)
	}
	return nil
}

func (f *File) checkPosition(position int64, action string) error {
	if position < 0 {
		return errs.Invalidf("Cannot %s from negative position", action)
	}
	if position > f.props.size {
		return errs.IOErrorf("Cannot %s past end of file", action)
	}
	return nil
}

// Path returns the full path the handle was opened with.
func (f *File) Path() string { return f.path }

// Closed reports whether Close has been called.
func (f *File) Closed() bool { return f.closed }

// Tell returns the current cursor position.
func (f *File) Tell() (int64, error) {
	if err := f.checkClosed("tell"); err != nil {
		return 0, err
	}
	return f.pos, nil
}

// Size returns the blob's length in bytes.
func (f *File) Size() (int64, error) {
	if err := f.checkClosed("size"); err != nil {
		return 0, err
	}
	return f.props.size, nil
}

// Seek sets the cursor for the next Read. The end of the file is a valid
// position; anything past it is an error.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.checkClosed("seek"); err != nil {
		return 0, err
	}

	var position int64
	switch whence {
	case io.SeekStart:
		position = offset
	case io.SeekCurrent:
		position = f.pos + offset
	case io.SeekEnd:
		position = f.props.size + offset
	default:
		return 0, errs.Invalidf("invalid whence %d", whence)
	}

	if err := f.checkPosition(position, "seek"); err != nil {
		return 0, err
	}
	f.pos = position
	return position, nil
}

// ReadAtN reads up to nbytes starting at position into dest and returns the
// number of bytes the store delivered.
//
// The request is clamped to the end of the file and to len(dest). When
// nothing remains to be read no request is made.
func (f *File) ReadAtN(position, nbytes int64, dest []byte) (int64, error) {
	if err := f.checkClosed("read"); err != nil {
		return 0, err
	}
	if err := f.checkPosition(position, "read"); err != nil {
		return 0, err
	}

	nbytes = min(nbytes, f.props.size-position, int64(len(dest)))
	if nbytes <= 0 {
		return 0, nil
	}

	ctx, cancel := f.io.request()
	defer cancel()

	n, err := f.blob.DownloadRange(ctx, position, nbytes, dest[:nbytes])
	if err != nil {
		return 0, errs.FromStore(
			fmt.Sprintf("When reading from '%s' at position %d for %d bytes", f.blob.URL(), position, nbytes),
			f.path, err)
	}
	return n, nil
}

// ReadAtBuffer reads up to nbytes starting at position into a new buffer
// sized to the bytes actually delivered.
func (f *File) ReadAtBuffer(position, nbytes int64) ([]byte, error) {
	if err := f.checkClosed("read"); err != nil {
		return nil, err
	}
	if err := f.checkPosition(position, "read"); err != nil {
		return nil, err
	}

	nbytes = max(min(nbytes, f.props.size-position), 0)
	buf := make([]byte, nbytes)
	if nbytes == 0 {
		return buf, nil
	}

	n, err := f.ReadAtN(position, nbytes, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// ReadN reads up to nbytes at the cursor into dest and advances the cursor
// by the number of bytes delivered.
func (f *File) ReadN(nbytes int64, dest []byte) (int64, error) {
	n, err := f.ReadAtN(f.pos, nbytes, dest)
	if err != nil {
		return 0, err
	}
	f.pos += n
	return n, nil
}

// ReadBuffer reads up to nbytes at the cursor into a new buffer and advances
// the cursor by its length.
func (f *File) ReadBuffer(nbytes int64) ([]byte, error) {
	buf, err := f.ReadAtBuffer(f.pos, nbytes)
	if err != nil {
		return nil, err
	}
	f.pos += int64(len(buf))
	return buf, nil
}

// Read implements io.Reader. At end of file it returns 0, io.EOF.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.ReadN(int64(len(p)), p)
	if err != nil {
		return int(n), err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return int(n), nil
}

// ReadAt implements io.ReaderAt. It does not move the cursor. Short store
// reads are retried from where they stopped until p is full; io.EOF is only
// returned when the end of the file is reached first.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	var total int
	for total < len(p) {
		n, err := f.ReadAtN(off+int64(total), int64(len(p)-total), p[total:])
		total += int(n)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.EOF
		}
	}
	return total, nil
}

// Range is a byte range within a file.
type Range struct {
	Offset int64
	Length int64
}

// ReadRanges reads several ranges concurrently and returns one buffer per
// range, in order. The cursor is not moved.
func (f *File) ReadRanges(ranges []Range) ([][]byte, error) {
	if err := f.checkClosed("read"); err != nil {
		return nil, err
	}
	for _, r := range ranges {
		if err := f.checkPosition(r.Offset, "read"); err != nil {
			return nil, err
		}
	}

	out := make([][]byte, len(ranges))
	g := new(errgroup.Group)
	g.SetLimit(f.io.concurrency())

	for i, r := range ranges {
		g.Go(func() error {
			buf, err := f.ReadAtBuffer(r.Offset, r.Length)
			if err != nil {
				return err
			}
			out[i] = buf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadMetadata returns a copy of the blob's user metadata. It is empty when
// the handle was opened with a known size.
func (f *File) ReadMetadata() (map[string]string, error) {
	if err := f.checkClosed("read metadata"); err != nil {
		return nil, err
	}
	if f.props.metadata == nil {
		return nil, nil
	}
	md := make(map[string]string, len(f.props.metadata))
	for k, v := range f.props.metadata {
		md[k] = v
	}
	return md, nil
}

// MetadataResult is delivered by ReadMetadataAsync.
type MetadataResult struct {
	Metadata map[string]string
	Err      error
}

// ReadMetadataAsync returns a channel that already holds the result of
// ReadMetadata. No goroutine is started and ctx is only checked once.
func (f *File) ReadMetadataAsync(ctx context.Context) <-chan MetadataResult {
	ch := make(chan MetadataResult, 1)
	if err := ctx.Err(); err != nil {
		ch <- MetadataResult{Err: err}
	} else {
		md, err := f.ReadMetadata()
		ch <- MetadataResult{Metadata: md, Err: err}
	}
	close(ch)
	return ch
}

// Stat returns the blob's file information.
func (f *File) Stat() (fs.FileInfo, error) {
	if err := f.checkClosed("stat"); err != nil {
		return nil, err
	}
	info := &FileInfo{
		FilePath:    f.path,
		FileType:    FileTypeFile,
		FileModTime: f.props.modTime,
	}
	return info.SetSize(f.props.size), nil
}

// Close releases the blob client. Closing an already closed file is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.blob = nil
	f.logger.Debug("closed file", "path", f.path)
	return nil
}

// Compile-time interface checks.
var (
	_ fs.File     = (*File)(nil)
	_ io.ReaderAt = (*File)(nil)
	_ io.Seeker   = (*File)(nil)
)
