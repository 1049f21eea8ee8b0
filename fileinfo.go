package azure

import (
	"io/fs"
	"path"
	"time"
)

// FileType classifies the entry a FileInfo describes.
type FileType int

const (
	// FileTypeNotFound means the entry does not exist.
	FileTypeNotFound FileType = iota
	// FileTypeUnknown means the entry exists but its type was not determined.
	FileTypeUnknown
	// FileTypeFile is a regular file (a blob).
	FileTypeFile
	// FileTypeDirectory is a directory or container.
	FileTypeDirectory
)

// String returns the type name.
func (t FileType) String() string {
	switch t {
	case FileTypeNotFound:
		return "not-found"
	case FileTypeUnknown:
		return "unknown"
	case FileTypeFile:
		return "file"
	case FileTypeDirectory:
		return "directory"
	default:
		return "invalid"
	}
}

// NoSize marks a FileInfo whose size is not known.
const NoSize int64 = -1

// FileInfo describes a path as previously observed. It implements fs.FileInfo.
//
// The size is unknown until SetSize is called, so a literal FileInfo never
// claims an empty blob by accident.
type FileInfo struct {
	FilePath    string
	FileType    FileType
	FileModTime time.Time

	size      int64
	sizeKnown bool
}

// NewFileInfo creates a FileInfo with an unknown size.
func NewFileInfo(p string, t FileType) *FileInfo {
	return &FileInfo{FilePath: p, FileType: t}
}

// SetSize records the length in bytes. A negative size marks it unknown.
func (fi *FileInfo) SetSize(size int64) *FileInfo {
	fi.size = size
	fi.sizeKnown = size >= 0
	return fi
}

// Path returns the full path.
func (fi *FileInfo) Path() string { return fi.FilePath }

// Type returns the entry type.
func (fi *FileInfo) Type() FileType { return fi.FileType }

// Name returns the base name of the path.
func (fi *FileInfo) Name() string { return path.Base(fi.FilePath) }

// Size returns the length in bytes, or NoSize when it is not known.
func (fi *FileInfo) Size() int64 {
	if !fi.sizeKnown {
		return NoSize
	}
	return fi.size
}

// Mode returns the file mode bits.
func (fi *FileInfo) Mode() fs.FileMode {
	if fi.FileType == FileTypeDirectory {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

// ModTime returns the modification time.
func (fi *FileInfo) ModTime() time.Time { return fi.FileModTime }

// IsDir reports whether the entry is a directory.
func (fi *FileInfo) IsDir() bool { return fi.FileType == FileTypeDirectory }

// Sys returns nil.
func (fi *FileInfo) Sys() interface{} { return nil }

var _ fs.FileInfo = (*FileInfo)(nil)
