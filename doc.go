// Package azure provides a read-only filesystem over Azure Blob Storage.
//
// A FileSystem represents one storage account. Paths name a container and a
// blob inside it, using "/" as the separator:
//
//	container/dir/file.parquet
//
// Containers are the first path component; everything after the first
// separator is the blob name. Paths never start with a separator, trailing
// separators are ignored and URIs are rejected.
//
// # Opening Files
//
// OpenInputFile returns a File that is ready to read: the blob's size and
// metadata are fetched before the call returns. When the size is already
// known, for example from an earlier listing, OpenInputFileFromInfo skips the
// fetch.
//
//	opts := azure.Options{}
//	if err := opts.ConfigureAccountKeyCredentials("account", key); err != nil {
//	    return err
//	}
//	fsys, err := azure.New(opts)
//	if err != nil {
//	    return err
//	}
//	f, err := fsys.OpenInputFile("container/dir/file.parquet")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	footer, err := f.ReadAtBuffer(size-8, 8)
//
// Every read is a single ranged download. Requests are clamped to the end of
// the blob, so asking for more than remains returns what remains rather than
// an error. Reading from the end of the file returns no bytes and makes no
// request.
//
// # Errors
//
// Errors carry a code from github.com/jmgilman/go/errors:
//
//   - CodeInvalidInput: malformed paths, negative positions, closed files
//   - CodeNotFound: the container or blob does not exist
//   - CodeNotAFile: the path names a container
//   - CodeIO: any other store failure, or a position past the end of the file
//   - CodeNotImplemented: listing, writing and other mutating operations
//
// The io/fs sentinels fs.ErrInvalid, fs.ErrClosed and fs.ErrNotExist are kept
// in the error chain where they apply.
//
// # Stores
//
// By default the filesystem talks to Azure through the azblob SDK. Any
// store.Service can be supplied with WithService; the store subpackages
// include a MinIO adapter for S3-compatible endpoints and an in-memory store.
package azure
