package azure

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/azure/store"
	"github.com/jmgilman/go/fs/azure/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccountURL = "http://127.0.0.1:10000/devstoreaccount1/"

// newTestFile stores data under container/name and returns an initialized
// handle for it together with the backing store.
func newTestFile(t *testing.T, data string) (*File, *memstore.Service) {
	t.Helper()

	svc := memstore.New(testAccountURL)
	svc.Put("container", "dir/file.txt", memstore.Object{
		Data:     []byte(data),
		Metadata: map[string]string{"owner": "test", "Content-Language": "en"},
	})

	f := newFile(svc.NewBlob("container", "dir/file.txt"), DefaultIOContext(),
		"container/dir/file.txt", NoSize, slog.New(slog.DiscardHandler))
	require.NoError(t, f.init())
	return f, svc
}

func TestFileInit(t *testing.T) {
	t.Run("fetches properties once", func(t *testing.T) {
		f, svc := newTestFile(t, "hello world")

		size, err := f.Size()
		require.NoError(t, err)
		assert.Equal(t, int64(11), size)

		require.NoError(t, f.init())
		assert.Equal(t, int64(1), svc.PropertiesCalls())
	})

	t.Run("known size skips fetch", func(t *testing.T) {
		svc := memstore.New(testAccountURL)
		svc.PutBytes("container", "f", []byte("abc"))

		f := newFile(svc.NewBlob("container", "f"), DefaultIOContext(), "container/f", 3, slog.New(slog.DiscardHandler))
		require.NoError(t, f.init())

		assert.Equal(t, int64(0), svc.PropertiesCalls())
		md, err := f.ReadMetadata()
		require.NoError(t, err)
		assert.Empty(t, md)
	})

	t.Run("missing blob", func(t *testing.T) {
		svc := memstore.New(testAccountURL)
		svc.CreateContainer("container")

		f := newFile(svc.NewBlob("container", "nope"), DefaultIOContext(), "container/nope", NoSize, slog.New(slog.DiscardHandler))
		err := f.init()

		require.Error(t, err)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Contains(t, err.Error(), "container/nope")
	})

	t.Run("missing container", func(t *testing.T) {
		svc := memstore.New(testAccountURL)

		f := newFile(svc.NewBlob("ghost", "f"), DefaultIOContext(), "ghost/f", NoSize, slog.New(slog.DiscardHandler))
		err := f.init()

		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	})

	t.Run("store failure", func(t *testing.T) {
		svc := memstore.New(testAccountURL)
		svc.PutBytes("container", "f", []byte("abc"))
		svc.Fail("container", "f", &store.ResponseError{
			StatusCode: http.StatusForbidden,
			Err:        stderrors.New("AuthorizationPermissionMismatch"),
		})

		f := newFile(svc.NewBlob("container", "f"), DefaultIOContext(), "container/f", NoSize, slog.New(slog.DiscardHandler))
		err := f.init()

		require.Error(t, err)
		assert.Equal(t, CodeIO, errors.GetCode(err))
		assert.Contains(t, err.Error(), "When fetching properties for '"+testAccountURL+"container/f'")
		assert.Contains(t, err.Error(), "AuthorizationPermissionMismatch")
	})
}

func TestFileSeek(t *testing.T) {
	tests := []struct {
		name     string
		offset   int64
		whence   int
		wantPos  int64
		wantCode errors.ErrorCode
	}{
		{name: "start", offset: 3, whence: io.SeekStart, wantPos: 3},
		{name: "end of file is legal", offset: 10, whence: io.SeekStart, wantPos: 10},
		{name: "relative to end", offset: -4, whence: io.SeekEnd, wantPos: 6},
		{name: "negative", offset: -1, whence: io.SeekStart, wantCode: errors.CodeInvalidInput},
		{name: "past end", offset: 11, whence: io.SeekStart, wantCode: CodeIO},
		{name: "bad whence", offset: 0, whence: 42, wantCode: errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFile(t, "0123456789")

			pos, err := f.Seek(tt.offset, tt.whence)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
				tell, err := f.Tell()
				require.NoError(t, err)
				assert.Equal(t, int64(0), tell, "failed seek must not move the cursor")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPos, pos)
			tell, err := f.Tell()
			require.NoError(t, err)
			assert.Equal(t, tt.wantPos, tell)
		})
	}

	t.Run("relative to current", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")
		_, err := f.Seek(4, io.SeekStart)
		require.NoError(t, err)
		pos, err := f.Seek(2, io.SeekCurrent)
		require.NoError(t, err)
		assert.Equal(t, int64(6), pos)
	})
}

func TestFileReadAtN(t *testing.T) {
	t.Run("reads requested range", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		dest := make([]byte, 4)
		n, err := f.ReadAtN(2, 4, dest)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.Equal(t, "2345", string(dest))
	})

	t.Run("clamps to end of file", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		dest := make([]byte, 100)
		n, err := f.ReadAtN(7, 100, dest)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, "789", string(dest[:n]))
	})

	t.Run("clamps to destination", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		dest := make([]byte, 2)
		n, err := f.ReadAtN(0, 8, dest)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, "01", string(dest))
	})

	t.Run("end of file makes no request", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")

		n, err := f.ReadAtN(10, 5, make([]byte, 5))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
		assert.Equal(t, int64(0), svc.DownloadCalls())
	})

	t.Run("zero bytes makes no request", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")

		n, err := f.ReadAtN(3, 0, make([]byte, 5))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
		assert.Equal(t, int64(0), svc.DownloadCalls())
	})

	t.Run("negative position", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		_, err := f.ReadAtN(-1, 1, make([]byte, 1))
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		assert.Contains(t, err.Error(), "Cannot read from negative position")
	})

	t.Run("past end of file", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		_, err := f.ReadAtN(11, 1, make([]byte, 1))
		assert.Equal(t, CodeIO, errors.GetCode(err))
		assert.Contains(t, err.Error(), "Cannot read past end of file")
	})

	t.Run("store reports fewer bytes", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")
		svc.SetShortRead(3)

		dest := make([]byte, 8)
		n, err := f.ReadAtN(0, 8, dest)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("store failure", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")
		svc.Fail("container", "dir/file.txt", stderrors.New("connection reset"))

		_, err := f.ReadAtN(4, 2, make([]byte, 2))
		require.Error(t, err)
		assert.Equal(t, CodeIO, errors.GetCode(err))
		assert.Contains(t, err.Error(),
			"When reading from '"+testAccountURL+"container/dir/file.txt' at position 4 for 2 bytes")
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("blob removed after open", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")
		svc.Fail("container", "dir/file.txt", &store.ResponseError{StatusCode: http.StatusNotFound})

		_, err := f.ReadAtN(0, 2, make([]byte, 2))
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	})
}

func TestFileReadAtBuffer(t *testing.T) {
	t.Run("sized to clamped length", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		buf, err := f.ReadAtBuffer(6, 100)
		require.NoError(t, err)
		assert.Equal(t, "6789", string(buf))
	})

	t.Run("resized to delivered bytes", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")
		svc.SetShortRead(2)

		buf, err := f.ReadAtBuffer(0, 10)
		require.NoError(t, err)
		assert.Equal(t, "01", string(buf))
	})

	t.Run("empty at end of file", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")

		buf, err := f.ReadAtBuffer(10, 4)
		require.NoError(t, err)
		assert.Empty(t, buf)
		assert.Equal(t, int64(0), svc.DownloadCalls())
	})

	t.Run("does not move cursor", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		_, err := f.ReadAtBuffer(3, 3)
		require.NoError(t, err)
		pos, err := f.Tell()
		require.NoError(t, err)
		assert.Equal(t, int64(0), pos)
	})
}

func TestFileSequentialRead(t *testing.T) {
	t.Run("advances by bytes read", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		buf, err := f.ReadBuffer(4)
		require.NoError(t, err)
		assert.Equal(t, "0123", string(buf))

		dest := make([]byte, 4)
		n, err := f.ReadN(4, dest)
		require.NoError(t, err)
		assert.Equal(t, "4567", string(dest[:n]))

		buf, err = f.ReadBuffer(4)
		require.NoError(t, err)
		assert.Equal(t, "89", string(buf))

		pos, err := f.Tell()
		require.NoError(t, err)
		assert.Equal(t, int64(10), pos)
	})

	t.Run("short reads neither skip nor repeat", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")
		svc.SetShortRead(3)

		var got []byte
		for {
			buf, err := f.ReadBuffer(5)
			require.NoError(t, err)
			if len(buf) == 0 {
				break
			}
			got = append(got, buf...)
		}
		assert.Equal(t, "0123456789", string(got))
	})

	t.Run("io reader", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")
		svc.SetShortRead(4)

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "0123456789", string(data))

		n, err := f.Read(make([]byte, 1))
		assert.Equal(t, 0, n)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("io reader at", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		p := make([]byte, 4)
		n, err := f.ReadAt(p, 2)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, "2345", string(p))

		n, err = f.ReadAt(p, 8)
		assert.Equal(t, 2, n)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, "89", string(p[:n]))
	})

	t.Run("io reader at fills short reads", func(t *testing.T) {
		f, svc := newTestFile(t, "0123456789")
		svc.SetShortRead(3)

		p := make([]byte, 7)
		n, err := f.ReadAt(p, 1)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.Equal(t, "1234567", string(p))
		assert.Equal(t, int64(3), svc.DownloadCalls())

		n, err = f.ReadAt(p, 6)
		assert.Equal(t, 4, n)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, "6789", string(p[:n]))

		data, err := io.ReadAll(io.NewSectionReader(f, 0, 10))
		require.NoError(t, err)
		assert.Equal(t, "0123456789", string(data))
	})

	t.Run("section reader", func(t *testing.T) {
		f, _ := newTestFile(t, "0123456789")

		data, err := io.ReadAll(io.NewSectionReader(f, 3, 4))
		require.NoError(t, err)
		assert.Equal(t, "3456", string(data))
	})
}

func TestFileReadRanges(t *testing.T) {
	f, svc := newTestFile(t, "0123456789abcdef")

	bufs, err := f.ReadRanges([]Range{
		{Offset: 0, Length: 4},
		{Offset: 10, Length: 6},
		{Offset: 14, Length: 10},
		{Offset: 16, Length: 1},
	})
	require.NoError(t, err)
	require.Len(t, bufs, 4)
	assert.Equal(t, "0123", string(bufs[0]))
	assert.Equal(t, "abcdef", string(bufs[1]))
	assert.Equal(t, "ef", string(bufs[2]))
	assert.Empty(t, bufs[3])
	assert.Equal(t, int64(3), svc.DownloadCalls())

	_, err = f.ReadRanges([]Range{{Offset: 17, Length: 1}})
	assert.Equal(t, CodeIO, errors.GetCode(err))
}

func TestFileMetadata(t *testing.T) {
	f, _ := newTestFile(t, "abc")

	md, err := f.ReadMetadata()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"owner": "test", "Content-Language": "en"}, md)

	md["owner"] = "changed"
	again, err := f.ReadMetadata()
	require.NoError(t, err)
	assert.Equal(t, "test", again["owner"])

	res := <-f.ReadMetadataAsync(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, again, res.Metadata)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = <-f.ReadMetadataAsync(ctx)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestFileStat(t *testing.T) {
	f, _ := newTestFile(t, "abcdef")

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "file.txt", info.Name())
	assert.Equal(t, int64(6), info.Size())
	assert.False(t, info.IsDir())
	assert.False(t, info.ModTime().IsZero())
}

func TestFileClose(t *testing.T) {
	f, svc := newTestFile(t, "0123456789")

	require.NoError(t, f.Close())
	assert.True(t, f.Closed())
	require.NoError(t, f.Close(), "second close is a no-op")

	checks := []struct {
		name string
		fn   func() error
	}{
		{"tell", func() error { _, err := f.Tell(); return err }},
		{"size", func() error { _, err := f.Size(); return err }},
		{"seek", func() error { _, err := f.Seek(0, io.SeekStart); return err }},
		{"read", func() error { _, err := f.ReadAtN(0, 1, make([]byte, 1)); return err }},
		{"read", func() error { _, err := f.ReadAtBuffer(0, 1); return err }},
		{"read", func() error { _, err := f.ReadBuffer(1); return err }},
		{"read", func() error { _, err := f.Read(make([]byte, 1)); return err }},
		{"read", func() error { _, err := f.ReadRanges([]Range{{0, 1}}); return err }},
		{"read metadata", func() error { _, err := f.ReadMetadata(); return err }},
		{"stat", func() error { _, err := f.Stat(); return err }},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			err := c.fn()
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
			assert.ErrorIs(t, err, fs.ErrClosed)
			assert.Contains(t, err.Error(), "Cannot "+c.name+" on closed file.")
		})
	}

	assert.Equal(t, int64(0), svc.DownloadCalls())
}
