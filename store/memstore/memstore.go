// Package memstore provides an in-memory store.Service.
//
// It counts requests and can inject failures and short reads, which makes it
// the workhorse of the filesystem's unit tests.
package memstore

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmgilman/go/fs/azure/store"
)

// Object is a blob held by the store.
type Object struct {
	Data         []byte
	Metadata     map[string]string
	ContentType  string
	LastModified time.Time
}

// Service is an in-memory store.Service. The zero value is not usable; call New.
type Service struct {
	url string

	mu         sync.RWMutex
	containers map[string]map[string]Object
	failures   map[string]error
	shortRead  int64

	propertiesCalls atomic.Int64
	downloadCalls   atomic.Int64
}

// New creates an empty store whose account URL is url.
func New(url string) *Service {
	return &Service{
		url:        url,
		containers: make(map[string]map[string]Object),
		failures:   make(map[string]error),
	}
}

// URL returns the account URL.
func (s *Service) URL() string { return s.url }

// CreateContainer creates an empty container. Existing containers are kept.
func (s *Service) CreateContainer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[name]; !ok {
		s.containers[name] = make(map[string]Object)
	}
}

// Put stores an object, creating the container if needed.
func (s *Service) Put(container, name string, obj Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.containers[container]
	if !ok {
		objects = make(map[string]Object)
		s.containers[container] = objects
	}
	if obj.LastModified.IsZero() {
		obj.LastModified = time.Now().UTC()
	}
	objects[name] = obj
}

// PutBytes stores data with no metadata.
func (s *Service) PutBytes(container, name string, data []byte) {
	s.Put(container, name, Object{Data: data})
}

// Fail makes every request for the named blob return err. A nil err clears
// the failure.
func (s *Service) Fail(container, name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := container + "/" + name
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

// SetShortRead caps the number of bytes delivered per ranged download.
// Zero removes the cap.
func (s *Service) SetShortRead(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shortRead = n
}

// PropertiesCalls returns how many property fetches have been served.
func (s *Service) PropertiesCalls() int64 { return s.propertiesCalls.Load() }

// DownloadCalls returns how many ranged downloads have been served.
func (s *Service) DownloadCalls() int64 { return s.downloadCalls.Load() }

// NewBlob returns a client for the named blob.
func (s *Service) NewBlob(container, name string) store.Blob {
	return &blob{svc: s, container: container, name: name}
}

func (s *Service) lookup(container, name string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, ok := s.failures[container+"/"+name]; ok {
		return Object{}, err
	}

	objects, ok := s.containers[container]
	if !ok {
		return Object{}, &store.ResponseError{
			StatusCode: http.StatusNotFound,
			ErrorCode:  "ContainerNotFound",
			Err:        fmt.Errorf("container %q does not exist", container),
		}
	}
	obj, ok := objects[name]
	if !ok {
		return Object{}, &store.ResponseError{
			StatusCode: http.StatusNotFound,
			ErrorCode:  "BlobNotFound",
			Err:        fmt.Errorf("blob %q does not exist in container %q", name, container),
		}
	}
	return obj, nil
}

type blob struct {
	svc       *Service
	container string
	name      string
}

func (b *blob) URL() string {
	return b.svc.url + b.container + "/" + b.name
}

func (b *blob) GetProperties(ctx context.Context) (store.Properties, error) {
	b.svc.propertiesCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return store.Properties{}, err
	}

	obj, err := b.svc.lookup(b.container, b.name)
	if err != nil {
		return store.Properties{}, err
	}

	var metadata map[string]string
	if obj.Metadata != nil {
		metadata = make(map[string]string, len(obj.Metadata))
		for k, v := range obj.Metadata {
			metadata[k] = v
		}
	}

	return store.Properties{
		Size:         int64(len(obj.Data)),
		Metadata:     metadata,
		ContentType:  obj.ContentType,
		ETag:         fmt.Sprintf("\"%x\"", obj.LastModified.UnixNano()),
		LastModified: obj.LastModified,
	}, nil
}

func (b *blob) DownloadRange(ctx context.Context, offset, count int64, dest []byte) (int64, error) {
	b.svc.downloadCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	obj, err := b.svc.lookup(b.container, b.name)
	if err != nil {
		return 0, err
	}

	size := int64(len(obj.Data))
	if offset >= size && count > 0 {
		return 0, &store.ResponseError{
			StatusCode: http.StatusRequestedRangeNotSatisfiable,
			ErrorCode:  "InvalidRange",
			Err:        fmt.Errorf("range %d-%d is not satisfiable for size %d", offset, offset+count-1, size),
		}
	}

	end := min(offset+count, size)
	b.svc.mu.RLock()
	if limit := b.svc.shortRead; limit > 0 && end-offset > limit {
		end = offset + limit
	}
	b.svc.mu.RUnlock()

	n := copy(dest, obj.Data[offset:end])
	return int64(n), nil
}
