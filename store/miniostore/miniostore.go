// Package miniostore implements store.Service for S3-compatible endpoints
// using the MinIO client. Containers map to buckets and blob names to keys.
package miniostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jmgilman/go/fs/azure/store"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config describes how to reach an S3-compatible server. Containers map
// one-to-one onto buckets, so no bucket is configured here.
type Config struct {
	// Endpoint is host:port of the server, without a scheme.
	Endpoint string

	// AccessKey and SecretKey are the static V4 signing credentials.
	AccessKey string
	SecretKey string

	// UseSSL selects https for the endpoint.
	UseSSL bool

	// Client replaces the connection built from the fields above.
	Client *minio.Client
}

func (c *Config) validate() error {
	if c.Client != nil {
		return nil
	}
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("minio endpoint is missing")
	case c.AccessKey == "":
		return fmt.Errorf("minio access key is missing")
	case c.SecretKey == "":
		return fmt.Errorf("minio secret key is missing")
	}
	return nil
}

// Service is a store.Service backed by a MinIO client.
type Service struct {
	client *minio.Client
}

// New creates a MinIO-backed service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	return &Service{client: client}, nil
}

// URL returns the endpoint URL with a trailing separator.
func (s *Service) URL() string {
	return strings.TrimSuffix(s.client.EndpointURL().String(), "/") + "/"
}

// NewBlob returns a client for the named object. No request is made.
func (s *Service) NewBlob(container, name string) store.Blob {
	return &blob{svc: s, bucket: container, key: name}
}

type blob struct {
	svc    *Service
	bucket string
	key    string
}

func (b *blob) URL() string {
	return b.svc.URL() + b.bucket + "/" + b.key
}

func (b *blob) GetProperties(ctx context.Context) (store.Properties, error) {
	info, err := b.svc.client.StatObject(ctx, b.bucket, b.key, minio.StatObjectOptions{})
	if err != nil {
		return store.Properties{}, translate(err)
	}

	var metadata map[string]string
	if len(info.UserMetadata) > 0 {
		metadata = make(map[string]string, len(info.UserMetadata))
		for k, v := range info.UserMetadata {
			metadata[strings.ToLower(k)] = v
		}
	}

	return store.Properties{
		Size:         info.Size,
		Metadata:     metadata,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

func (b *blob) DownloadRange(ctx context.Context, offset, count int64, dest []byte) (int64, error) {
	if count <= 0 {
		return 0, nil
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(offset, offset+count-1); err != nil {
		return 0, err
	}

	obj, err := b.svc.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return 0, translate(err)
	}
	defer func() {
		_ = obj.Close()
	}()

	length := min(count, int64(len(dest)))
	n, err := io.ReadFull(obj, dest[:length])
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		// The object ended before the requested range did.
		return int64(n), nil
	}
	if err != nil {
		return int64(n), translate(err)
	}
	return int64(n), nil
}

// translate converts MinIO error responses into store.ResponseError.
func translate(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == 0 {
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket":
			resp.StatusCode = http.StatusNotFound
		default:
			return err
		}
	}
	return &store.ResponseError{
		StatusCode: resp.StatusCode,
		ErrorCode:  resp.Code,
		Err:        err,
	}
}

var _ store.Service = (*Service)(nil)
