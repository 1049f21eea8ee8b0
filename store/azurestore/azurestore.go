// Package azurestore implements store.Service on top of the Azure Blob Storage SDK.
package azurestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/jmgilman/go/fs/azure/store"
)

// Service is a store.Service backed by an azblob client.
type Service struct {
	client *azblob.Client
}

// NewWithSharedKey creates a service authenticated with an account key.
func NewWithSharedKey(serviceURL string, cred *azblob.SharedKeyCredential) (*Service, error) {
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, defaultClientOptions())
	if err != nil {
		return nil, fmt.Errorf("azure: create client: %w", err)
	}
	return &Service{client: client}, nil
}

// NewWithToken creates a service authenticated with an Entra ID token credential.
func NewWithToken(serviceURL string, cred azcore.TokenCredential) (*Service, error) {
	client, err := azblob.NewClient(serviceURL, cred, defaultClientOptions())
	if err != nil {
		return nil, fmt.Errorf("azure: create client: %w", err)
	}
	return &Service{client: client}, nil
}

// NewAnonymous creates a service with no credential, for public containers or
// URLs carrying a SAS token.
func NewAnonymous(serviceURL string) (*Service, error) {
	client, err := azblob.NewClientWithNoCredential(serviceURL, defaultClientOptions())
	if err != nil {
		return nil, fmt.Errorf("azure: create client: %w", err)
	}
	return &Service{client: client}, nil
}

// NewFromClient wraps an existing azblob client.
func NewFromClient(client *azblob.Client) *Service {
	return &Service{client: client}
}

// Client exposes the underlying azblob client.
func (s *Service) Client() *azblob.Client {
	return s.client
}

// URL returns the account endpoint.
func (s *Service) URL() string {
	return s.client.URL()
}

// NewBlob returns a client for the named blob. No request is made.
func (s *Service) NewBlob(container, name string) store.Blob {
	return &Blob{
		client: s.client.ServiceClient().NewContainerClient(container).NewBlobClient(name),
	}
}

// Blob is a store.Blob backed by an azblob blob client.
type Blob struct {
	client *blob.Client
}

// URL returns the blob URL.
func (b *Blob) URL() string {
	return b.client.URL()
}

// GetProperties fetches the blob's properties and metadata.
func (b *Blob) GetProperties(ctx context.Context) (store.Properties, error) {
	resp, err := b.client.GetProperties(ctx, nil)
	if err != nil {
		return store.Properties{}, translate(err)
	}

	props := store.Properties{
		Metadata: copyMetadata(resp.Metadata),
	}
	if resp.ContentLength != nil {
		props.Size = *resp.ContentLength
	}
	if resp.ContentType != nil {
		props.ContentType = *resp.ContentType
	}
	if resp.ETag != nil {
		props.ETag = string(*resp.ETag)
	}
	if resp.LastModified != nil {
		props.LastModified = *resp.LastModified
	}
	return props, nil
}

// DownloadRange downloads count bytes starting at offset into dest. The
// length reported by the service decides how many bytes are consumed.
func (b *Blob) DownloadRange(ctx context.Context, offset, count int64, dest []byte) (int64, error) {
	// A zero count means "to the end of the blob" to the service.
	if count <= 0 {
		return 0, nil
	}

	resp, err := b.client.DownloadStream(ctx, &blob.DownloadStreamOptions{
		Range: blob.HTTPRange{Offset: offset, Count: count},
	})
	if err != nil {
		return 0, translate(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	length := count
	if resp.ContentLength != nil {
		length = *resp.ContentLength
	}
	length = min(length, int64(len(dest)))

	n, err := io.ReadFull(resp.Body, dest[:length])
	if err != nil {
		return int64(n), fmt.Errorf("azure: read range body: %w", err)
	}
	return int64(n), nil
}

// copyMetadata flattens the SDK's pointer-valued metadata map. Keys come
// back in canonical header form and are lowercased.
func copyMetadata(in map[string]*string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = strings.ToLower(k)
		if v != nil {
			out[k] = *v
		} else {
			out[k] = ""
		}
	}
	return out
}

// translate converts SDK response errors into store.ResponseError.
func translate(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return &store.ResponseError{
			StatusCode: respErr.StatusCode,
			ErrorCode:  respErr.ErrorCode,
			Err:        err,
		}
	}
	return err
}

func defaultClientOptions() *azblob.ClientOptions {
	return &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: defaultTransporter(),
		},
	}
}

type transportAdapter struct {
	rt http.RoundTripper
}

func (t transportAdapter) Do(req *http.Request) (*http.Response, error) {
	return t.rt.RoundTrip(req)
}

func defaultTransporter() policy.Transporter {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return transportAdapter{rt: http.DefaultTransport}
	}
	clone := base.Clone()
	if clone.MaxIdleConnsPerHost == 0 {
		clone.MaxIdleConnsPerHost = 64
	}
	if clone.IdleConnTimeout == 0 {
		clone.IdleConnTimeout = 90 * time.Second
	}
	return transportAdapter{rt: clone}
}

var (
	_ store.Service = (*Service)(nil)
	_ store.Blob    = (*Blob)(nil)
)
