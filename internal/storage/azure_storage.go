package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// PhotoStore persists uploaded germination photos and returns their public URL.
type PhotoStore interface {
	Upload(ctx context.Context, upload PhotoUpload) (string, error)
}

// PhotoUpload is one photo destined for a germination record.
type PhotoUpload struct {
	RecordID    string
	DayNumber   int
	Filename    string
	ContentType string
	Data        []byte
}

// BlobName lays photos out per record, prefixed by upload time.
func BlobName(recordID, filename string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "photo"
	}
	return fmt.Sprintf("germination/%s/%d-%s", recordID, at.Unix(), name)
}

// AzureStorage stores photos in an Azure Blob Storage container.
type AzureStorage struct {
	client    *azblob.Client
	container string
	host      string
	now       func() time.Time
}

// NewAzureStorage creates a blob-backed photo store for accountName.
func NewAzureStorage(accountName, accountKey, container string) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credentials: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &AzureStorage{
		client:    client,
		container: container,
		host:      fmt.Sprintf("%s.blob.core.windows.net", accountName),
		now:       time.Now,
	}, nil
}

// EnsureContainer creates the photo container if it does not exist yet.
func (s *AzureStorage) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", s.container, err)
	}
	return nil
}

func (s *AzureStorage) Upload(ctx context.Context, upload PhotoUpload) (string, error) {
	blobName := BlobName(upload.RecordID, upload.Filename, s.now())

	var opts *azblob.UploadBufferOptions
	if upload.ContentType != "" {
		contentType := upload.ContentType
		opts = &azblob.UploadBufferOptions{
			HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
		}
	}

	if _, err := s.client.UploadBuffer(ctx, s.container, blobName, upload.Data, opts); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	return s.blobURL(blobName), nil
}

func (s *AzureStorage) blobURL(blobName string) string {
	u := url.URL{Scheme: "https", Host: s.host, Path: "/" + s.container + "/" + blobName}
	return u.String()
}

// Owns reports whether imageURL points into this account.
func (s *AzureStorage) Owns(imageURL string) bool {
	u, err := url.Parse(imageURL)
	return err == nil && strings.EqualFold(u.Host, s.host)
}

// FetchImage downloads a blob of this account given its URL.
func (s *AzureStorage) FetchImage(ctx context.Context, blobURL string) ([]byte, error) {
	container, blobName, err := parseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("blob exceeds %d bytes", MaxImageBytes)
	}
	return data, nil
}

// parseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob>.
func parseBlobURL(blobURL string) (string, string, error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid blob URL %q: expected /<container>/<blob>", blobURL)
	}
	return parts[0], parts[1], nil
}

// PlaceholderStore is used when no blob storage is configured. It keeps
// nothing and hands out a placeholder image URL.
type PlaceholderStore struct{}

func (PlaceholderStore) Upload(ctx context.Context, upload PhotoUpload) (string, error) {
	return fmt.Sprintf("/placeholder.svg?height=300&width=400&text=%s-Day-%d",
		url.QueryEscape(upload.RecordID), upload.DayNumber), nil
}

// RoutingFetcher reads our own blobs through the storage SDK and everything
// else over plain HTTP.
type RoutingFetcher struct {
	blobs *AzureStorage
	web   *HTTPImageFetcher
}

// NewRoutingFetcher creates a fetcher; blobs may be nil.
func NewRoutingFetcher(blobs *AzureStorage, web *HTTPImageFetcher) *RoutingFetcher {
	return &RoutingFetcher{blobs: blobs, web: web}
}

func (r *RoutingFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if r.blobs != nil && r.blobs.Owns(imageURL) {
		return r.blobs.FetchImage(ctx, imageURL)
	}
	return r.web.FetchImage(ctx, imageURL)
}
