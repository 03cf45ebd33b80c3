package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/sirupsen/logrus"
)

// AzureBackend stores documents in an Azure Blob Storage container
type AzureBackend struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureBackend implements Backend
var _ Backend = (*AzureBackend)(nil)

// NewAzureBackend creates a new Azure Blob Storage backend. When accountKey
// is empty the default Azure credential chain (managed identity, CLI, env)
// is used.
func NewAzureBackend(ctx context.Context, accountName, accountKey, containerName string) (*AzureBackend, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}
	if containerName == "" {
		return nil, fmt.Errorf("container name is required")
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	var client *azblob.Client
	if accountKey != "" {
		credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
	} else {
		credential, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, credential, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
	}

	return NewAzureBackendWithClient(ctx, client, containerName)
}

// NewAzureBackendWithClient wraps an existing blob client and makes sure the
// container exists
func NewAzureBackendWithClient(ctx context.Context, client *azblob.Client, containerName string) (*AzureBackend, error) {
	if containerName == "" {
		return nil, fmt.Errorf("container name is required")
	}

	backend := &AzureBackend{
		client:        client,
		containerName: containerName,
	}

	if err := backend.ensureContainer(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return backend, nil
}

func (a *AzureBackend) ensureContainer(ctx context.Context) error {
	_, err := a.client.CreateContainer(ctx, a.containerName, nil)
	if err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", a.containerName)
	} else {
		logrus.Infof("Created container %s", a.containerName)
	}

	return nil
}

// Put uploads data as a block blob, replacing any existing blob
func (a *AzureBackend) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := a.client.UploadBuffer(ctx, a.containerName, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, err)
	}

	return nil
}

// Get downloads the blob stored at key
func (a *AzureBackend) Get(ctx context.Context, key string) ([]byte, error) {
	response, err := a.client.DownloadStream(ctx, a.containerName, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("blob %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download blob %s: %w", key, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	return data, nil
}

// ListPage returns one page of blob names under prefix. The page token is the
// service's continuation marker.
func (a *AzureBackend) ListPage(ctx context.Context, prefix, pageToken string) (Page, error) {
	opts := &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	}
	if pageToken != "" {
		opts.Marker = &pageToken
	}

	pager := a.client.NewListBlobsFlatPager(a.containerName, opts)
	resp, err := pager.NextPage(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list blobs: %w", err)
	}

	var page Page
	if resp.Segment != nil {
		for _, item := range resp.Segment.BlobItems {
			if item.Name != nil {
				page.Keys = append(page.Keys, *item.Name)
			}
		}
	}
	if resp.NextMarker != nil && *resp.NextMarker != "" {
		page.NextPageToken = *resp.NextMarker
		page.Truncated = true
	}

	return page, nil
}
