package storage

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

const listPageSize = 1000

// BucketBackend stores documents in a Go CDK bucket, opened by URL
// (mem://, file:///path/to/dir).
type BucketBackend struct {
	bucket *blob.Bucket
}

// Ensure BucketBackend implements Backend
var _ Backend = (*BucketBackend)(nil)

// OpenBucketBackend opens the bucket identified by url
func OpenBucketBackend(ctx context.Context, url string) (*BucketBackend, error) {
	if url == "" {
		return nil, fmt.Errorf("bucket URL is required")
	}

	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", url, err)
	}

	return NewBucketBackend(bucket), nil
}

// NewBucketBackend wraps an already opened bucket
func NewBucketBackend(bucket *blob.Bucket) *BucketBackend {
	return &BucketBackend{bucket: bucket}
}

func (b *BucketBackend) Put(ctx context.Context, key string, data []byte, contentType string) error {
	err := b.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}

func (b *BucketBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return data, nil
}

func (b *BucketBackend) ListPage(ctx context.Context, prefix, pageToken string) (Page, error) {
	token := blob.FirstPageToken
	if pageToken != "" {
		token = []byte(pageToken)
	}

	objects, next, err := b.bucket.ListPage(ctx, token, listPageSize, &blob.ListOptions{
		Prefix: prefix,
	})
	if err != nil {
		return Page{}, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	var page Page
	for _, obj := range objects {
		if obj.IsDir {
			continue
		}
		page.Keys = append(page.Keys, obj.Key)
	}
	page.NextPageToken = string(next)
	page.Truncated = len(next) > 0

	return page, nil
}

// Close releases the underlying bucket
func (b *BucketBackend) Close() error {
	return b.bucket.Close()
}
