package storage

import (
	"context"
	"fmt"
)

// Backend kinds accepted by Open
const (
	KindS3    = "s3"
	KindAzure = "azure"
	KindURL   = "url"
)

// Options selects and configures a backend
type Options struct {
	Kind   string
	Bucket string

	// S3
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	// Azure; Bucket is the container name
	AzureAccount    string
	AzureAccountKey string

	// Go CDK bucket URL
	URL string
}

// Open constructs the backend described by opts
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Kind {
	case KindS3, "":
		return NewS3Backend(S3Config{
			Bucket:          opts.Bucket,
			Region:          opts.Region,
			Endpoint:        opts.Endpoint,
			AccessKeyID:     opts.AccessKeyID,
			SecretAccessKey: opts.SecretAccessKey,
		})
	case KindAzure:
		return NewAzureBackend(ctx, opts.AzureAccount, opts.AzureAccountKey, opts.Bucket)
	case KindURL:
		return OpenBucketBackend(ctx, opts.URL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Kind)
	}
}
