package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend.Get when no object exists at the key
var ErrNotFound = errors.New("object not found")

// Page is one listing response from a backend
type Page struct {
	Keys []string
	// Truncated reports that the backend has more keys under the prefix
	Truncated bool
	// NextPageToken continues the listing; it may be empty on a truncated
	// page when the backend failed to supply one
	NextPageToken string
}

// Backend defines the object storage operations the document store relies on
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	ListPage(ctx context.Context, prefix, pageToken string) (Page, error)
}
