package collector

import (
	"context"

	"github.com/nook/nook/internal/models"
)

// Collector gathers the items that make up one service's daily document
type Collector interface {
	// Name is the service name used in document keys
	Name() string
	Enabled() bool
	Collect(ctx context.Context) ([]models.Item, error)
}

const userAgent = "nook/1.0"
