package sale

import (
	"context"

	"github.com/pkg/errors"

	"github.com/solmarket/marketplace-server/pkg/database/query"
)

var (
	ErrNotFound      = errors.New("sale record not found")
	ErrAlreadyExists = errors.New("sale record already exists")
)

type Store interface {
	// Put creates a sale record
	//
	// Returns ErrAlreadyExists if a record already exists for the listing.
	Put(ctx context.Context, record *Record) error

	// GetByListing finds the sale record for a given listing address
	//
	// Returns ErrNotFound if no record is found.
	GetByListing(ctx context.Context, address string) (*Record, error)

	// GetAllByMarketplace gets all sale records for a marketplace, paged
	//
	// Returns ErrNotFound if no records are found.
	GetAllByMarketplace(ctx context.Context, marketplace string, opts ...query.Option) ([]*Record, error)

	// GetBucketedVolume gets sale volume for a marketplace bucketed by the
	// provided interval. Buckets with no sales are omitted.
	GetBucketedVolume(ctx context.Context, marketplace string, interval query.Interval, opts ...query.Option) ([]*VolumeBucket, error)

	// Count counts all sale records
	Count(ctx context.Context) (uint64, error)
}
