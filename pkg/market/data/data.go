package data

import (
	"context"
	"database/sql"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	listing_memory_store "github.com/solmarket/marketplace-server/pkg/market/data/listing/memory"
	listing_postgres_store "github.com/solmarket/marketplace-server/pkg/market/data/listing/postgres"
	"github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
	marketplace_memory_store "github.com/solmarket/marketplace-server/pkg/market/data/marketplace/memory"
	marketplace_postgres_store "github.com/solmarket/marketplace-server/pkg/market/data/marketplace/postgres"
	"github.com/solmarket/marketplace-server/pkg/market/data/sale"
	sale_memory_store "github.com/solmarket/marketplace-server/pkg/market/data/sale/memory"
	sale_postgres_store "github.com/solmarket/marketplace-server/pkg/market/data/sale/postgres"
)

// Provider is the aggregated data access layer over all marketplace stores.
type Provider interface {
	// Listings
	PutListing(ctx context.Context, record *listing.Record) error
	UpdateListing(ctx context.Context, record *listing.Record) error
	GetListingByAddress(ctx context.Context, address string) (*listing.Record, error)
	GetAllListingsByState(ctx context.Context, state listing.State, opts ...query.Option) ([]*listing.Record, error)
	GetAllListingsBySeller(ctx context.Context, seller string, opts ...query.Option) ([]*listing.Record, error)
	CountListingsByState(ctx context.Context, state listing.State) (uint64, error)

	// Sales
	PutSale(ctx context.Context, record *sale.Record) error
	GetSaleByListing(ctx context.Context, address string) (*sale.Record, error)
	GetAllSalesByMarketplace(ctx context.Context, marketplace string, opts ...query.Option) ([]*sale.Record, error)
	GetBucketedSaleVolume(ctx context.Context, marketplace string, interval query.Interval, opts ...query.Option) ([]*sale.VolumeBucket, error)
	CountSales(ctx context.Context) (uint64, error)

	// Marketplaces
	SaveMarketplace(ctx context.Context, record *marketplace.Record) error
	GetMarketplace(ctx context.Context, address string) (*marketplace.Record, error)
	GetAllMarketplaces(ctx context.Context) ([]*marketplace.Record, error)
}

type provider struct {
	listings     listing.Store
	sales        sale.Store
	marketplaces marketplace.Store
}

// NewProvider returns a postgres-backed data provider.
func NewProvider(db *sql.DB) Provider {
	return &provider{
		listings:     listing_postgres_store.New(db),
		sales:        sale_postgres_store.New(db),
		marketplaces: marketplace_postgres_store.New(db),
	}
}

// NewTestProvider returns an in memory data provider for testing purposes.
func NewTestProvider() Provider {
	return &provider{
		listings:     listing_memory_store.New(),
		sales:        sale_memory_store.New(),
		marketplaces: marketplace_memory_store.New(),
	}
}

func (p *provider) PutListing(ctx context.Context, record *listing.Record) error {
	return p.listings.Put(ctx, record)
}

func (p *provider) UpdateListing(ctx context.Context, record *listing.Record) error {
	return p.listings.Update(ctx, record)
}

func (p *provider) GetListingByAddress(ctx context.Context, address string) (*listing.Record, error) {
	return p.listings.GetByAddress(ctx, address)
}

func (p *provider) GetAllListingsByState(ctx context.Context, state listing.State, opts ...query.Option) ([]*listing.Record, error) {
	return p.listings.GetAllByState(ctx, state, opts...)
}

func (p *provider) GetAllListingsBySeller(ctx context.Context, seller string, opts ...query.Option) ([]*listing.Record, error) {
	return p.listings.GetAllBySeller(ctx, seller, opts...)
}

func (p *provider) CountListingsByState(ctx context.Context, state listing.State) (uint64, error) {
	return p.listings.CountByState(ctx, state)
}

func (p *provider) PutSale(ctx context.Context, record *sale.Record) error {
	return p.sales.Put(ctx, record)
}

func (p *provider) GetSaleByListing(ctx context.Context, address string) (*sale.Record, error) {
	return p.sales.GetByListing(ctx, address)
}

func (p *provider) GetAllSalesByMarketplace(ctx context.Context, marketplace string, opts ...query.Option) ([]*sale.Record, error) {
	return p.sales.GetAllByMarketplace(ctx, marketplace, opts...)
}

func (p *provider) GetBucketedSaleVolume(ctx context.Context, marketplace string, interval query.Interval, opts ...query.Option) ([]*sale.VolumeBucket, error) {
	return p.sales.GetBucketedVolume(ctx, marketplace, interval, opts...)
}

func (p *provider) CountSales(ctx context.Context) (uint64, error) {
	return p.sales.Count(ctx)
}

func (p *provider) SaveMarketplace(ctx context.Context, record *marketplace.Record) error {
	return p.marketplaces.Save(ctx, record)
}

func (p *provider) GetMarketplace(ctx context.Context, address string) (*marketplace.Record, error) {
	return p.marketplaces.Get(ctx, address)
}

func (p *provider) GetAllMarketplaces(ctx context.Context) ([]*marketplace.Record, error) {
	return p.marketplaces.GetAll(ctx)
}
