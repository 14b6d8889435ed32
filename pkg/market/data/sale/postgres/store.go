package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/sale"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed sale.Store
func New(db *sql.DB) sale.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements sale.Store.Put
func (s *store) Put(ctx context.Context, record *sale.Record) error {
	obj, err := toModel(record)
	if err != nil {
		return err
	}

	err = obj.dbPut(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(obj)
	res.CopyTo(record)

	return nil
}

// GetByListing implements sale.Store.GetByListing
func (s *store) GetByListing(ctx context.Context, address string) (*sale.Record, error) {
	model, err := dbGetByListing(ctx, s.db, address)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAllByMarketplace implements sale.Store.GetAllByMarketplace
func (s *store) GetAllByMarketplace(ctx context.Context, marketplace string, opts ...query.Option) ([]*sale.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	models, err := dbGetAllByMarketplace(ctx, s.db, marketplace, req.Cursor, req.Limit, req.SortBy)
	if err != nil {
		return nil, err
	}

	var res []*sale.Record
	for _, model := range models {
		res = append(res, fromModel(model))
	}
	return res, nil
}

// GetBucketedVolume implements sale.Store.GetBucketedVolume
func (s *store) GetBucketedVolume(ctx context.Context, marketplace string, interval query.Interval, opts ...query.Option) ([]*sale.VolumeBucket, error) {
	req := query.QueryOptions{
		Supported: query.CanQueryByStartTime | query.CanQueryByEndTime,
	}
	if err := req.Apply(opts...); err != nil {
		return nil, err
	}

	models, err := dbGetBucketedVolume(ctx, s.db, marketplace, interval, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	res := make([]*sale.VolumeBucket, 0, len(models))
	for _, model := range models {
		res = append(res, &sale.VolumeBucket{
			Date:   model.Date,
			Volume: model.Volume,
			Count:  model.Count,
		})
	}
	return res, nil
}

// Count implements sale.Store.Count
func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbCount(ctx, s.db)
}
