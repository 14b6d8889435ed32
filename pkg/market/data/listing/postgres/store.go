package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed listing.Store
func New(db *sql.DB) listing.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements listing.Store.Put
func (s *store) Put(ctx context.Context, record *listing.Record) error {
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

// Update implements listing.Store.Update
func (s *store) Update(ctx context.Context, record *listing.Record) error {
	obj, err := toModel(record)
	if err != nil {
		return err
	}

	err = obj.dbUpdate(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(obj)
	res.CopyTo(record)

	return nil
}

// GetByAddress implements listing.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*listing.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAllByState implements listing.Store.GetAllByState
func (s *store) GetAllByState(ctx context.Context, state listing.State, opts ...query.Option) ([]*listing.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	models, err := dbGetAllByState(ctx, s.db, state, req.Cursor, req.Limit, req.SortBy)
	if err != nil {
		return nil, err
	}

	return fromModels(models), nil
}

// GetAllBySeller implements listing.Store.GetAllBySeller
func (s *store) GetAllBySeller(ctx context.Context, seller string, opts ...query.Option) ([]*listing.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	models, err := dbGetAllBySeller(ctx, s.db, seller, req.Cursor, req.Limit, req.SortBy)
	if err != nil {
		return nil, err
	}

	return fromModels(models), nil
}

// CountByState implements listing.Store.CountByState
func (s *store) CountByState(ctx context.Context, state listing.State) (uint64, error) {
	return dbCountByState(ctx, s.db, state)
}

func fromModels(models []*model) []*listing.Record {
	var res []*listing.Record
	for _, model := range models {
		res = append(res, fromModel(model))
	}
	return res
}
