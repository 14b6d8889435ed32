package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed marketplace.Store
func New(db *sql.DB) marketplace.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements marketplace.Store.Save
func (s *store) Save(ctx context.Context, record *marketplace.Record) error {
	obj, err := toModel(record)
	if err != nil {
		return err
	}

	err = obj.dbSave(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(obj)
	res.CopyTo(record)

	return nil
}

// Get implements marketplace.Store.Get
func (s *store) Get(ctx context.Context, address string) (*marketplace.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAll implements marketplace.Store.GetAll
func (s *store) GetAll(ctx context.Context) ([]*marketplace.Record, error) {
	models, err := dbGetAll(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var res []*marketplace.Record
	for _, model := range models {
		res = append(res, fromModel(model))
	}
	return res, nil
}
