package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/solmarket/marketplace-server/pkg/database/postgres"
	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	"github.com/solmarket/marketplace-server/pkg/pointer"
)

const (
	tableName = "solmarket__core_listing"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address     string `db:"address"`
	Seller      string `db:"seller"`
	NftMint     string `db:"nft_mint"`
	Marketplace string `db:"marketplace"`

	Price uint64 `db:"price"`
	State uint8  `db:"state"`

	ListedAt time.Time    `db:"listed_at"`
	ClosedAt sql.NullTime `db:"closed_at"`

	LastSlot uint64 `db:"last_slot"`
}

func toModel(obj *listing.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address:     obj.Address,
		Seller:      obj.Seller,
		NftMint:     obj.NftMint,
		Marketplace: obj.Marketplace,

		Price: obj.Price,
		State: uint8(obj.State),

		ListedAt: obj.ListedAt,
		ClosedAt: sql.NullTime{
			Valid: obj.ClosedAt != nil,
			Time:  *pointer.TimeOrDefault(obj.ClosedAt, time.Time{}),
		},

		LastSlot: obj.LastSlot,
	}, nil
}

func fromModel(obj *model) *listing.Record {
	return &listing.Record{
		Id: uint64(obj.Id.Int64),

		Address:     obj.Address,
		Seller:      obj.Seller,
		NftMint:     obj.NftMint,
		Marketplace: obj.Marketplace,

		Price: obj.Price,
		State: listing.State(obj.State),

		ListedAt: obj.ListedAt,
		ClosedAt: pointer.TimeIfValid(obj.ClosedAt.Valid, obj.ClosedAt.Time),

		LastSlot: obj.LastSlot,
	}
}

const allFields = `id, address, seller, nft_mint, marketplace, price, state, listed_at, closed_at, last_slot`

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, seller, nft_mint, marketplace, price, state, listed_at, closed_at, last_slot)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING ` + allFields + `
		`

		if m.ListedAt.IsZero() {
			m.ListedAt = time.Now()
		}

		return tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Seller,
			m.NftMint,
			m.Marketplace,
			m.Price,
			m.State,
			m.ListedAt,
			m.ClosedAt,
			m.LastSlot,
		).StructScan(m)
	})
	return pgutil.CheckUniqueViolation(err, listing.ErrAlreadyExists)
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET state = $2, closed_at = $3, last_slot = $4
			WHERE address = $1
			RETURNING ` + allFields + `
		`

		return tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.State,
			m.ClosedAt,
			m.LastSlot,
		).StructScan(m)
	})
	return pgutil.CheckNoRows(err, listing.ErrNotFound)
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model
	query := `SELECT ` + allFields + ` FROM ` + tableName + `
		WHERE address = $1
	`

	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, listing.ErrNotFound)
	}
	return &res, nil
}

func dbGetAllByState(ctx context.Context, db *sqlx.DB, state listing.State, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*model, error) {
	res := []*model{}

	base := `SELECT ` + allFields + ` FROM ` + tableName + `
		WHERE (state = $1)
	`
	paged, opts := query.PaginateQuery(base, []interface{}{state}, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, paged, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, listing.ErrNotFound)
	} else if len(res) == 0 {
		return nil, listing.ErrNotFound
	}
	return res, nil
}

func dbGetAllBySeller(ctx context.Context, db *sqlx.DB, seller string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*model, error) {
	res := []*model{}

	base := `SELECT ` + allFields + ` FROM ` + tableName + `
		WHERE (seller = $1)
	`
	paged, opts := query.PaginateQuery(base, []interface{}{seller}, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, paged, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, listing.ErrNotFound)
	} else if len(res) == 0 {
		return nil, listing.ErrNotFound
	}
	return res, nil
}

func dbCountByState(ctx context.Context, db *sqlx.DB, state listing.State) (uint64, error) {
	var res uint64
	query := `SELECT COUNT(*) FROM ` + tableName + `
		WHERE state = $1
	`

	err := db.GetContext(ctx, &res, query, state)
	if err != nil {
		return 0, err
	}
	return res, nil
}
