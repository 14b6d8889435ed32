package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/solmarket/marketplace-server/pkg/database/postgres"
	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/sale"
)

const (
	tableName = "solmarket__core_sale"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Listing     string `db:"listing"`
	NftMint     string `db:"nft_mint"`
	Seller      string `db:"seller"`
	Marketplace string `db:"marketplace"`

	Price uint64 `db:"price"`
	Fee   uint64 `db:"fee"`

	Slot   uint64    `db:"slot"`
	SoldAt time.Time `db:"sold_at"`
}

type bucketModel struct {
	Date   time.Time `db:"date"`
	Volume uint64    `db:"volume"`
	Count  uint64    `db:"count"`
}

func toModel(obj *sale.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Listing:     obj.Listing,
		NftMint:     obj.NftMint,
		Seller:      obj.Seller,
		Marketplace: obj.Marketplace,

		Price: obj.Price,
		Fee:   obj.Fee,

		Slot:   obj.Slot,
		SoldAt: obj.SoldAt,
	}, nil
}

func fromModel(obj *model) *sale.Record {
	return &sale.Record{
		Id: uint64(obj.Id.Int64),

		Listing:     obj.Listing,
		NftMint:     obj.NftMint,
		Seller:      obj.Seller,
		Marketplace: obj.Marketplace,

		Price: obj.Price,
		Fee:   obj.Fee,

		Slot:   obj.Slot,
		SoldAt: obj.SoldAt,
	}
}

const allFields = `id, listing, nft_mint, seller, marketplace, price, fee, slot, sold_at`

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(listing, nft_mint, seller, marketplace, price, fee, slot, sold_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING ` + allFields + `
		`

		if m.SoldAt.IsZero() {
			m.SoldAt = time.Now()
		}

		return tx.QueryRowxContext(
			ctx,
			query,
			m.Listing,
			m.NftMint,
			m.Seller,
			m.Marketplace,
			m.Price,
			m.Fee,
			m.Slot,
			m.SoldAt,
		).StructScan(m)
	})
	return pgutil.CheckUniqueViolation(err, sale.ErrAlreadyExists)
}

func dbGetByListing(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model
	query := `SELECT ` + allFields + ` FROM ` + tableName + `
		WHERE listing = $1
	`

	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, sale.ErrNotFound)
	}
	return &res, nil
}

func dbGetAllByMarketplace(ctx context.Context, db *sqlx.DB, marketplace string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*model, error) {
	res := []*model{}

	base := `SELECT ` + allFields + ` FROM ` + tableName + `
		WHERE (marketplace = $1)
	`
	paged, opts := query.PaginateQuery(base, []interface{}{marketplace}, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, paged, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, sale.ErrNotFound)
	} else if len(res) == 0 {
		return nil, sale.ErrNotFound
	}
	return res, nil
}

func dbGetBucketedVolume(ctx context.Context, db *sqlx.DB, marketplace string, interval query.Interval, start, end time.Time) ([]*bucketModel, error) {
	var truncateTo string
	switch interval {
	case query.IntervalHour:
		truncateTo = "hour"
	case query.IntervalDay:
		truncateTo = "day"
	case query.IntervalWeek:
		truncateTo = "week"
	case query.IntervalMonth:
		truncateTo = "month"
	default:
		return nil, query.ErrQueryNotSupported
	}

	res := []*bucketModel{}

	q := `SELECT
			DATE_TRUNC('` + truncateTo + `', sold_at) AS date,
			SUM(price)::bigint AS volume,
			COUNT(*) AS count
		FROM ` + tableName + `
		WHERE marketplace = $1 AND sold_at >= $2 AND sold_at < $3
		GROUP BY date
		ORDER BY date ASC
	`

	if end.IsZero() {
		end = time.Now().Add(24 * time.Hour)
	}

	err := db.SelectContext(ctx, &res, q, marketplace, start, end)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var res uint64
	query := `SELECT COUNT(*) FROM ` + tableName

	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}
	return res, nil
}
