package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/solmarket/marketplace-server/pkg/database/postgres"
	"github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
)

const (
	tableName = "solmarket__core_marketplace"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address   string `db:"address"`
	Authority string `db:"authority"`

	FeeBasisPoints uint16 `db:"fee_basis_points"`
	FeeRecipient   string `db:"fee_recipient"`

	TotalVolume uint64 `db:"total_volume"`
	TotalSales  uint64 `db:"total_sales"`

	LastSlot  uint64    `db:"last_slot"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toModel(obj *marketplace.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address:   obj.Address,
		Authority: obj.Authority,

		FeeBasisPoints: obj.FeeBasisPoints,
		FeeRecipient:   obj.FeeRecipient,

		TotalVolume: obj.TotalVolume,
		TotalSales:  obj.TotalSales,

		LastSlot:  obj.LastSlot,
		UpdatedAt: obj.UpdatedAt,
	}, nil
}

func fromModel(obj *model) *marketplace.Record {
	return &marketplace.Record{
		Id: uint64(obj.Id.Int64),

		Address:   obj.Address,
		Authority: obj.Authority,

		FeeBasisPoints: obj.FeeBasisPoints,
		FeeRecipient:   obj.FeeRecipient,

		TotalVolume: obj.TotalVolume,
		TotalSales:  obj.TotalSales,

		LastSlot:  obj.LastSlot,
		UpdatedAt: obj.UpdatedAt,
	}
}

const allFields = `id, address, authority, fee_basis_points, fee_recipient, total_volume, total_sales, last_slot, updated_at`

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, authority, fee_basis_points, fee_recipient, total_volume, total_sales, last_slot, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (address)
			DO UPDATE
				SET fee_basis_points = $3, fee_recipient = $4, total_volume = $5, total_sales = $6, last_slot = $7, updated_at = $8
				WHERE ` + tableName + `.last_slot <= $7
			RETURNING ` + allFields + `
		`

		m.UpdatedAt = time.Now()

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Authority,
			m.FeeBasisPoints,
			m.FeeRecipient,
			m.TotalVolume,
			m.TotalSales,
			m.LastSlot,
			m.UpdatedAt,
		).StructScan(m)

		// The conditional update matched nothing, so the stored record is
		// from a later slot.
		return pgutil.CheckNoRows(err, marketplace.ErrStaleState)
	})
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model
	query := `SELECT ` + allFields + ` FROM ` + tableName + `
		WHERE address = $1
	`

	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, marketplace.ErrNotFound)
	}
	return &res, nil
}

func dbGetAll(ctx context.Context, db *sqlx.DB) ([]*model, error) {
	res := []*model{}
	query := `SELECT ` + allFields + ` FROM ` + tableName + `
		ORDER BY id ASC
	`

	err := db.SelectContext(ctx, &res, query)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, marketplace.ErrNotFound)
	} else if len(res) == 0 {
		return nil, marketplace.ErrNotFound
	}
	return res, nil
}
