package marketplace

import (
	"time"

	"github.com/pkg/errors"
)

// Record mirrors the on-chain state of one marketplace instance, refreshed
// every time the indexer observes the account.
type Record struct {
	Id uint64

	Address   string
	Authority string

	FeeBasisPoints uint16
	FeeRecipient   string

	TotalVolume uint64
	TotalSales  uint64

	LastSlot  uint64
	UpdatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("marketplace address is required")
	}

	if len(r.Authority) == 0 {
		return errors.New("authority is required")
	}

	if len(r.FeeRecipient) == 0 {
		return errors.New("fee recipient is required")
	}

	if r.FeeBasisPoints > 1000 {
		return errors.New("fee basis points exceeds maximum")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Address:   r.Address,
		Authority: r.Authority,

		FeeBasisPoints: r.FeeBasisPoints,
		FeeRecipient:   r.FeeRecipient,

		TotalVolume: r.TotalVolume,
		TotalSales:  r.TotalSales,

		LastSlot:  r.LastSlot,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Authority = r.Authority

	dst.FeeBasisPoints = r.FeeBasisPoints
	dst.FeeRecipient = r.FeeRecipient

	dst.TotalVolume = r.TotalVolume
	dst.TotalSales = r.TotalSales

	dst.LastSlot = r.LastSlot
	dst.UpdatedAt = r.UpdatedAt
}
