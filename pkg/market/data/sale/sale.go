package sale

import (
	"time"

	"github.com/pkg/errors"
)

// Record captures one completed sale, reconstructed from the closure of a
// listing account and the marketplace counters advancing.
type Record struct {
	Id uint64

	Listing     string
	NftMint     string
	Seller      string
	Marketplace string

	Price uint64
	Fee   uint64

	Slot   uint64
	SoldAt time.Time
}

// VolumeBucket is one point of a bucketed sale volume time series.
type VolumeBucket struct {
	Date   time.Time
	Volume uint64
	Count  uint64
}

func (r *Record) Validate() error {
	if len(r.Listing) == 0 {
		return errors.New("listing address is required")
	}

	if len(r.NftMint) == 0 {
		return errors.New("nft mint is required")
	}

	if len(r.Seller) == 0 {
		return errors.New("seller is required")
	}

	if len(r.Marketplace) == 0 {
		return errors.New("marketplace is required")
	}

	if r.Price == 0 {
		return errors.New("price must be positive")
	}

	if r.Fee > r.Price {
		return errors.New("fee cannot exceed price")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Listing:     r.Listing,
		NftMint:     r.NftMint,
		Seller:      r.Seller,
		Marketplace: r.Marketplace,

		Price: r.Price,
		Fee:   r.Fee,

		Slot:   r.Slot,
		SoldAt: r.SoldAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Listing = r.Listing
	dst.NftMint = r.NftMint
	dst.Seller = r.Seller
	dst.Marketplace = r.Marketplace

	dst.Price = r.Price
	dst.Fee = r.Fee

	dst.Slot = r.Slot
	dst.SoldAt = r.SoldAt
}
