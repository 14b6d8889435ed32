package listing

import (
	"time"

	"github.com/pkg/errors"

	"github.com/solmarket/marketplace-server/pkg/pointer"
)

type State uint8

const (
	StateUnknown   State = iota
	StateActive          // Listing account observed live on chain
	StateSold            // Listing account closed with a matching sale
	StateCancelled       // Listing account closed without a matching sale
)

type Record struct {
	Id uint64

	Address     string
	Seller      string
	NftMint     string
	Marketplace string

	Price uint64
	State State

	ListedAt time.Time
	ClosedAt *time.Time

	LastSlot uint64
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("listing address is required")
	}

	if len(r.Seller) == 0 {
		return errors.New("seller is required")
	}

	if len(r.NftMint) == 0 {
		return errors.New("nft mint is required")
	}

	if len(r.Marketplace) == 0 {
		return errors.New("marketplace is required")
	}

	if r.Price == 0 {
		return errors.New("price must be positive")
	}

	switch r.State {
	case StateActive:
		if r.ClosedAt != nil {
			return errors.New("closed timestamp cannot be set on an active listing")
		}
	case StateSold, StateCancelled:
		if r.ClosedAt == nil || r.ClosedAt.IsZero() {
			return errors.New("closed timestamp is required")
		}
	default:
		return errors.New("state is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Address:     r.Address,
		Seller:      r.Seller,
		NftMint:     r.NftMint,
		Marketplace: r.Marketplace,

		Price: r.Price,
		State: r.State,

		ListedAt: r.ListedAt,
		ClosedAt: pointer.TimeCopy(r.ClosedAt),

		LastSlot: r.LastSlot,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Seller = r.Seller
	dst.NftMint = r.NftMint
	dst.Marketplace = r.Marketplace

	dst.Price = r.Price
	dst.State = r.State

	dst.ListedAt = r.ListedAt
	dst.ClosedAt = pointer.TimeCopy(r.ClosedAt)

	dst.LastSlot = r.LastSlot
}

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSold:
		return "sold"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}
