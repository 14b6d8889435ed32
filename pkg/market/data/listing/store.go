package listing

import (
	"context"

	"github.com/pkg/errors"

	"github.com/solmarket/marketplace-server/pkg/database/query"
)

var (
	ErrNotFound      = errors.New("listing record not found")
	ErrAlreadyExists = errors.New("listing record already exists")
)

type Store interface {
	// Put creates a listing record
	//
	// Returns ErrAlreadyExists if a record already exists for the address.
	Put(ctx context.Context, record *Record) error

	// Update updates a listing record's mutable fields (state, closed
	// timestamp and last observed slot)
	//
	// Returns ErrNotFound if no record exists.
	Update(ctx context.Context, record *Record) error

	// GetByAddress finds the listing record for a given account address
	//
	// Returns ErrNotFound if no record is found.
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetAllByState gets all listing records in the provided state, paged
	//
	// Returns ErrNotFound if no records are found.
	GetAllByState(ctx context.Context, state State, opts ...query.Option) ([]*Record, error)

	// GetAllBySeller gets all listing records for a seller, paged
	//
	// Returns ErrNotFound if no records are found.
	GetAllBySeller(ctx context.Context, seller string, opts ...query.Option) ([]*Record, error)

	// CountByState counts all listing records in the provided state
	CountByState(ctx context.Context, state State) (uint64, error)
}
