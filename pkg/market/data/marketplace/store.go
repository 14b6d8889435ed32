package marketplace

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("marketplace record not found")

	// ErrStaleState is returned when saving a record older than the one
	// already stored.
	ErrStaleState = errors.New("marketplace state is stale")
)

type Store interface {
	// Save creates or updates a marketplace record. Saves are rejected with
	// ErrStaleState if the stored record was observed at a later slot.
	Save(ctx context.Context, record *Record) error

	// Get finds the marketplace record for a given account address
	//
	// Returns ErrNotFound if no record is found.
	Get(ctx context.Context, address string) (*Record, error)

	// GetAll gets all marketplace records
	//
	// Returns ErrNotFound if no records are found.
	GetAll(ctx context.Context) ([]*Record, error)
}
