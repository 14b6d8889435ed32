package memory

import (
	"context"
	"sync"
	"time"

	"github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*marketplace.Record
}

// New returns a new in memory marketplace.Store
func New() marketplace.Store {
	return &store{}
}

// Save implements marketplace.Store.Save
func (s *store) Save(_ context.Context, data *marketplace.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	if item := s.findByAddress(data.Address); item != nil {
		if item.LastSlot > data.LastSlot {
			return marketplace.ErrStaleState
		}

		item.FeeBasisPoints = data.FeeBasisPoints
		item.FeeRecipient = data.FeeRecipient
		item.TotalVolume = data.TotalVolume
		item.TotalSales = data.TotalSales
		item.LastSlot = data.LastSlot
		item.UpdatedAt = time.Now()

		item.CopyTo(data)
		return nil
	}

	if data.Id == 0 {
		data.Id = s.last
	}
	data.UpdatedAt = time.Now()

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Get implements marketplace.Store.Get
func (s *store) Get(_ context.Context, address string) (*marketplace.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(address)
	if item == nil {
		return nil, marketplace.ErrNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAll implements marketplace.Store.GetAll
func (s *store) GetAll(_ context.Context) ([]*marketplace.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return nil, marketplace.ErrNotFound
	}

	var res []*marketplace.Record
	for _, item := range s.records {
		cloned := item.Clone()
		res = append(res, &cloned)
	}
	return res, nil
}

func (s *store) findByAddress(address string) *marketplace.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}

	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	s.records = nil
}
