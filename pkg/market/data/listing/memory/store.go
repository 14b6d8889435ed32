package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	"github.com/solmarket/marketplace-server/pkg/pointer"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*listing.Record
}

// New returns a new in memory listing.Store
func New() listing.Store {
	return &store{}
}

// Put implements listing.Store.Put
func (s *store) Put(_ context.Context, data *listing.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	if item := s.findByAddress(data.Address); item != nil {
		return listing.ErrAlreadyExists
	}

	if data.Id == 0 {
		data.Id = s.last
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Update implements listing.Store.Update
func (s *store) Update(_ context.Context, data *listing.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(data.Address)
	if item == nil {
		return listing.ErrNotFound
	}

	item.State = data.State
	item.ClosedAt = pointer.TimeCopy(data.ClosedAt)
	item.LastSlot = data.LastSlot

	item.CopyTo(data)

	return nil
}

// GetByAddress implements listing.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*listing.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(address)
	if item == nil {
		return nil, listing.ErrNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByState implements listing.Store.GetAllByState
func (s *store) GetAllByState(_ context.Context, state listing.State, opts ...query.Option) ([]*listing.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findFn(func(item *listing.Record) bool {
		return item.State == state
	})
	items = paginate(items, req)
	if len(items) == 0 {
		return nil, listing.ErrNotFound
	}
	return cloneSlice(items), nil
}

// GetAllBySeller implements listing.Store.GetAllBySeller
func (s *store) GetAllBySeller(_ context.Context, seller string, opts ...query.Option) ([]*listing.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findFn(func(item *listing.Record) bool {
		return item.Seller == seller
	})
	items = paginate(items, req)
	if len(items) == 0 {
		return nil, listing.ErrNotFound
	}
	return cloneSlice(items), nil
}

// CountByState implements listing.Store.CountByState
func (s *store) CountByState(_ context.Context, state listing.State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findFn(func(item *listing.Record) bool {
		return item.State == state
	})
	return uint64(len(items)), nil
}

func (s *store) findByAddress(address string) *listing.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}

	return nil
}

func (s *store) findFn(fn func(*listing.Record) bool) []*listing.Record {
	var res []*listing.Record

	for _, item := range s.records {
		if fn(item) {
			res = append(res, item)
		}
	}

	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	s.records = nil
}

func paginate(items []*listing.Record, req *query.QueryOptions) []*listing.Record {
	res := make([]*listing.Record, len(items))
	copy(res, items)

	sort.Slice(res, func(i, j int) bool {
		if req.SortBy == query.Ascending {
			return res[i].Id < res[j].Id
		}
		return res[i].Id > res[j].Id
	})

	if len(req.Cursor) > 0 {
		cursor := req.Cursor.ToUint64()
		var filtered []*listing.Record
		for _, item := range res {
			if req.SortBy == query.Ascending && item.Id > cursor {
				filtered = append(filtered, item)
			} else if req.SortBy == query.Descending && item.Id < cursor {
				filtered = append(filtered, item)
			}
		}
		res = filtered
	}

	if req.Limit > 0 && uint64(len(res)) > req.Limit {
		res = res[:req.Limit]
	}

	return res
}

func cloneSlice(items []*listing.Record) []*listing.Record {
	var res []*listing.Record
	for _, item := range items {
		cloned := item.Clone()
		res = append(res, &cloned)
	}
	return res
}
