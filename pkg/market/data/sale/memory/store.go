package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/sale"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*sale.Record
}

// New returns a new in memory sale.Store
func New() sale.Store {
	return &store{}
}

// Put implements sale.Store.Put
func (s *store) Put(_ context.Context, data *sale.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	if item := s.findByListing(data.Listing); item != nil {
		return sale.ErrAlreadyExists
	}

	if data.Id == 0 {
		data.Id = s.last
	}
	if data.SoldAt.IsZero() {
		data.SoldAt = time.Now()
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// GetByListing implements sale.Store.GetByListing
func (s *store) GetByListing(_ context.Context, address string) (*sale.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByListing(address)
	if item == nil {
		return nil, sale.ErrNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByMarketplace implements sale.Store.GetAllByMarketplace
func (s *store) GetAllByMarketplace(_ context.Context, marketplace string, opts ...query.Option) ([]*sale.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*sale.Record
	for _, item := range s.records {
		if item.Marketplace == marketplace {
			items = append(items, item)
		}
	}

	items = paginate(items, req)
	if len(items) == 0 {
		return nil, sale.ErrNotFound
	}

	var res []*sale.Record
	for _, item := range items {
		cloned := item.Clone()
		res = append(res, &cloned)
	}
	return res, nil
}

// GetBucketedVolume implements sale.Store.GetBucketedVolume
func (s *store) GetBucketedVolume(_ context.Context, marketplace string, interval query.Interval, opts ...query.Option) ([]*sale.VolumeBucket, error) {
	if interval == query.IntervalRaw {
		return nil, query.ErrQueryNotSupported
	}

	req := query.QueryOptions{
		Supported: query.CanQueryByStartTime | query.CanQueryByEndTime,
	}
	if err := req.Apply(opts...); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buckets := make(map[time.Time]*sale.VolumeBucket)
	for _, item := range s.records {
		if item.Marketplace != marketplace {
			continue
		}
		if !req.Start.IsZero() && item.SoldAt.Before(req.Start) {
			continue
		}
		if !req.End.IsZero() && !item.SoldAt.Before(req.End) {
			continue
		}

		date := truncate(item.SoldAt, interval)
		bucket, ok := buckets[date]
		if !ok {
			bucket = &sale.VolumeBucket{Date: date}
			buckets[date] = bucket
		}
		bucket.Volume += item.Price
		bucket.Count++
	}

	res := make([]*sale.VolumeBucket, 0, len(buckets))
	for _, bucket := range buckets {
		res = append(res, bucket)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Date.Before(res[j].Date)
	})
	return res, nil
}

// Count implements sale.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.records)), nil
}

func (s *store) findByListing(address string) *sale.Record {
	for _, item := range s.records {
		if item.Listing == address {
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

func truncate(ts time.Time, interval query.Interval) time.Time {
	ts = ts.UTC()
	switch interval {
	case query.IntervalHour:
		return ts.Truncate(time.Hour)
	case query.IntervalWeek:
		// Align to the ISO week start (Monday)
		day := ts.Truncate(24 * time.Hour)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case query.IntervalMonth:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return ts.Truncate(24 * time.Hour)
	}
}

func paginate(items []*sale.Record, req *query.QueryOptions) []*sale.Record {
	res := make([]*sale.Record, len(items))
	copy(res, items)

	sort.Slice(res, func(i, j int) bool {
		if req.SortBy == query.Ascending {
			return res[i].Id < res[j].Id
		}
		return res[i].Id > res[j].Id
	})

	if len(req.Cursor) > 0 {
		cursor := req.Cursor.ToUint64()
		var filtered []*sale.Record
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
