package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/patrickmn/go-cache"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	"github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
	"github.com/solmarket/marketplace-server/pkg/market/data/sale"
)

const (
	maxPageSize     = 100
	defaultPageSize = 25
)

type listingResource struct {
	Address     string     `json:"address"`
	Seller      string     `json:"seller"`
	NftMint     string     `json:"nftMint"`
	Marketplace string     `json:"marketplace"`
	Price       uint64     `json:"price"`
	State       string     `json:"state"`
	ListedAt    time.Time  `json:"listedAt"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
}

type saleResource struct {
	Listing     string    `json:"listing"`
	NftMint     string    `json:"nftMint"`
	Seller      string    `json:"seller"`
	Marketplace string    `json:"marketplace"`
	Price       uint64    `json:"price"`
	Fee         uint64    `json:"fee"`
	SoldAt      time.Time `json:"soldAt"`
}

type marketplaceResource struct {
	Address        string `json:"address"`
	Authority      string `json:"authority"`
	FeeBasisPoints uint16 `json:"feeBasisPoints"`
	FeeRecipient   string `json:"feeRecipient"`
	TotalVolume    uint64 `json:"totalVolume"`
	TotalSales     uint64 `json:"totalSales"`
}

type volumeBucketResource struct {
	Date   time.Time `json:"date"`
	Volume uint64    `json:"volume"`
	Count  uint64    `json:"count"`
}

type pagedListings struct {
	Listings   []*listingResource `json:"listings"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

type pagedSales struct {
	Sales      []*saleResource `json:"sales"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

type statsResource struct {
	Marketplaces   uint64                  `json:"marketplaces"`
	ActiveListings uint64                  `json:"activeListings"`
	TotalSales     uint64                  `json:"totalSales"`
	TotalVolume    uint64                  `json:"totalVolume"`
	VolumeHistory  []*volumeBucketResource `json:"volumeHistory,omitempty"`
}

func (s *Server) handleGetMarketplaces(w http.ResponseWriter, r *http.Request) {
	records, err := s.data.GetAllMarketplaces(r.Context())
	if err == marketplace.ErrNotFound {
		writeJson(w, http.StatusOK, []*marketplaceResource{})
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to load marketplaces")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	res := make([]*marketplaceResource, 0, len(records))
	for _, record := range records {
		res = append(res, toMarketplaceResource(record))
	}
	writeJson(w, http.StatusOK, res)
}

func (s *Server) handleGetMarketplace(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	record, err := s.data.GetMarketplace(r.Context(), address)
	if err == marketplace.ErrNotFound {
		writeError(w, http.StatusNotFound, "marketplace not found")
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to load marketplace")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJson(w, http.StatusOK, toMarketplaceResource(record))
}

func (s *Server) handleGetListings(w http.ResponseWriter, r *http.Request) {
	opts, err := pagingOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var records []*listing.Record
	if seller := r.URL.Query().Get("seller"); len(seller) > 0 {
		records, err = s.data.GetAllListingsBySeller(r.Context(), seller, opts...)
	} else {
		state, parseErr := listingState(r.URL.Query().Get("state"))
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		records, err = s.data.GetAllListingsByState(r.Context(), state, opts...)
	}

	if err == listing.ErrNotFound {
		writeJson(w, http.StatusOK, &pagedListings{Listings: []*listingResource{}})
		return
	} else if err == query.ErrQueryNotSupported {
		writeError(w, http.StatusBadRequest, "unsupported query options")
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to load listings")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	res := &pagedListings{
		Listings:   make([]*listingResource, 0, len(records)),
		NextCursor: query.ToCursor(records[len(records)-1].Id).ToBase58(),
	}
	for _, record := range records {
		res.Listings = append(res.Listings, toListingResource(record))
	}
	writeJson(w, http.StatusOK, res)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	record, err := s.data.GetListingByAddress(r.Context(), address)
	if err == listing.ErrNotFound {
		writeError(w, http.StatusNotFound, "listing not found")
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to load listing")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJson(w, http.StatusOK, toListingResource(record))
}

func (s *Server) handleGetSales(w http.ResponseWriter, r *http.Request) {
	marketplaceAddress := r.URL.Query().Get("marketplace")
	if len(marketplaceAddress) == 0 {
		writeError(w, http.StatusBadRequest, "marketplace parameter is required")
		return
	}

	opts, err := pagingOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.data.GetAllSalesByMarketplace(r.Context(), marketplaceAddress, opts...)
	if err == sale.ErrNotFound {
		writeJson(w, http.StatusOK, &pagedSales{Sales: []*saleResource{}})
		return
	} else if err == query.ErrQueryNotSupported {
		writeError(w, http.StatusBadRequest, "unsupported query options")
		return
	} else if err != nil {
		s.log.WithError(err).Warn("failed to load sales")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	res := &pagedSales{
		Sales:      make([]*saleResource, 0, len(records)),
		NextCursor: query.ToCursor(records[len(records)-1].Id).ToBase58(),
	}
	for _, record := range records {
		res.Sales = append(res.Sales, toSaleResource(record))
	}
	writeJson(w, http.StatusOK, res)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	marketplaceAddress := r.URL.Query().Get("marketplace")
	interval := query.ToIntervalWithFallback(r.URL.Query().Get("interval"), query.IntervalDay)

	cacheKey := fmt.Sprintf("stats:%s:%d", marketplaceAddress, interval)
	if cached, ok := s.cache.Get(cacheKey); ok {
		writeJson(w, http.StatusOK, cached.(*statsResource))
		return
	}

	res, err := s.loadStats(r, marketplaceAddress, interval)
	if err != nil {
		s.log.WithError(err).Warn("failed to load stats")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.cache.Set(cacheKey, res, cache.DefaultExpiration)
	writeJson(w, http.StatusOK, res)
}

func (s *Server) loadStats(r *http.Request, marketplaceAddress string, interval query.Interval) (*statsResource, error) {
	ctx := r.Context()
	res := &statsResource{}

	if len(marketplaceAddress) > 0 {
		record, err := s.data.GetMarketplace(ctx, marketplaceAddress)
		if err == nil {
			res.Marketplaces = 1
			res.TotalVolume = record.TotalVolume
			res.TotalSales = record.TotalSales
		} else if err != marketplace.ErrNotFound {
			return nil, err
		}

		buckets, err := s.data.GetBucketedSaleVolume(ctx, marketplaceAddress, interval)
		if err != nil {
			return nil, err
		}
		for _, bucket := range buckets {
			res.VolumeHistory = append(res.VolumeHistory, &volumeBucketResource{
				Date:   bucket.Date,
				Volume: bucket.Volume,
				Count:  bucket.Count,
			})
		}
	} else {
		records, err := s.data.GetAllMarketplaces(ctx)
		if err != nil && err != marketplace.ErrNotFound {
			return nil, err
		}
		for _, record := range records {
			res.Marketplaces++
			res.TotalVolume += record.TotalVolume
			res.TotalSales += record.TotalSales
		}
	}

	activeListings, err := s.data.CountListingsByState(ctx, listing.StateActive)
	if err != nil {
		return nil, err
	}
	res.ActiveListings = activeListings

	return res, nil
}

func pagingOptions(r *http.Request) ([]query.Option, error) {
	limit := uint64(defaultPageSize)
	if raw := r.URL.Query().Get("limit"); len(raw) > 0 {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 || parsed > maxPageSize {
			return nil, fmt.Errorf("limit must be between 1 and %d", maxPageSize)
		}
		limit = parsed
	}

	opts := []query.Option{
		query.WithLimit(limit),
		query.WithDirection(query.ToOrderingWithFallback(r.URL.Query().Get("direction"), query.Ascending)),
	}

	if raw := r.URL.Query().Get("cursor"); len(raw) > 0 {
		decoded, err := base58.Decode(raw)
		if err != nil || len(decoded) != 8 {
			return nil, fmt.Errorf("invalid cursor")
		}
		opts = append(opts, query.WithCursor(decoded))
	}

	return opts, nil
}

func listingState(raw string) (listing.State, error) {
	switch raw {
	case "", "active":
		return listing.StateActive, nil
	case "sold":
		return listing.StateSold, nil
	case "cancelled":
		return listing.StateCancelled, nil
	default:
		return listing.StateUnknown, fmt.Errorf("unknown listing state: %s", raw)
	}
}

func toListingResource(record *listing.Record) *listingResource {
	return &listingResource{
		Address:     record.Address,
		Seller:      record.Seller,
		NftMint:     record.NftMint,
		Marketplace: record.Marketplace,
		Price:       record.Price,
		State:       record.State.String(),
		ListedAt:    record.ListedAt,
		ClosedAt:    record.ClosedAt,
	}
}

func toSaleResource(record *sale.Record) *saleResource {
	return &saleResource{
		Listing:     record.Listing,
		NftMint:     record.NftMint,
		Seller:      record.Seller,
		Marketplace: record.Marketplace,
		Price:       record.Price,
		Fee:         record.Fee,
		SoldAt:      record.SoldAt,
	}
}

func toMarketplaceResource(record *marketplace.Record) *marketplaceResource {
	return &marketplaceResource{
		Address:        record.Address,
		Authority:      record.Authority,
		FeeBasisPoints: record.FeeBasisPoints,
		FeeRecipient:   record.FeeRecipient,
		TotalVolume:    record.TotalVolume,
		TotalSales:     record.TotalSales,
	}
}
