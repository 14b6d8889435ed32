package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	market_data "github.com/solmarket/marketplace-server/pkg/market/data"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	"github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
	"github.com/solmarket/marketplace-server/pkg/market/data/sale"
)

type testEnv struct {
	data   market_data.Provider
	server *httptest.Server
}

func setup(t *testing.T) (*testEnv, func()) {
	data := market_data.NewTestProvider()
	httpServer := httptest.NewServer(NewServer(data).Router())

	env := &testEnv{
		data:   data,
		server: httpServer,
	}
	return env, httpServer.Close
}

func (e *testEnv) get(t *testing.T, path string, out interface{}) int {
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) seedListings(t *testing.T, count int) {
	for i := 0; i < count; i++ {
		require.NoError(t, e.data.PutListing(context.Background(), &listing.Record{
			Address:     fmt.Sprintf("listing%d", i),
			Seller:      "seller",
			NftMint:     fmt.Sprintf("mint%d", i),
			Marketplace: "marketplace",
			Price:       uint64(i+1) * 1_000_000_000,
			State:       listing.StateActive,
			ListedAt:    time.Now(),
			LastSlot:    uint64(i),
		}))
	}
}

func TestServer_Health(t *testing.T) {
	env, cleanup := setup(t)
	defer cleanup()

	var body map[string]string
	status := env.get(t, "/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_GetListings(t *testing.T) {
	env, cleanup := setup(t)
	defer cleanup()

	var page pagedListings
	status := env.get(t, "/v1/listings", &page)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, page.Listings)

	env.seedListings(t, 3)

	status = env.get(t, "/v1/listings", &page)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, page.Listings, 3)
	assert.Equal(t, "listing0", page.Listings[0].Address)
	assert.Equal(t, "active", page.Listings[0].State)

	// Paging
	status = env.get(t, "/v1/listings?limit=2", &page)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, page.Listings, 2)
	require.NotEmpty(t, page.NextCursor)

	status = env.get(t, "/v1/listings?limit=2&cursor="+page.NextCursor, &page)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, page.Listings, 1)
	assert.Equal(t, "listing2", page.Listings[0].Address)

	// Filters
	status = env.get(t, "/v1/listings?state=sold", &page)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, page.Listings)

	status = env.get(t, "/v1/listings?seller=seller", &page)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, page.Listings, 3)

	assert.Equal(t, http.StatusBadRequest, env.get(t, "/v1/listings?state=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, env.get(t, "/v1/listings?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, env.get(t, "/v1/listings?limit=9999", nil))
	assert.Equal(t, http.StatusBadRequest, env.get(t, "/v1/listings?cursor=!!!", nil))
}

func TestServer_GetListing(t *testing.T) {
	env, cleanup := setup(t)
	defer cleanup()

	assert.Equal(t, http.StatusNotFound, env.get(t, "/v1/listings/unknown", nil))

	env.seedListings(t, 1)

	var res listingResource
	status := env.get(t, "/v1/listings/listing0", &res)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "listing0", res.Address)
	assert.EqualValues(t, 1_000_000_000, res.Price)
}

func TestServer_GetSales(t *testing.T) {
	env, cleanup := setup(t)
	defer cleanup()

	assert.Equal(t, http.StatusBadRequest, env.get(t, "/v1/sales", nil))

	var page pagedSales
	status := env.get(t, "/v1/sales?marketplace=marketplace", &page)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, page.Sales)

	require.NoError(t, env.data.PutSale(context.Background(), &sale.Record{
		Listing:     "listing0",
		NftMint:     "mint0",
		Seller:      "seller",
		Marketplace: "marketplace",
		Price:       10_000_000_000,
		Fee:         250_000_000,
		Slot:        100,
		SoldAt:      time.Now(),
	}))

	status = env.get(t, "/v1/sales?marketplace=marketplace", &page)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, page.Sales, 1)
	assert.EqualValues(t, 250_000_000, page.Sales[0].Fee)

	status = env.get(t, "/v1/sales?marketplace=other", &page)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, page.Sales)
}

func TestServer_GetMarketplaces(t *testing.T) {
	env, cleanup := setup(t)
	defer cleanup()

	var list []*marketplaceResource
	status := env.get(t, "/v1/marketplaces", &list)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, list)

	assert.Equal(t, http.StatusNotFound, env.get(t, "/v1/marketplaces/unknown", nil))

	require.NoError(t, env.data.SaveMarketplace(context.Background(), &marketplace.Record{
		Address:        "marketplace",
		Authority:      "authority",
		FeeBasisPoints: 250,
		FeeRecipient:   "authority",
		TotalVolume:    10_000_000_000,
		TotalSales:     1,
		LastSlot:       100,
	}))

	status = env.get(t, "/v1/marketplaces", &list)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)

	var res marketplaceResource
	status = env.get(t, "/v1/marketplaces/marketplace", &res)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 250, res.FeeBasisPoints)
	assert.EqualValues(t, 10_000_000_000, res.TotalVolume)
}

func TestServer_GetStats(t *testing.T) {
	env, cleanup := setup(t)
	defer cleanup()

	require.NoError(t, env.data.SaveMarketplace(context.Background(), &marketplace.Record{
		Address:        "marketplace",
		Authority:      "authority",
		FeeBasisPoints: 250,
		FeeRecipient:   "authority",
		TotalVolume:    10_000_000_000,
		TotalSales:     1,
		LastSlot:       100,
	}))
	require.NoError(t, env.data.PutSale(context.Background(), &sale.Record{
		Listing:     "listing0",
		NftMint:     "mint0",
		Seller:      "seller",
		Marketplace: "marketplace",
		Price:       10_000_000_000,
		Fee:         250_000_000,
		Slot:        100,
		SoldAt:      time.Now(),
	}))
	env.seedListings(t, 2)

	var stats statsResource
	status := env.get(t, "/v1/stats", &stats)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, stats.Marketplaces)
	assert.EqualValues(t, 2, stats.ActiveListings)
	assert.EqualValues(t, 1, stats.TotalSales)
	assert.EqualValues(t, 10_000_000_000, stats.TotalVolume)

	status = env.get(t, "/v1/stats?marketplace=marketplace&interval=day", &stats)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, stats.VolumeHistory, 1)
	assert.EqualValues(t, 10_000_000_000, stats.VolumeHistory[0].Volume)

	// Responses are cached, so new data doesn't appear immediately
	require.NoError(t, env.data.PutListing(context.Background(), &listing.Record{
		Address:     "another_listing",
		Seller:      "seller",
		NftMint:     "another_mint",
		Marketplace: "marketplace",
		Price:       1_000_000_000,
		State:       listing.StateActive,
		ListedAt:    time.Now(),
	}))
	status = env.get(t, "/v1/stats", &stats)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, stats.ActiveListings)
}

func TestServer_NotFound(t *testing.T) {
	env, cleanup := setup(t)
	defer cleanup()

	assert.Equal(t, http.StatusNotFound, env.get(t, "/bogus", nil))
}
