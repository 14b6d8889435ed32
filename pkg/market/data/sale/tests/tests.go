package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/sale"
)

func RunTests(t *testing.T, s sale.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s sale.Store){
		testHappyPath,
		testPagedQueries,
		testBucketedVolume,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s sale.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		record := &sale.Record{
			Listing:     "listing_address",
			NftMint:     "mint_address",
			Seller:      "seller_address",
			Marketplace: "marketplace_address",

			Price: 10_000_000_000,
			Fee:   250_000_000,

			Slot:   100,
			SoldAt: time.Now(),
		}
		cloned := record.Clone()

		_, err := s.GetByListing(ctx, record.Listing)
		assert.Equal(t, sale.ErrNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		require.NoError(t, s.Put(ctx, record))
		assert.Equal(t, sale.ErrAlreadyExists, s.Put(ctx, record))

		actual, err := s.GetByListing(ctx, record.Listing)
		require.NoError(t, err)
		assert.True(t, actual.Id > 0)
		assertEquivalentRecords(t, &cloned, actual)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testPagedQueries(t *testing.T, s sale.Store) {
	t.Run("testPagedQueries", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByMarketplace(ctx, "marketplace1")
		assert.Equal(t, sale.ErrNotFound, err)

		for i := 0; i < 5; i++ {
			require.NoError(t, s.Put(ctx, &sale.Record{
				Listing:     fmt.Sprintf("listing%d", i),
				NftMint:     fmt.Sprintf("mint%d", i),
				Seller:      "seller",
				Marketplace: "marketplace1",
				Price:       uint64(i+1) * 1_000_000_000,
				Fee:         uint64(i+1) * 25_000_000,
				Slot:        uint64(100 + i),
				SoldAt:      time.Now(),
			}))
		}
		require.NoError(t, s.Put(ctx, &sale.Record{
			Listing:     "listing5",
			NftMint:     "mint5",
			Seller:      "seller",
			Marketplace: "marketplace2",
			Price:       1_000_000_000,
			Fee:         25_000_000,
			Slot:        105,
			SoldAt:      time.Now(),
		}))

		actual, err := s.GetAllByMarketplace(ctx, "marketplace1")
		require.NoError(t, err)
		require.Len(t, actual, 5)

		actual, err = s.GetAllByMarketplace(ctx, "marketplace1", query.WithLimit(2), query.WithDirection(query.Descending))
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "listing4", actual[0].Listing)
		assert.Equal(t, "listing3", actual[1].Listing)

		actual, err = s.GetAllByMarketplace(
			ctx,
			"marketplace1",
			query.WithCursor(query.ToCursor(actual[1].Id)),
			query.WithLimit(2),
			query.WithDirection(query.Descending),
		)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "listing2", actual[0].Listing)
		assert.Equal(t, "listing1", actual[1].Listing)

		actual, err = s.GetAllByMarketplace(ctx, "marketplace2")
		require.NoError(t, err)
		require.Len(t, actual, 1)
	})
}

func testBucketedVolume(t *testing.T, s sale.Store) {
	t.Run("testBucketedVolume", func(t *testing.T) {
		ctx := context.Background()

		day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		day2 := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

		sales := []*sale.Record{
			{Listing: "listing1", NftMint: "mint1", Seller: "seller", Marketplace: "marketplace1", Price: 1_000_000_000, Fee: 25_000_000, Slot: 1, SoldAt: day1},
			{Listing: "listing2", NftMint: "mint2", Seller: "seller", Marketplace: "marketplace1", Price: 2_000_000_000, Fee: 50_000_000, Slot: 2, SoldAt: day1.Add(time.Hour)},
			{Listing: "listing3", NftMint: "mint3", Seller: "seller", Marketplace: "marketplace1", Price: 4_000_000_000, Fee: 100_000_000, Slot: 3, SoldAt: day2},
			{Listing: "listing4", NftMint: "mint4", Seller: "seller", Marketplace: "marketplace2", Price: 8_000_000_000, Fee: 200_000_000, Slot: 4, SoldAt: day2},
		}
		for _, record := range sales {
			require.NoError(t, s.Put(ctx, record))
		}

		buckets, err := s.GetBucketedVolume(ctx, "marketplace1", query.IntervalDay)
		require.NoError(t, err)
		require.Len(t, buckets, 2)
		assert.EqualValues(t, 3_000_000_000, buckets[0].Volume)
		assert.EqualValues(t, 2, buckets[0].Count)
		assert.EqualValues(t, 4_000_000_000, buckets[1].Volume)
		assert.EqualValues(t, 1, buckets[1].Count)
		assert.True(t, buckets[0].Date.Before(buckets[1].Date))

		buckets, err = s.GetBucketedVolume(ctx, "marketplace1", query.IntervalHour)
		require.NoError(t, err)
		require.Len(t, buckets, 3)

		buckets, err = s.GetBucketedVolume(
			ctx,
			"marketplace1",
			query.IntervalDay,
			query.WithStartTime(day2.Add(-time.Hour)),
		)
		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.EqualValues(t, 4_000_000_000, buckets[0].Volume)

		_, err = s.GetBucketedVolume(ctx, "marketplace1", query.IntervalRaw)
		assert.Equal(t, query.ErrQueryNotSupported, err)

		buckets, err = s.GetBucketedVolume(ctx, "marketplace3", query.IntervalDay)
		require.NoError(t, err)
		assert.Empty(t, buckets)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *sale.Record) {
	assert.Equal(t, obj1.Listing, obj2.Listing)
	assert.Equal(t, obj1.NftMint, obj2.NftMint)
	assert.Equal(t, obj1.Seller, obj2.Seller)
	assert.Equal(t, obj1.Marketplace, obj2.Marketplace)
	assert.Equal(t, obj1.Price, obj2.Price)
	assert.Equal(t, obj1.Fee, obj2.Fee)
	assert.Equal(t, obj1.Slot, obj2.Slot)
	assert.Equal(t, obj1.SoldAt.Unix(), obj2.SoldAt.Unix())
}
