package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmarket/marketplace-server/pkg/database/query"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	"github.com/solmarket/marketplace-server/pkg/pointer"
)

func RunTests(t *testing.T, s listing.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s listing.Store){
		testHappyPath,
		testPagedQueries,
		testCounting,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s listing.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		record := &listing.Record{
			Address:     "listing_address",
			Seller:      "seller_address",
			NftMint:     "mint_address",
			Marketplace: "marketplace_address",

			Price: 5_000_000_000,
			State: listing.StateActive,

			ListedAt: time.Now(),
			LastSlot: 100,
		}
		cloned := record.Clone()

		_, err := s.GetByAddress(ctx, record.Address)
		assert.Equal(t, listing.ErrNotFound, err)
		assert.Equal(t, listing.ErrNotFound, s.Update(ctx, record))

		require.NoError(t, s.Put(ctx, record))
		assert.Equal(t, listing.ErrAlreadyExists, s.Put(ctx, record))

		actual, err := s.GetByAddress(ctx, record.Address)
		require.NoError(t, err)
		assert.True(t, actual.Id > 0)
		assertEquivalentRecords(t, &cloned, actual)

		record.State = listing.StateSold
		record.ClosedAt = pointer.Time(time.Now())
		record.LastSlot = 200
		cloned = record.Clone()
		require.NoError(t, s.Update(ctx, record))

		actual, err = s.GetByAddress(ctx, record.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
	})
}

func testPagedQueries(t *testing.T, s listing.Store) {
	t.Run("testPagedQueries", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByState(ctx, listing.StateActive)
		assert.Equal(t, listing.ErrNotFound, err)
		_, err = s.GetAllBySeller(ctx, "seller1")
		assert.Equal(t, listing.ErrNotFound, err)

		var records []*listing.Record
		for i := 0; i < 5; i++ {
			records = append(records, &listing.Record{
				Address:     fmt.Sprintf("listing%d", i),
				Seller:      "seller1",
				NftMint:     fmt.Sprintf("mint%d", i),
				Marketplace: "marketplace_address",
				Price:       uint64(i+1) * 1_000_000_000,
				State:       listing.StateActive,
				ListedAt:    time.Now(),
				LastSlot:    uint64(100 + i),
			})
		}
		records = append(records, &listing.Record{
			Address:     "listing5",
			Seller:      "seller2",
			NftMint:     "mint5",
			Marketplace: "marketplace_address",
			Price:       1_000_000_000,
			State:       listing.StateCancelled,
			ListedAt:    time.Now(),
			ClosedAt:    pointer.Time(time.Now()),
			LastSlot:    105,
		})
		for _, record := range records {
			require.NoError(t, s.Put(ctx, record))
		}

		actual, err := s.GetAllByState(ctx, listing.StateActive)
		require.NoError(t, err)
		require.Len(t, actual, 5)

		actual, err = s.GetAllByState(ctx, listing.StateActive, query.WithLimit(2))
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "listing0", actual[0].Address)
		assert.Equal(t, "listing1", actual[1].Address)

		actual, err = s.GetAllByState(
			ctx,
			listing.StateActive,
			query.WithCursor(query.ToCursor(actual[1].Id)),
			query.WithLimit(2),
		)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "listing2", actual[0].Address)
		assert.Equal(t, "listing3", actual[1].Address)

		actual, err = s.GetAllByState(ctx, listing.StateActive, query.WithDirection(query.Descending), query.WithLimit(1))
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, "listing4", actual[0].Address)

		actual, err = s.GetAllBySeller(ctx, "seller1")
		require.NoError(t, err)
		require.Len(t, actual, 5)

		actual, err = s.GetAllBySeller(ctx, "seller2")
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, listing.StateCancelled, actual[0].State)

		_, err = s.GetAllByState(ctx, listing.StateSold)
		assert.Equal(t, listing.ErrNotFound, err)
	})
}

func testCounting(t *testing.T, s listing.Store) {
	t.Run("testCounting", func(t *testing.T) {
		ctx := context.Background()

		count, err := s.CountByState(ctx, listing.StateActive)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		states := []listing.State{
			listing.StateActive,
			listing.StateActive,
			listing.StateActive,
			listing.StateSold,
			listing.StateCancelled,
		}
		for i, state := range states {
			record := &listing.Record{
				Address:     fmt.Sprintf("listing%d", i),
				Seller:      "seller",
				NftMint:     fmt.Sprintf("mint%d", i),
				Marketplace: "marketplace_address",
				Price:       1_000_000_000,
				State:       state,
				ListedAt:    time.Now(),
				LastSlot:    uint64(i),
			}
			if state != listing.StateActive {
				record.ClosedAt = pointer.Time(time.Now())
			}
			require.NoError(t, s.Put(ctx, record))
		}

		count, err = s.CountByState(ctx, listing.StateActive)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		count, err = s.CountByState(ctx, listing.StateSold)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		count, err = s.CountByState(ctx, listing.StateCancelled)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *listing.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Seller, obj2.Seller)
	assert.Equal(t, obj1.NftMint, obj2.NftMint)
	assert.Equal(t, obj1.Marketplace, obj2.Marketplace)
	assert.Equal(t, obj1.Price, obj2.Price)
	assert.Equal(t, obj1.State, obj2.State)
	assert.Equal(t, obj1.ListedAt.Unix(), obj2.ListedAt.Unix())
	assert.Equal(t, obj1.LastSlot, obj2.LastSlot)

	if obj1.ClosedAt == nil {
		assert.Nil(t, obj2.ClosedAt)
	} else {
		require.NotNil(t, obj2.ClosedAt)
		assert.Equal(t, obj1.ClosedAt.Unix(), obj2.ClosedAt.Unix())
	}
}
