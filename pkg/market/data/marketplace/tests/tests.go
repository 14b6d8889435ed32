package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
)

func RunTests(t *testing.T, s marketplace.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s marketplace.Store){
		testHappyPath,
		testStaleSaves,
		testGetAll,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s marketplace.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		record := &marketplace.Record{
			Address:   "marketplace_address",
			Authority: "authority_address",

			FeeBasisPoints: 250,
			FeeRecipient:   "authority_address",

			TotalVolume: 0,
			TotalSales:  0,

			LastSlot: 100,
		}
		cloned := record.Clone()

		_, err := s.Get(ctx, record.Address)
		assert.Equal(t, marketplace.ErrNotFound, err)

		require.NoError(t, s.Save(ctx, record))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.True(t, actual.Id > 0)
		assert.False(t, actual.UpdatedAt.IsZero())
		assertEquivalentRecords(t, &cloned, actual)

		record.FeeBasisPoints = 500
		record.TotalVolume = 10_000_000_000
		record.TotalSales = 1
		record.LastSlot = 200
		cloned = record.Clone()
		require.NoError(t, s.Save(ctx, record))

		actual, err = s.Get(ctx, record.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
	})
}

func testStaleSaves(t *testing.T, s marketplace.Store) {
	t.Run("testStaleSaves", func(t *testing.T) {
		ctx := context.Background()

		record := &marketplace.Record{
			Address:        "marketplace_address",
			Authority:      "authority_address",
			FeeBasisPoints: 250,
			FeeRecipient:   "authority_address",
			TotalVolume:    5_000_000_000,
			TotalSales:     2,
			LastSlot:       200,
		}
		require.NoError(t, s.Save(ctx, record))

		stale := record.Clone()
		stale.TotalVolume = 0
		stale.TotalSales = 0
		stale.LastSlot = 100
		assert.Equal(t, marketplace.ErrStaleState, s.Save(ctx, &stale))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 2, actual.TotalSales)
		assert.EqualValues(t, 200, actual.LastSlot)

		// Saving at the same slot is allowed (idempotent refresh)
		same := record.Clone()
		require.NoError(t, s.Save(ctx, &same))
	})
}

func testGetAll(t *testing.T, s marketplace.Store) {
	t.Run("testGetAll", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAll(ctx)
		assert.Equal(t, marketplace.ErrNotFound, err)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Save(ctx, &marketplace.Record{
				Address:        fmt.Sprintf("marketplace%d", i),
				Authority:      fmt.Sprintf("authority%d", i),
				FeeBasisPoints: uint16(100 * (i + 1)),
				FeeRecipient:   fmt.Sprintf("authority%d", i),
				LastSlot:       uint64(i),
			}))
		}

		actual, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, actual, 3)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *marketplace.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Authority, obj2.Authority)
	assert.Equal(t, obj1.FeeBasisPoints, obj2.FeeBasisPoints)
	assert.Equal(t, obj1.FeeRecipient, obj2.FeeRecipient)
	assert.Equal(t, obj1.TotalVolume, obj2.TotalVolume)
	assert.Equal(t, obj1.TotalSales, obj2.TotalSales)
	assert.Equal(t, obj1.LastSlot, obj2.LastSlot)
}
