package async_indexer

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmarket/marketplace-server/pkg/solana"
	marketplace_program "github.com/solmarket/marketplace-server/pkg/solana/marketplace"

	market_data "github.com/solmarket/marketplace-server/pkg/market/data"
	"github.com/solmarket/marketplace-server/pkg/market/data/listing"
	marketplace_store "github.com/solmarket/marketplace-server/pkg/market/data/marketplace"
)

type fakeClient struct {
	slot     uint64
	accounts map[string]solana.AccountInfo
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		slot:     1,
		accounts: make(map[string]solana.AccountInfo),
	}
}

func (c *fakeClient) setAccount(key ed25519.PublicKey, data []byte) {
	c.accounts[base58.Encode(key)] = solana.AccountInfo{
		Data:     data,
		Owner:    marketplace_program.PROGRAM_ID,
		Lamports: 1,
	}
}

func (c *fakeClient) removeAccount(key ed25519.PublicKey) {
	delete(c.accounts, base58.Encode(key))
}

func (c *fakeClient) GetSlot(solana.Commitment) (uint64, error) {
	return c.slot, nil
}

func (c *fakeClient) GetAccountInfo(key ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	info, ok := c.accounts[base58.Encode(key)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *fakeClient) GetProgramAccounts(_ ed25519.PublicKey, _ solana.Commitment) ([]solana.ProgramAccount, uint64, error) {
	var res []solana.ProgramAccount
	for encoded, info := range c.accounts {
		key, _ := base58.Decode(encoded)
		res = append(res, solana.ProgramAccount{
			PublicKey: key,
			Account:   info,
		})
	}
	return res, c.slot, nil
}

func (c *fakeClient) GetMinimumBalanceForRentExemption(uint64) (uint64, error) {
	return 0, nil
}

type testEnv struct {
	ctx     context.Context
	data    market_data.Provider
	client  *fakeClient
	service *service
}

func setup(t *testing.T) *testEnv {
	data := market_data.NewTestProvider()
	client := newFakeClient()
	return &testEnv{
		ctx:     context.Background(),
		data:    data,
		client:  client,
		service: New(data, client).(*service),
	}
}

func generateKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}

func TestIndexer_FullLifecycle(t *testing.T) {
	env := setup(t)

	authority := generateKey(t)
	seller := generateKey(t)

	marketplaceKey, _, err := marketplace_program.GetMarketplaceAddress(&marketplace_program.GetMarketplaceAddressArgs{
		Authority: authority,
	})
	require.NoError(t, err)

	marketplaceRecord := &marketplace_program.MarketplaceAccount{
		Authority:      authority,
		FeeBasisPoints: 250,
		FeeRecipient:   authority,
	}
	env.client.setAccount(marketplaceKey, marketplaceRecord.Marshal())

	mint1 := generateKey(t)
	mint2 := generateKey(t)
	listing1Key, _, err := marketplace_program.GetListingAddress(&marketplace_program.GetListingAddressArgs{
		NftMint: mint1,
		Seller:  seller,
	})
	require.NoError(t, err)
	listing2Key, _, err := marketplace_program.GetListingAddress(&marketplace_program.GetListingAddressArgs{
		NftMint: mint2,
		Seller:  seller,
	})
	require.NoError(t, err)

	env.client.setAccount(listing1Key, (&marketplace_program.ListingAccount{
		Seller:      seller,
		NftMint:     mint1,
		Price:       10_000_000_000,
		CreatedAt:   1700000000,
		Marketplace: marketplaceKey,
	}).Marshal())
	env.client.setAccount(listing2Key, (&marketplace_program.ListingAccount{
		Seller:      seller,
		NftMint:     mint2,
		Price:       5_000_000_000,
		CreatedAt:   1700000100,
		Marketplace: marketplaceKey,
	}).Marshal())

	// Pass 1: everything live on chain
	require.NoError(t, env.service.Update(env.ctx))

	stored, err := env.data.GetMarketplace(env.ctx, base58.Encode(marketplaceKey))
	require.NoError(t, err)
	assert.EqualValues(t, 250, stored.FeeBasisPoints)
	assert.EqualValues(t, 0, stored.TotalSales)

	count, err := env.data.CountListingsByState(env.ctx, listing.StateActive)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Pass 2: listing 1 sold; account closed and counters advanced
	env.client.slot = 2
	env.client.removeAccount(listing1Key)
	marketplaceRecord.TotalVolume = 10_000_000_000
	marketplaceRecord.TotalSales = 1
	env.client.setAccount(marketplaceKey, marketplaceRecord.Marshal())

	require.NoError(t, env.service.Update(env.ctx))

	record, err := env.data.GetListingByAddress(env.ctx, base58.Encode(listing1Key))
	require.NoError(t, err)
	assert.Equal(t, listing.StateSold, record.State)
	require.NotNil(t, record.ClosedAt)

	saleRecord, err := env.data.GetSaleByListing(env.ctx, base58.Encode(listing1Key))
	require.NoError(t, err)
	assert.EqualValues(t, 10_000_000_000, saleRecord.Price)
	assert.EqualValues(t, 250_000_000, saleRecord.Fee)
	assert.Equal(t, base58.Encode(seller), saleRecord.Seller)

	record, err = env.data.GetListingByAddress(env.ctx, base58.Encode(listing2Key))
	require.NoError(t, err)
	assert.Equal(t, listing.StateActive, record.State)

	// Pass 3: listing 2 cancelled; account closed without counters advancing
	env.client.slot = 3
	env.client.removeAccount(listing2Key)

	require.NoError(t, env.service.Update(env.ctx))

	record, err = env.data.GetListingByAddress(env.ctx, base58.Encode(listing2Key))
	require.NoError(t, err)
	assert.Equal(t, listing.StateCancelled, record.State)

	saleCount, err := env.data.CountSales(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, saleCount)

	// Re-running against unchanged chain state is a no-op
	env.client.slot = 4
	require.NoError(t, env.service.Update(env.ctx))

	saleCount, err = env.data.CountSales(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, saleCount)

	count, err = env.data.CountListingsByState(env.ctx, listing.StateActive)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestIndexer_StaleSlotIgnored(t *testing.T) {
	env := setup(t)

	authority := generateKey(t)
	marketplaceKey, _, err := marketplace_program.GetMarketplaceAddress(&marketplace_program.GetMarketplaceAddressArgs{
		Authority: authority,
	})
	require.NoError(t, err)

	record := &marketplace_program.MarketplaceAccount{
		Authority:      authority,
		FeeBasisPoints: 250,
		FeeRecipient:   authority,
		TotalVolume:    5_000_000_000,
		TotalSales:     1,
	}
	env.client.slot = 10
	env.client.setAccount(marketplaceKey, record.Marshal())

	require.NoError(t, env.service.Update(env.ctx))

	// A pass against an older snapshot doesn't clobber the stored record
	record.TotalVolume = 0
	record.TotalSales = 0
	env.client.slot = 5
	env.client.setAccount(marketplaceKey, record.Marshal())

	require.NoError(t, env.service.Update(env.ctx))

	stored, err := env.data.GetMarketplace(env.ctx, base58.Encode(marketplaceKey))
	require.NoError(t, err)
	assert.EqualValues(t, 5_000_000_000, stored.TotalVolume)
	assert.EqualValues(t, 1, stored.TotalSales)
}

func TestIndexer_MalformedAccountsDropped(t *testing.T) {
	env := setup(t)

	env.client.setAccount(generateKey(t), []byte{uint8(marketplace_program.AccountTypeListing), 1, 2, 3})
	env.client.setAccount(generateKey(t), []byte{99})

	require.NoError(t, env.service.Update(env.ctx))

	_, err := env.data.GetAllMarketplaces(env.ctx)
	assert.Equal(t, marketplace_store.ErrNotFound, err)
}
