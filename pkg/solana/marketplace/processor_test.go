package marketplace

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmarket/marketplace-server/pkg/solana"
)

type testEnv struct {
	t         *testing.T
	processor *Processor
	accounts  map[string]*Account
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		t:         t,
		processor: NewProcessor(),
		accounts:  make(map[string]*Account),
	}
	env.processor.now = func() time.Time { return time.Unix(1700000000, 0) }
	return env
}

// account returns the runtime account for a key, creating an empty
// system-owned account on first reference.
func (e *testEnv) account(key ed25519.PublicKey) *Account {
	encoded := base58.Encode(key)
	if existing, ok := e.accounts[encoded]; ok {
		return existing
	}

	account := &Account{
		Key:   key,
		Owner: SYSTEM_PROGRAM_ID,
	}
	e.accounts[encoded] = account
	return account
}

func (e *testEnv) fund(key ed25519.PublicKey, lamports uint64) {
	e.account(key).Lamports = lamports
}

// process loads the instruction's accounts with the permissions its metas
// declare and runs the processor over them.
func (e *testEnv) process(instruction solana.Instruction) error {
	accounts := make([]*Account, len(instruction.Accounts))
	for i, meta := range instruction.Accounts {
		account := e.account(meta.PublicKey)
		account.IsSigner = meta.IsSigner
		account.IsWritable = meta.IsWritable
		accounts[i] = account
	}
	return e.processor.Process(accounts, instruction.Data)
}

func (e *testEnv) initializeMarketplace(authority ed25519.PublicKey, feeBasisPoints uint16) ed25519.PublicKey {
	marketplace, _, err := GetMarketplaceAddress(&GetMarketplaceAddressArgs{Authority: authority})
	require.NoError(e.t, err)

	e.fund(authority, 10_000_000_000)
	require.NoError(e.t, e.process(NewInitializeMarketplaceInstruction(
		&InitializeMarketplaceInstructionAccounts{
			Authority:   authority,
			Marketplace: marketplace,
		},
		&InitializeMarketplaceInstructionArgs{FeeBasisPoints: feeBasisPoints},
	)))

	return marketplace
}

func (e *testEnv) listNft(seller, nftMint, marketplace ed25519.PublicKey, price uint64) ed25519.PublicKey {
	listing, _, err := GetListingAddress(&GetListingAddressArgs{NftMint: nftMint, Seller: seller})
	require.NoError(e.t, err)

	if e.account(seller).Lamports == 0 {
		e.fund(seller, 10_000_000_000)
	}
	require.NoError(e.t, e.process(NewListNftInstruction(
		&ListNftInstructionAccounts{
			Seller:             seller,
			Listing:            listing,
			NftMint:            nftMint,
			SellerTokenAccount: generateKey(e.t),
			Marketplace:        marketplace,
		},
		&ListNftInstructionArgs{Price: price},
	)))

	return listing
}

func (e *testEnv) buyInstruction(buyer, listing, seller, marketplace ed25519.PublicKey) solana.Instruction {
	var listingRecord ListingAccount
	nftMint := e.account(listing).Key // placeholder; replaced below when the record decodes
	if err := listingRecord.Unmarshal(e.account(listing).Data); err == nil {
		nftMint = listingRecord.NftMint
	}

	feeCollector, _, err := GetFeeCollectorAddress(&GetFeeCollectorAddressArgs{Marketplace: marketplace})
	require.NoError(e.t, err)

	return NewBuyNftInstruction(&BuyNftInstructionAccounts{
		Buyer:              buyer,
		Listing:            listing,
		BuyerTokenAccount:  generateKey(e.t),
		SellerTokenAccount: generateKey(e.t),
		Seller:             seller,
		FeeCollector:       feeCollector,
		NftMint:            nftMint,
		Marketplace:        marketplace,
	})
}

func TestProcessor_InitializeMarketplace(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)

	account := env.account(marketplace)
	assert.EqualValues(t, PROGRAM_ID, account.Owner)
	assert.Equal(t, rentExemptBalance(MarketplaceAccountSize), account.Lamports)

	var record MarketplaceAccount
	require.NoError(t, record.Unmarshal(account.Data))
	assert.EqualValues(t, authority, record.Authority)
	assert.EqualValues(t, 250, record.FeeBasisPoints)
	assert.EqualValues(t, authority, record.FeeRecipient)
	assert.EqualValues(t, 0, record.TotalVolume)
	assert.EqualValues(t, 0, record.TotalSales)
}

func TestProcessor_InitializeMarketplace_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	before := append([]byte{}, env.account(marketplace).Data...)

	err := env.process(NewInitializeMarketplaceInstruction(
		&InitializeMarketplaceInstructionAccounts{
			Authority:   authority,
			Marketplace: marketplace,
		},
		&InitializeMarketplaceInstructionArgs{FeeBasisPoints: 500},
	))
	assert.Equal(t, ErrAlreadyInitialized, err)
	assert.Equal(t, before, env.account(marketplace).Data)
}

func TestProcessor_InitializeMarketplace_InvalidFee(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	marketplace, _, err := GetMarketplaceAddress(&GetMarketplaceAddressArgs{Authority: authority})
	require.NoError(t, err)

	env.fund(authority, 10_000_000_000)
	err = env.process(NewInitializeMarketplaceInstruction(
		&InitializeMarketplaceInstructionAccounts{
			Authority:   authority,
			Marketplace: marketplace,
		},
		&InitializeMarketplaceInstructionArgs{FeeBasisPoints: 1001},
	))
	assert.Equal(t, ErrInvalidFeePercentage, err)
	assert.False(t, env.account(marketplace).IsInitialized())
}

func TestProcessor_InitializeMarketplace_NotASigner(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	marketplace, _, err := GetMarketplaceAddress(&GetMarketplaceAddressArgs{Authority: authority})
	require.NoError(t, err)

	env.fund(authority, 10_000_000_000)
	instruction := NewInitializeMarketplaceInstruction(
		&InitializeMarketplaceInstructionAccounts{
			Authority:   authority,
			Marketplace: marketplace,
		},
		&InitializeMarketplaceInstructionArgs{FeeBasisPoints: 250},
	)
	instruction.Accounts[0].IsSigner = false

	assert.Equal(t, ErrMissingSignature, env.process(instruction))
}

func TestProcessor_InitializeMarketplace_AddressMismatch(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)

	env.fund(authority, 10_000_000_000)
	err := env.process(NewInitializeMarketplaceInstruction(
		&InitializeMarketplaceInstructionAccounts{
			Authority:   authority,
			Marketplace: generateKey(t), // not the derived address
		},
		&InitializeMarketplaceInstructionArgs{FeeBasisPoints: 250},
	))
	assert.Equal(t, ErrDerivedAddressMismatch, err)
}

func TestProcessor_ListNft(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing := env.listNft(seller, nftMint, marketplace, 5_000_000_000)

	account := env.account(listing)
	assert.EqualValues(t, PROGRAM_ID, account.Owner)

	var record ListingAccount
	require.NoError(t, record.Unmarshal(account.Data))
	assert.EqualValues(t, seller, record.Seller)
	assert.EqualValues(t, nftMint, record.NftMint)
	assert.EqualValues(t, 5_000_000_000, record.Price)
	assert.EqualValues(t, 1700000000, record.CreatedAt)
	assert.EqualValues(t, marketplace, record.Marketplace)
}

func TestProcessor_ListNft_ZeroPrice(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing, _, err := GetListingAddress(&GetListingAddressArgs{NftMint: nftMint, Seller: seller})
	require.NoError(t, err)

	env.fund(seller, 10_000_000_000)
	err = env.process(NewListNftInstruction(
		&ListNftInstructionAccounts{
			Seller:             seller,
			Listing:            listing,
			NftMint:            nftMint,
			SellerTokenAccount: generateKey(t),
			Marketplace:        marketplace,
		},
		&ListNftInstructionArgs{Price: 0},
	))
	assert.Equal(t, ErrInvalidPrice, err)
}

func TestProcessor_ListNft_MarketplaceNotInitialized(t *testing.T) {
	env := newTestEnv(t)
	seller := generateKey(t)
	nftMint := generateKey(t)
	marketplace := generateKey(t)

	listing, _, err := GetListingAddress(&GetListingAddressArgs{NftMint: nftMint, Seller: seller})
	require.NoError(t, err)

	env.fund(seller, 10_000_000_000)
	err = env.process(NewListNftInstruction(
		&ListNftInstructionAccounts{
			Seller:             seller,
			Listing:            listing,
			NftMint:            nftMint,
			SellerTokenAccount: generateKey(t),
			Marketplace:        marketplace,
		},
		&ListNftInstructionArgs{Price: 1},
	))
	assert.Equal(t, ErrNotInitialized, err)
}

func TestProcessor_ListNft_DuplicateListing(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing := env.listNft(seller, nftMint, marketplace, 5_000_000_000)

	err := env.process(NewListNftInstruction(
		&ListNftInstructionAccounts{
			Seller:             seller,
			Listing:            listing,
			NftMint:            nftMint,
			SellerTokenAccount: generateKey(t),
			Marketplace:        marketplace,
		},
		&ListNftInstructionArgs{Price: 9_000_000_000},
	))
	assert.Equal(t, ErrAlreadyInitialized, err)
}

func TestProcessor_BuyNft(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	buyer := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing := env.listNft(seller, nftMint, marketplace, 10_000_000_000)

	sellerBalanceBefore := env.account(seller).Lamports
	listingRent := env.account(listing).Lamports

	env.fund(buyer, 20_000_000_000)
	require.NoError(t, env.process(env.buyInstruction(buyer, listing, seller, marketplace)))

	feeCollector, _, err := GetFeeCollectorAddress(&GetFeeCollectorAddressArgs{Marketplace: marketplace})
	require.NoError(t, err)

	// Exact lamport movement: no drift anywhere.
	assert.EqualValues(t, 10_000_000_000, env.account(buyer).Lamports)
	assert.EqualValues(t, 250_000_000, env.account(feeCollector).Lamports)
	assert.Equal(t, sellerBalanceBefore+9_750_000_000+listingRent, env.account(seller).Lamports)

	// Listing account is closed.
	listingAccount := env.account(listing)
	assert.False(t, listingAccount.IsInitialized())
	assert.EqualValues(t, 0, listingAccount.Lamports)
	assert.EqualValues(t, SYSTEM_PROGRAM_ID, listingAccount.Owner)

	// Marketplace counters reflect exactly one sale.
	var record MarketplaceAccount
	require.NoError(t, record.Unmarshal(env.account(marketplace).Data))
	assert.EqualValues(t, 10_000_000_000, record.TotalVolume)
	assert.EqualValues(t, 1, record.TotalSales)
}

func TestProcessor_BuyNft_SingleSale(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing := env.listNft(seller, nftMint, marketplace, 1_000_000_000)

	firstBuyer := generateKey(t)
	env.fund(firstBuyer, 5_000_000_000)
	instruction := env.buyInstruction(firstBuyer, listing, seller, marketplace)
	require.NoError(t, env.process(instruction))

	// A second purchase of the same listing must fail, as must a cancel.
	secondBuyer := generateKey(t)
	env.fund(secondBuyer, 5_000_000_000)
	second := env.buyInstruction(secondBuyer, listing, seller, marketplace)
	second.Accounts[6].PublicKey = nftMint
	assert.Equal(t, ErrListingNotActive, env.process(second))

	cancel := NewCancelListingInstruction(&CancelListingInstructionAccounts{
		Seller:  seller,
		Listing: listing,
		NftMint: nftMint,
	})
	assert.Equal(t, ErrListingNotActive, env.process(cancel))

	var record MarketplaceAccount
	require.NoError(t, record.Unmarshal(env.account(marketplace).Data))
	assert.EqualValues(t, 1, record.TotalSales)
}

func TestProcessor_BuyNft_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	buyer := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing := env.listNft(seller, nftMint, marketplace, 10_000_000_000)

	env.fund(buyer, 9_999_999_999)
	err := env.process(env.buyInstruction(buyer, listing, seller, marketplace))
	assert.Equal(t, ErrInsufficientFunds, err)

	// Nothing changed.
	assert.EqualValues(t, 9_999_999_999, env.account(buyer).Lamports)
	assert.True(t, env.account(listing).IsInitialized())
}

func TestProcessor_BuyNft_AccountMismatch(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	buyer := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing := env.listNft(seller, nftMint, marketplace, 1_000_000_000)

	env.fund(buyer, 5_000_000_000)

	// Wrong seller account
	instruction := env.buyInstruction(buyer, listing, generateKey(t), marketplace)
	assert.Equal(t, ErrAccountMismatch, env.process(instruction))

	// Wrong nft mint
	instruction = env.buyInstruction(buyer, listing, seller, marketplace)
	instruction.Accounts[6].PublicKey = generateKey(t)
	assert.Equal(t, ErrAccountMismatch, env.process(instruction))

	// Wrong fee collector
	instruction = env.buyInstruction(buyer, listing, seller, marketplace)
	instruction.Accounts[5].PublicKey = generateKey(t)
	assert.Equal(t, ErrDerivedAddressMismatch, env.process(instruction))
}

func TestProcessor_CancelListing(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing := env.listNft(seller, nftMint, marketplace, 1_000_000_000)

	sellerBalanceBefore := env.account(seller).Lamports
	listingRent := env.account(listing).Lamports

	require.NoError(t, env.process(NewCancelListingInstruction(&CancelListingInstructionAccounts{
		Seller:  seller,
		Listing: listing,
		NftMint: nftMint,
	})))

	// Rent returned, account closed, and the listing cannot be cancelled twice.
	assert.Equal(t, sellerBalanceBefore+listingRent, env.account(seller).Lamports)
	assert.False(t, env.account(listing).IsInitialized())

	err := env.process(NewCancelListingInstruction(&CancelListingInstructionAccounts{
		Seller:  seller,
		Listing: listing,
		NftMint: nftMint,
	}))
	assert.Equal(t, ErrListingNotActive, err)
}

func TestProcessor_CancelListing_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)
	seller := generateKey(t)
	nftMint := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)
	listing := env.listNft(seller, nftMint, marketplace, 1_000_000_000)

	err := env.process(NewCancelListingInstruction(&CancelListingInstructionAccounts{
		Seller:  generateKey(t), // signs, but is not the listing's seller
		Listing: listing,
		NftMint: nftMint,
	}))
	assert.Equal(t, ErrUnauthorized, err)
	assert.True(t, env.account(listing).IsInitialized())
}

func TestProcessor_UpdateMarketplaceFee(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)

	require.NoError(t, env.process(NewUpdateMarketplaceFeeInstruction(
		&UpdateMarketplaceFeeInstructionAccounts{
			Authority:   authority,
			Marketplace: marketplace,
		},
		&UpdateMarketplaceFeeInstructionArgs{NewFeeBasisPoints: 1000},
	)))

	var record MarketplaceAccount
	require.NoError(t, record.Unmarshal(env.account(marketplace).Data))
	assert.EqualValues(t, 1000, record.FeeBasisPoints)

	// Out of range fails and leaves the prior value unchanged.
	err := env.process(NewUpdateMarketplaceFeeInstruction(
		&UpdateMarketplaceFeeInstructionAccounts{
			Authority:   authority,
			Marketplace: marketplace,
		},
		&UpdateMarketplaceFeeInstructionArgs{NewFeeBasisPoints: 1001},
	))
	assert.Equal(t, ErrInvalidFeePercentage, err)

	require.NoError(t, record.Unmarshal(env.account(marketplace).Data))
	assert.EqualValues(t, 1000, record.FeeBasisPoints)
}

func TestProcessor_UpdateMarketplaceFee_Unauthorized(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)

	err := env.process(NewUpdateMarketplaceFeeInstruction(
		&UpdateMarketplaceFeeInstructionAccounts{
			Authority:   generateKey(t), // signs, but is not the authority
			Marketplace: marketplace,
		},
		&UpdateMarketplaceFeeInstructionArgs{NewFeeBasisPoints: 500},
	))
	assert.Equal(t, ErrUnauthorized, err)

	var record MarketplaceAccount
	require.NoError(t, record.Unmarshal(env.account(marketplace).Data))
	assert.EqualValues(t, 250, record.FeeBasisPoints)
}

func TestProcessor_CounterMonotonicity(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 100)

	prices := []uint64{1_000_000_000, 2_500_000_000, 400_000_000, 9_999_999}
	var expectedVolume uint64
	for _, price := range prices {
		seller := generateKey(t)
		buyer := generateKey(t)
		nftMint := generateKey(t)

		listing := env.listNft(seller, nftMint, marketplace, price)
		env.fund(buyer, 2*price)
		require.NoError(t, env.process(env.buyInstruction(buyer, listing, seller, marketplace)))

		expectedVolume += price
	}

	var record MarketplaceAccount
	require.NoError(t, record.Unmarshal(env.account(marketplace).Data))
	assert.Equal(t, expectedVolume, record.TotalVolume)
	assert.EqualValues(t, len(prices), record.TotalSales)
}

func TestProcessor_NotWritable(t *testing.T) {
	env := newTestEnv(t)
	authority := generateKey(t)

	marketplace := env.initializeMarketplace(authority, 250)

	instruction := NewUpdateMarketplaceFeeInstruction(
		&UpdateMarketplaceFeeInstructionAccounts{
			Authority:   authority,
			Marketplace: marketplace,
		},
		&UpdateMarketplaceFeeInstructionArgs{NewFeeBasisPoints: 500},
	)
	instruction.Accounts[1].IsWritable = false

	assert.Equal(t, ErrAccountMismatch, env.process(instruction))
}
