package marketplace

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Processor executes marketplace instructions. It holds no persistent state
// of its own; every invocation is a pure function of the instruction payload
// and the supplied accounts' current contents.
//
// All preconditions for an operation are checked before any account is
// mutated, so a failed invocation leaves every account exactly as it was.
type Processor struct {
	log *logrus.Entry
	now func() time.Time
}

func NewProcessor() *Processor {
	return &Processor{
		log: logrus.StandardLogger().WithField("type", "solana/marketplace/processor"),
		now: time.Now,
	}
}

// Process decodes and executes a single instruction against the supplied
// ordered account list. On failure, no account has been modified.
func (p *Processor) Process(accounts []*Account, data []byte) error {
	decoded, err := DecodeInstruction(data)
	if err != nil {
		return err
	}

	log := p.log.WithField("command", decoded.Command.String())
	log.Trace("processing instruction")

	switch decoded.Command {
	case CommandInitializeMarketplace:
		return p.processInitializeMarketplace(accounts, decoded.InitializeMarketplace)
	case CommandListNft:
		return p.processListNft(accounts, decoded.ListNft)
	case CommandBuyNft:
		return p.processBuyNft(accounts)
	case CommandCancelListing:
		return p.processCancelListing(accounts)
	case CommandUpdateMarketplaceFee:
		return p.processUpdateMarketplaceFee(accounts, decoded.UpdateMarketplaceFee)
	}

	return ErrUnrecognizedInstruction
}

// Accounts: [authority(signer), marketplace(writable), system program, rent sysvar]
func (p *Processor) processInitializeMarketplace(accounts []*Account, args *InitializeMarketplaceInstructionArgs) error {
	if len(accounts) != 4 {
		return ErrAccountMismatch
	}

	authority := accounts[0]
	marketplace := accounts[1]
	systemProgram := accounts[2]
	rentSysvar := accounts[3]

	if args.FeeBasisPoints > MaxFeeBasisPoints {
		return ErrInvalidFeePercentage
	}

	if !authority.IsSigner {
		return ErrMissingSignature
	}

	if !systemProgram.hasKey(SYSTEM_PROGRAM_ID) || !rentSysvar.hasKey(SYSVAR_RENT_PUBKEY) {
		return ErrAccountMismatch
	}

	expected, _, err := GetMarketplaceAddress(&GetMarketplaceAddressArgs{
		Authority: authority.Key,
	})
	if err != nil {
		return err
	}
	if !marketplace.hasKey(expected) {
		return ErrDerivedAddressMismatch
	}

	if marketplace.IsInitialized() {
		return ErrAlreadyInitialized
	}

	if !authority.IsWritable || !marketplace.IsWritable {
		return ErrAccountMismatch
	}

	rent := rentExemptBalance(MarketplaceAccountSize)
	if authority.Lamports < rent {
		return ErrInsufficientFunds
	}
	newMarketplaceLamports, ok := checkedAdd(marketplace.Lamports, rent)
	if !ok {
		return ErrNumericOverflow
	}

	record := &MarketplaceAccount{
		Authority:      authority.Key,
		FeeBasisPoints: args.FeeBasisPoints,
		FeeRecipient:   authority.Key, // the authority collects fees unless extended
		TotalVolume:    0,
		TotalSales:     0,
	}

	authority.Lamports -= rent
	marketplace.Lamports = newMarketplaceLamports
	marketplace.Owner = PROGRAM_ID
	marketplace.Data = record.Marshal()

	p.log.WithField("fee_basis_points", args.FeeBasisPoints).Debug("marketplace initialized")
	return nil
}

// Accounts: [seller(signer), listing(writable), nft mint, seller token account,
// marketplace, system program, rent sysvar]
func (p *Processor) processListNft(accounts []*Account, args *ListNftInstructionArgs) error {
	if len(accounts) != 7 {
		return ErrAccountMismatch
	}

	seller := accounts[0]
	listing := accounts[1]
	nftMint := accounts[2]
	marketplace := accounts[4]
	systemProgram := accounts[5]
	rentSysvar := accounts[6]

	if args.Price == 0 {
		return ErrInvalidPrice
	}

	if !seller.IsSigner {
		return ErrMissingSignature
	}

	if !systemProgram.hasKey(SYSTEM_PROGRAM_ID) || !rentSysvar.hasKey(SYSVAR_RENT_PUBKEY) {
		return ErrAccountMismatch
	}

	if !marketplace.IsInitialized() {
		return ErrNotInitialized
	}
	var marketplaceRecord MarketplaceAccount
	if err := marketplaceRecord.Unmarshal(marketplace.Data); err != nil {
		return err
	}

	expected, _, err := GetListingAddress(&GetListingAddressArgs{
		NftMint: nftMint.Key,
		Seller:  seller.Key,
	})
	if err != nil {
		return err
	}
	if !listing.hasKey(expected) {
		return ErrDerivedAddressMismatch
	}

	if listing.IsInitialized() {
		return ErrAlreadyInitialized
	}

	if !seller.IsWritable || !listing.IsWritable {
		return ErrAccountMismatch
	}

	rent := rentExemptBalance(ListingAccountSize)
	if seller.Lamports < rent {
		return ErrInsufficientFunds
	}
	newListingLamports, ok := checkedAdd(listing.Lamports, rent)
	if !ok {
		return ErrNumericOverflow
	}

	record := &ListingAccount{
		Seller:      seller.Key,
		NftMint:     nftMint.Key,
		Price:       args.Price,
		CreatedAt:   p.now().Unix(),
		Marketplace: marketplace.Key,
	}

	seller.Lamports -= rent
	listing.Lamports = newListingLamports
	listing.Owner = PROGRAM_ID
	listing.Data = record.Marshal()

	p.log.WithField("price", args.Price).Debug("nft listed")
	return nil
}

// Accounts: [buyer(signer, writable), listing(writable), buyer token account,
// seller token account, seller(writable), fee collector(writable), nft mint,
// marketplace(writable), token program, system program]
func (p *Processor) processBuyNft(accounts []*Account) error {
	if len(accounts) != 10 {
		return ErrAccountMismatch
	}

	buyer := accounts[0]
	listing := accounts[1]
	seller := accounts[4]
	feeCollector := accounts[5]
	nftMint := accounts[6]
	marketplace := accounts[7]
	tokenProgram := accounts[8]
	systemProgram := accounts[9]

	if !buyer.IsSigner {
		return ErrMissingSignature
	}

	if !tokenProgram.hasKey(SPL_TOKEN_PROGRAM_ID) || !systemProgram.hasKey(SYSTEM_PROGRAM_ID) {
		return ErrAccountMismatch
	}

	// A listing that never existed, was sold, or was cancelled all present
	// the same way: no live listing record at the address.
	if !listing.IsInitialized() {
		return ErrListingNotActive
	}
	var listingRecord ListingAccount
	if err := listingRecord.Unmarshal(listing.Data); err != nil {
		return err
	}

	if !nftMint.hasKey(listingRecord.NftMint) {
		return ErrAccountMismatch
	}
	if !seller.hasKey(listingRecord.Seller) {
		return ErrAccountMismatch
	}
	if !marketplace.hasKey(listingRecord.Marketplace) {
		return ErrAccountMismatch
	}

	expectedListing, _, err := GetListingAddress(&GetListingAddressArgs{
		NftMint: listingRecord.NftMint,
		Seller:  listingRecord.Seller,
	})
	if err != nil {
		return err
	}
	if !listing.hasKey(expectedListing) {
		return ErrDerivedAddressMismatch
	}

	if !marketplace.IsInitialized() {
		return ErrNotInitialized
	}
	var marketplaceRecord MarketplaceAccount
	if err := marketplaceRecord.Unmarshal(marketplace.Data); err != nil {
		return err
	}

	expectedMarketplace, _, err := GetMarketplaceAddress(&GetMarketplaceAddressArgs{
		Authority: marketplaceRecord.Authority,
	})
	if err != nil {
		return err
	}
	if !marketplace.hasKey(expectedMarketplace) {
		return ErrDerivedAddressMismatch
	}

	// The fee collector is always re-derived from the marketplace referenced
	// by the listing, never from the seller.
	expectedFeeCollector, _, err := GetFeeCollectorAddress(&GetFeeCollectorAddressArgs{
		Marketplace: marketplace.Key,
	})
	if err != nil {
		return err
	}
	if !feeCollector.hasKey(expectedFeeCollector) {
		return ErrDerivedAddressMismatch
	}

	if !buyer.IsWritable || !listing.IsWritable || !seller.IsWritable || !feeCollector.IsWritable || !marketplace.IsWritable {
		return ErrAccountMismatch
	}

	price := listingRecord.Price

	fee, err := marketplaceRecord.CalculateFee(price)
	if err != nil {
		return err
	}
	sellerProceeds := price - fee

	if buyer.Lamports < price {
		return ErrInsufficientFunds
	}

	// The listing account is closed and its rent returned to the seller
	// along with the proceeds.
	newSellerLamports, ok := checkedAdd(seller.Lamports, sellerProceeds)
	if !ok {
		return ErrNumericOverflow
	}
	newSellerLamports, ok = checkedAdd(newSellerLamports, listing.Lamports)
	if !ok {
		return ErrNumericOverflow
	}
	newFeeCollectorLamports, ok := checkedAdd(feeCollector.Lamports, fee)
	if !ok {
		return ErrNumericOverflow
	}
	newTotalVolume, ok := checkedAdd(marketplaceRecord.TotalVolume, price)
	if !ok {
		return ErrNumericOverflow
	}
	newTotalSales, ok := checkedAdd(marketplaceRecord.TotalSales, 1)
	if !ok {
		return ErrNumericOverflow
	}

	marketplaceRecord.TotalVolume = newTotalVolume
	marketplaceRecord.TotalSales = newTotalSales

	buyer.Lamports -= price
	seller.Lamports = newSellerLamports
	feeCollector.Lamports = newFeeCollectorLamports
	marketplace.Data = marketplaceRecord.Marshal()
	closeAccount(listing)

	p.log.WithFields(logrus.Fields{
		"price": price,
		"fee":   fee,
	}).Debug("nft sold")
	return nil
}

// Accounts: [seller(signer, writable), listing(writable), nft mint]
func (p *Processor) processCancelListing(accounts []*Account) error {
	if len(accounts) != 3 {
		return ErrAccountMismatch
	}

	seller := accounts[0]
	listing := accounts[1]
	nftMint := accounts[2]

	if !seller.IsSigner {
		return ErrMissingSignature
	}

	if !listing.IsInitialized() {
		return ErrListingNotActive
	}
	var listingRecord ListingAccount
	if err := listingRecord.Unmarshal(listing.Data); err != nil {
		return err
	}

	if !seller.hasKey(listingRecord.Seller) {
		return ErrUnauthorized
	}
	if !nftMint.hasKey(listingRecord.NftMint) {
		return ErrAccountMismatch
	}

	expected, _, err := GetListingAddress(&GetListingAddressArgs{
		NftMint: listingRecord.NftMint,
		Seller:  listingRecord.Seller,
	})
	if err != nil {
		return err
	}
	if !listing.hasKey(expected) {
		return ErrDerivedAddressMismatch
	}

	if !seller.IsWritable || !listing.IsWritable {
		return ErrAccountMismatch
	}

	newSellerLamports, ok := checkedAdd(seller.Lamports, listing.Lamports)
	if !ok {
		return ErrNumericOverflow
	}

	seller.Lamports = newSellerLamports
	closeAccount(listing)

	p.log.Debug("listing cancelled")
	return nil
}

// Accounts: [authority(signer), marketplace(writable)]
func (p *Processor) processUpdateMarketplaceFee(accounts []*Account, args *UpdateMarketplaceFeeInstructionArgs) error {
	if len(accounts) != 2 {
		return ErrAccountMismatch
	}

	authority := accounts[0]
	marketplace := accounts[1]

	if args.NewFeeBasisPoints > MaxFeeBasisPoints {
		return ErrInvalidFeePercentage
	}

	if !authority.IsSigner {
		return ErrMissingSignature
	}

	if !marketplace.IsInitialized() {
		return ErrNotInitialized
	}
	var record MarketplaceAccount
	if err := record.Unmarshal(marketplace.Data); err != nil {
		return err
	}

	if !authority.hasKey(record.Authority) {
		return ErrUnauthorized
	}

	expected, _, err := GetMarketplaceAddress(&GetMarketplaceAddressArgs{
		Authority: record.Authority,
	})
	if err != nil {
		return err
	}
	if !marketplace.hasKey(expected) {
		return ErrDerivedAddressMismatch
	}

	if !marketplace.IsWritable {
		return ErrAccountMismatch
	}

	record.FeeBasisPoints = args.NewFeeBasisPoints
	marketplace.Data = record.Marshal()

	p.log.WithField("new_fee_basis_points", args.NewFeeBasisPoints).Debug("marketplace fee updated")
	return nil
}

// closeAccount zeroes an account and hands it back to the system program.
// The lamport balance must already have been moved to its destination.
func closeAccount(account *Account) {
	account.Lamports = 0
	account.Data = nil
	account.Owner = SYSTEM_PROGRAM_ID
}

func checkedAdd(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}
