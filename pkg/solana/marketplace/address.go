package marketplace

import (
	"crypto/ed25519"

	"github.com/solmarket/marketplace-server/pkg/solana"
)

// Seed prefixes are a stable wire contract. Changing any of them orphans all
// accounts derived under the old prefix.
var (
	MarketplacePrefix  = []byte("marketplace")
	ListingPrefix      = []byte("listing")
	FeeCollectorPrefix = []byte("fee")
)

type GetMarketplaceAddressArgs struct {
	Authority ed25519.PublicKey
}

// GetMarketplaceAddress derives the marketplace account address for an
// authority. One marketplace exists per authority.
func GetMarketplaceAddress(args *GetMarketplaceAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		MarketplacePrefix,
		args.Authority,
	)
}

type GetListingAddressArgs struct {
	NftMint ed25519.PublicKey
	Seller  ed25519.PublicKey
}

// GetListingAddress derives the listing account address for an (nft mint,
// seller) pair. The same seller can list distinct mints, while a second
// listing of the same mint by the same seller collides with the first
// account and is rejected at creation.
func GetListingAddress(args *GetListingAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		ListingPrefix,
		args.NftMint,
		args.Seller,
	)
}

type GetFeeCollectorAddressArgs struct {
	Marketplace ed25519.PublicKey
}

// GetFeeCollectorAddress derives the fee collector address for a marketplace.
func GetFeeCollectorAddress(args *GetFeeCollectorAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		FeeCollectorPrefix,
		args.Marketplace,
	)
}
