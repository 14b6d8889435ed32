package marketplace

import (
	"crypto/ed25519"
	"fmt"
	"math/bits"

	"github.com/mr-tron/base58"
)

// AccountType is the one-byte discriminator at the start of every account
// owned by the program. A zero byte marks an uninitialized account, so a
// freshly allocated buffer never decodes as a live record.
type AccountType uint8

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeMarketplace
	AccountTypeListing
	AccountTypeFeeCollector
)

// MaxFeeBasisPoints is the inclusive upper bound on the marketplace fee
// (1000 basis points = 10%).
const MaxFeeBasisPoints = 1000

// FeeDenominator converts basis points to a fraction of the price.
const FeeDenominator = 10000

const (
	MarketplaceAccountSize = (1 + // discriminator
		32 + // authority
		2 + // fee_basis_points
		32 + // fee_recipient
		8 + // total_volume
		8) // total_sales

	ListingAccountSize = (1 + // discriminator
		32 + // seller
		32 + // nft_mint
		8 + // price
		8 + // created_at
		32) // marketplace

	FeeCollectorAccountSize = 1 // discriminator
)

// MarketplaceAccount is the persistent record for one marketplace instance.
// There is exactly one per authority, at the address derived from it.
type MarketplaceAccount struct {
	Authority      ed25519.PublicKey
	FeeBasisPoints uint16
	FeeRecipient   ed25519.PublicKey
	TotalVolume    uint64
	TotalSales     uint64
}

func (obj *MarketplaceAccount) Marshal() []byte {
	data := make([]byte, MarketplaceAccountSize)

	var offset int
	putUint8(data, uint8(AccountTypeMarketplace), &offset)
	putKey(data, obj.Authority, &offset)
	putUint16(data, obj.FeeBasisPoints, &offset)
	putKey(data, obj.FeeRecipient, &offset)
	putUint64(data, obj.TotalVolume, &offset)
	putUint64(data, obj.TotalSales, &offset)

	return data
}

func (obj *MarketplaceAccount) Unmarshal(data []byte) error {
	if len(data) < MarketplaceAccountSize {
		return ErrMalformedAccountData
	}

	var offset int

	var discriminator uint8
	getUint8(data, &discriminator, &offset)
	if AccountType(discriminator) != AccountTypeMarketplace {
		return ErrMalformedAccountData
	}

	getKey(data, &obj.Authority, &offset)
	getUint16(data, &obj.FeeBasisPoints, &offset)
	getKey(data, &obj.FeeRecipient, &offset)
	getUint64(data, &obj.TotalVolume, &offset)
	getUint64(data, &obj.TotalSales, &offset)

	return nil
}

// CalculateFee computes the marketplace fee for a sale at the given price,
// rounded down. ErrNumericOverflow is returned if price * fee_basis_points
// exceeds the representable range; this is a protective ceiling, not a
// user-correctable condition.
func (obj *MarketplaceAccount) CalculateFee(price uint64) (uint64, error) {
	hi, lo := bits.Mul64(price, uint64(obj.FeeBasisPoints))
	if hi != 0 {
		return 0, ErrNumericOverflow
	}
	return lo / FeeDenominator, nil
}

// CalculateSellerProceeds computes the amount owed to the seller after the
// marketplace fee. fee + proceeds always equals price exactly.
func (obj *MarketplaceAccount) CalculateSellerProceeds(price uint64) (uint64, error) {
	fee, err := obj.CalculateFee(price)
	if err != nil {
		return 0, err
	}
	return price - fee, nil
}

func (obj *MarketplaceAccount) String() string {
	return fmt.Sprintf(
		"MarketplaceAccount{authority=%s,fee_basis_points=%d,fee_recipient=%s,total_volume=%d,total_sales=%d}",
		base58.Encode(obj.Authority),
		obj.FeeBasisPoints,
		base58.Encode(obj.FeeRecipient),
		obj.TotalVolume,
		obj.TotalSales,
	)
}

// ListingAccount is the persistent record for one active listing. The account
// exists only while the listing is active; a sale or cancellation closes it.
type ListingAccount struct {
	Seller      ed25519.PublicKey
	NftMint     ed25519.PublicKey
	Price       uint64
	CreatedAt   int64
	Marketplace ed25519.PublicKey
}

func (obj *ListingAccount) Marshal() []byte {
	data := make([]byte, ListingAccountSize)

	var offset int
	putUint8(data, uint8(AccountTypeListing), &offset)
	putKey(data, obj.Seller, &offset)
	putKey(data, obj.NftMint, &offset)
	putUint64(data, obj.Price, &offset)
	putInt64(data, obj.CreatedAt, &offset)
	putKey(data, obj.Marketplace, &offset)

	return data
}

func (obj *ListingAccount) Unmarshal(data []byte) error {
	if len(data) < ListingAccountSize {
		return ErrMalformedAccountData
	}

	var offset int

	var discriminator uint8
	getUint8(data, &discriminator, &offset)
	if AccountType(discriminator) != AccountTypeListing {
		return ErrMalformedAccountData
	}

	getKey(data, &obj.Seller, &offset)
	getKey(data, &obj.NftMint, &offset)
	getUint64(data, &obj.Price, &offset)
	getInt64(data, &obj.CreatedAt, &offset)
	getKey(data, &obj.Marketplace, &offset)

	return nil
}

func (obj *ListingAccount) String() string {
	return fmt.Sprintf(
		"ListingAccount{seller=%s,nft_mint=%s,price=%d,created_at=%d,marketplace=%s}",
		base58.Encode(obj.Seller),
		base58.Encode(obj.NftMint),
		obj.Price,
		obj.CreatedAt,
		base58.Encode(obj.Marketplace),
	)
}

// FeeCollectorAccount marks the derived fee destination for a marketplace.
// It carries no fields beyond its discriminator; its lamport balance is the
// collected fee total.
type FeeCollectorAccount struct {
}

func (obj *FeeCollectorAccount) Marshal() []byte {
	return []byte{uint8(AccountTypeFeeCollector)}
}

func (obj *FeeCollectorAccount) Unmarshal(data []byte) error {
	if len(data) < FeeCollectorAccountSize {
		return ErrMalformedAccountData
	}
	if AccountType(data[0]) != AccountTypeFeeCollector {
		return ErrMalformedAccountData
	}
	return nil
}
