package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInstruction_InitializeMarketplace(t *testing.T) {
	instruction := NewInitializeMarketplaceInstruction(
		&InitializeMarketplaceInstructionAccounts{
			Authority:   generateKey(t),
			Marketplace: generateKey(t),
		},
		&InitializeMarketplaceInstructionArgs{FeeBasisPoints: 250},
	)

	require.Len(t, instruction.Accounts, 4)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)
	assert.EqualValues(t, SYSTEM_PROGRAM_ID, instruction.Accounts[2].PublicKey)
	assert.EqualValues(t, SYSVAR_RENT_PUBKEY, instruction.Accounts[3].PublicKey)

	decoded, err := DecodeInstruction(instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, CommandInitializeMarketplace, decoded.Command)
	require.NotNil(t, decoded.InitializeMarketplace)
	assert.EqualValues(t, 250, decoded.InitializeMarketplace.FeeBasisPoints)
}

func TestDecodeInstruction_ListNft(t *testing.T) {
	instruction := NewListNftInstruction(
		&ListNftInstructionAccounts{
			Seller:             generateKey(t),
			Listing:            generateKey(t),
			NftMint:            generateKey(t),
			SellerTokenAccount: generateKey(t),
			Marketplace:        generateKey(t),
		},
		&ListNftInstructionArgs{Price: 5_000_000_000},
	)

	require.Len(t, instruction.Accounts, 7)
	assert.True(t, instruction.Accounts[0].IsSigner)

	decoded, err := DecodeInstruction(instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, CommandListNft, decoded.Command)
	require.NotNil(t, decoded.ListNft)
	assert.EqualValues(t, 5_000_000_000, decoded.ListNft.Price)
}

func TestDecodeInstruction_BuyNft(t *testing.T) {
	instruction := NewBuyNftInstruction(&BuyNftInstructionAccounts{
		Buyer:              generateKey(t),
		Listing:            generateKey(t),
		BuyerTokenAccount:  generateKey(t),
		SellerTokenAccount: generateKey(t),
		Seller:             generateKey(t),
		FeeCollector:       generateKey(t),
		NftMint:            generateKey(t),
		Marketplace:        generateKey(t),
	})

	require.Len(t, instruction.Accounts, 10)
	assert.EqualValues(t, SPL_TOKEN_PROGRAM_ID, instruction.Accounts[8].PublicKey)
	assert.EqualValues(t, SYSTEM_PROGRAM_ID, instruction.Accounts[9].PublicKey)

	decoded, err := DecodeInstruction(instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, CommandBuyNft, decoded.Command)
	assert.Nil(t, decoded.InitializeMarketplace)
	assert.Nil(t, decoded.ListNft)
	assert.Nil(t, decoded.UpdateMarketplaceFee)
}

func TestDecodeInstruction_CancelListing(t *testing.T) {
	instruction := NewCancelListingInstruction(&CancelListingInstructionAccounts{
		Seller:  generateKey(t),
		Listing: generateKey(t),
		NftMint: generateKey(t),
	})

	require.Len(t, instruction.Accounts, 3)

	decoded, err := DecodeInstruction(instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, CommandCancelListing, decoded.Command)
}

func TestDecodeInstruction_UpdateMarketplaceFee(t *testing.T) {
	instruction := NewUpdateMarketplaceFeeInstruction(
		&UpdateMarketplaceFeeInstructionAccounts{
			Authority:   generateKey(t),
			Marketplace: generateKey(t),
		},
		&UpdateMarketplaceFeeInstructionArgs{NewFeeBasisPoints: 500},
	)

	decoded, err := DecodeInstruction(instruction.Data)
	require.NoError(t, err)
	assert.Equal(t, CommandUpdateMarketplaceFee, decoded.Command)
	require.NotNil(t, decoded.UpdateMarketplaceFee)
	assert.EqualValues(t, 500, decoded.UpdateMarketplaceFee.NewFeeBasisPoints)
}

func TestDecodeInstruction_Unrecognized(t *testing.T) {
	_, err := DecodeInstruction([]byte{5})
	assert.Equal(t, ErrUnrecognizedInstruction, err)

	_, err = DecodeInstruction([]byte{255, 0, 0})
	assert.Equal(t, ErrUnrecognizedInstruction, err)
}

func TestDecodeInstruction_Malformed(t *testing.T) {
	_, err := DecodeInstruction(nil)
	assert.Equal(t, ErrMalformedInstructionData, err)

	// Truncated args
	_, err = DecodeInstruction([]byte{uint8(CommandInitializeMarketplace), 0xfa})
	assert.Equal(t, ErrMalformedInstructionData, err)
	_, err = DecodeInstruction([]byte{uint8(CommandListNft), 1, 2, 3})
	assert.Equal(t, ErrMalformedInstructionData, err)
	_, err = DecodeInstruction([]byte{uint8(CommandUpdateMarketplaceFee)})
	assert.Equal(t, ErrMalformedInstructionData, err)

	// Oversized args
	_, err = DecodeInstruction([]byte{uint8(CommandBuyNft), 0})
	assert.Equal(t, ErrMalformedInstructionData, err)
	_, err = DecodeInstruction([]byte{uint8(CommandCancelListing), 0})
	assert.Equal(t, ErrMalformedInstructionData, err)
}
