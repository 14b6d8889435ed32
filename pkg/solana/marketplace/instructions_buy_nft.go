package marketplace

import (
	"crypto/ed25519"

	"github.com/solmarket/marketplace-server/pkg/solana"
)

type BuyNftInstructionAccounts struct {
	Buyer              ed25519.PublicKey
	Listing            ed25519.PublicKey
	BuyerTokenAccount  ed25519.PublicKey
	SellerTokenAccount ed25519.PublicKey
	Seller             ed25519.PublicKey
	FeeCollector       ed25519.PublicKey
	NftMint            ed25519.PublicKey
	Marketplace        ed25519.PublicKey
}

func NewBuyNftInstruction(
	accounts *BuyNftInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+BuyNftInstructionArgsSize)

	putCommand(data, CommandBuyNft, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Buyer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Listing,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.BuyerTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.SellerTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Seller,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.FeeCollector,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.NftMint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Marketplace,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SPL_TOKEN_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
