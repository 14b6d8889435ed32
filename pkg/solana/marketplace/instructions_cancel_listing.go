package marketplace

import (
	"crypto/ed25519"

	"github.com/solmarket/marketplace-server/pkg/solana"
)

type CancelListingInstructionAccounts struct {
	Seller  ed25519.PublicKey
	Listing ed25519.PublicKey
	NftMint ed25519.PublicKey
}

func NewCancelListingInstruction(
	accounts *CancelListingInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+CancelListingInstructionArgsSize)

	putCommand(data, CommandCancelListing, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Seller,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Listing,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.NftMint,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
