package marketplace

import (
	"crypto/ed25519"

	"github.com/solmarket/marketplace-server/pkg/solana"
)

type ListNftInstructionAccounts struct {
	Seller             ed25519.PublicKey
	Listing            ed25519.PublicKey
	NftMint            ed25519.PublicKey
	SellerTokenAccount ed25519.PublicKey
	Marketplace        ed25519.PublicKey
}

func NewListNftInstruction(
	accounts *ListNftInstructionAccounts,
	args *ListNftInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+ListNftInstructionArgsSize)

	putCommand(data, CommandListNft, &offset)
	putUint64(data, args.Price, &offset)

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
			{
				PublicKey:  accounts.SellerTokenAccount,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Marketplace,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSVAR_RENT_PUBKEY,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
