package marketplace

import (
	"crypto/ed25519"

	"github.com/solmarket/marketplace-server/pkg/solana"
)

type InitializeMarketplaceInstructionAccounts struct {
	Authority   ed25519.PublicKey
	Marketplace ed25519.PublicKey
}

func NewInitializeMarketplaceInstruction(
	accounts *InitializeMarketplaceInstructionAccounts,
	args *InitializeMarketplaceInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+InitializeMarketplaceInstructionArgsSize)

	putCommand(data, CommandInitializeMarketplace, &offset)
	putUint16(data, args.FeeBasisPoints, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Marketplace,
				IsWritable: true,
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
