package marketplace

import (
	"crypto/ed25519"

	"github.com/solmarket/marketplace-server/pkg/solana"
)

type UpdateMarketplaceFeeInstructionAccounts struct {
	Authority   ed25519.PublicKey
	Marketplace ed25519.PublicKey
}

func NewUpdateMarketplaceFeeInstruction(
	accounts *UpdateMarketplaceFeeInstructionAccounts,
	args *UpdateMarketplaceFeeInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, 1+UpdateMarketplaceFeeInstructionArgsSize)

	putCommand(data, CommandUpdateMarketplaceFee, &offset)
	putUint16(data, args.NewFeeBasisPoints, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Marketplace,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}
