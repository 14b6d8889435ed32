package marketplace

// Command is the one-byte instruction discriminator at the start of every
// instruction payload. Values are a stable wire contract.
type Command uint8

const (
	CommandInitializeMarketplace Command = iota
	CommandListNft
	CommandBuyNft
	CommandCancelListing
	CommandUpdateMarketplaceFee
)

func (c Command) String() string {
	switch c {
	case CommandInitializeMarketplace:
		return "InitializeMarketplace"
	case CommandListNft:
		return "ListNft"
	case CommandBuyNft:
		return "BuyNft"
	case CommandCancelListing:
		return "CancelListing"
	case CommandUpdateMarketplaceFee:
		return "UpdateMarketplaceFee"
	}
	return "Unknown"
}

const (
	InitializeMarketplaceInstructionArgsSize = 2 // fee_basis_points
	ListNftInstructionArgsSize               = 8 // price
	BuyNftInstructionArgsSize                = 0
	CancelListingInstructionArgsSize         = 0
	UpdateMarketplaceFeeInstructionArgsSize  = 2 // new_fee_basis_points
)

type InitializeMarketplaceInstructionArgs struct {
	FeeBasisPoints uint16
}

type ListNftInstructionArgs struct {
	Price uint64
}

type UpdateMarketplaceFeeInstructionArgs struct {
	NewFeeBasisPoints uint16
}

// DecodedInstruction is the result of decoding an instruction payload.
// Exactly one of the args pointers is set, matching Command; commands
// without parameters carry no args.
type DecodedInstruction struct {
	Command Command

	InitializeMarketplace *InitializeMarketplaceInstructionArgs
	ListNft               *ListNftInstructionArgs
	UpdateMarketplaceFee  *UpdateMarketplaceFeeInstructionArgs
}

// DecodeInstruction parses an opaque instruction payload into a typed
// operation. ErrUnrecognizedInstruction is returned for an unknown command
// byte, ErrMalformedInstructionData when a recognized command's parameters
// are truncated or oversized.
func DecodeInstruction(data []byte) (*DecodedInstruction, error) {
	if len(data) == 0 {
		return nil, ErrMalformedInstructionData
	}

	var offset int
	var commandByte uint8
	getUint8(data, &commandByte, &offset)

	decoded := &DecodedInstruction{Command: Command(commandByte)}

	switch decoded.Command {
	case CommandInitializeMarketplace:
		if len(data) != 1+InitializeMarketplaceInstructionArgsSize {
			return nil, ErrMalformedInstructionData
		}

		var args InitializeMarketplaceInstructionArgs
		getUint16(data, &args.FeeBasisPoints, &offset)
		decoded.InitializeMarketplace = &args
	case CommandListNft:
		if len(data) != 1+ListNftInstructionArgsSize {
			return nil, ErrMalformedInstructionData
		}

		var args ListNftInstructionArgs
		getUint64(data, &args.Price, &offset)
		decoded.ListNft = &args
	case CommandBuyNft:
		if len(data) != 1+BuyNftInstructionArgsSize {
			return nil, ErrMalformedInstructionData
		}
	case CommandCancelListing:
		if len(data) != 1+CancelListingInstructionArgsSize {
			return nil, ErrMalformedInstructionData
		}
	case CommandUpdateMarketplaceFee:
		if len(data) != 1+UpdateMarketplaceFeeInstructionArgsSize {
			return nil, ErrMalformedInstructionData
		}

		var args UpdateMarketplaceFeeInstructionArgs
		getUint16(data, &args.NewFeeBasisPoints, &offset)
		decoded.UpdateMarketplaceFee = &args
	default:
		return nil, ErrUnrecognizedInstruction
	}

	return decoded, nil
}

func putCommand(dst []byte, v Command, offset *int) {
	dst[*offset] = uint8(v)
	*offset += 1
}
