package marketplace

const (
	// Default rent parameters of the Solana runtime.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/rent.rs
	lamportsPerByteYear = 3480
	exemptionThreshold  = 2 // years
	accountStorageOverhead = 128
)

// rentExemptBalance returns the minimum lamport balance for an account of
// the given data size to be exempt from rent collection. Accounts created by
// the program are always funded to exemption.
func rentExemptBalance(dataSize uint64) uint64 {
	return (accountStorageOverhead + dataSize) * lamportsPerByteYear * exemptionThreshold
}
