// Package marketplace implements the on-chain NFT marketplace program: the
// account schema, deterministic address derivation, the instruction codec,
// and the instruction processor that executes state transitions over
// program-owned accounts.
package marketplace

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("4fb7RA8X1o5QaiqB87iWBCKMq2LQtbAyJWJteCrfhZru")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID    = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
	SPL_TOKEN_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"))

	SYSVAR_RENT_PUBKEY = ed25519.PublicKey(mustBase58Decode("SysvarRent111111111111111111111111111111111"))
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
