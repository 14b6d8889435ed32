package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrInvalidPublicKey indicates the derived address lies on the ed25519
	// curve and therefore has an associated private key, which program
	// addresses must not have.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrDerivationExhausted indicates no off-curve address exists within
	// the bump search range for the provided seed tuple.
	ErrDerivationExhausted = errors.New("address derivation exhausted")
)

// CreateProgramAddress derives a program address from a program id and a set
// of seeds, following the Solana SDK's CreateProgramAddress.
//
// Program addresses are public keys that do _not_ lie on the ed25519 curve,
// guaranteeing no private key exists for them. If the seeds produce a valid
// curve point, ErrInvalidPublicKey is returned and the caller should try a
// different bump seed.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := sha256.New()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte("ProgramDerivedAddress")} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	hash := h.Sum(nil)
	var pub [32]byte
	copy(pub[:], hash)

	// Reject the candidate if it is a valid compressed EdwardsPoint. The
	// x/crypto library keeps its point type internal, so the check relies
	// on an open source alternative that exposes it.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	var A edwards25519.ExtendedGroupElement
	if A.FromBytes(&pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump searches for an off-curve program address by
// appending a bump seed, starting at 255 and decrementing. It returns the
// first valid address along with the bump that produced it.
//
// ErrDerivationExhausted is returned if no bump in [0, 255] yields an
// off-curve address, which is vanishingly unlikely for honest inputs but
// must be surfaced distinctly so callers can reject the seed tuple.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	bumpSeed := []byte{math.MaxUint8}
	for i := 0; i <= math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, append(seeds, bumpSeed)...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}
		if bumpSeed[0] == 0 {
			break
		}

		bumpSeed[0]--
	}

	return nil, 0, ErrDerivationExhausted
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}
