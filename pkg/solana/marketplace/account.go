package marketplace

import (
	"bytes"
	"crypto/ed25519"
)

// Account is the processor's runtime view of one account referenced by an
// instruction: its address, owning program, lamport balance, data, and the
// permissions the transaction granted over it.
//
// The processor mutates Lamports, Data, and Owner in place; the surrounding
// execution environment is responsible for committing or discarding those
// mutations atomically per invocation.
type Account struct {
	Key      ed25519.PublicKey
	Owner    ed25519.PublicKey
	Lamports uint64
	Data     []byte

	IsSigner   bool
	IsWritable bool
}

// IsInitialized reports whether the account holds a live program record. A
// zeroed or empty data buffer is uninitialized regardless of owner.
func (a *Account) IsInitialized() bool {
	return len(a.Data) > 0 && AccountType(a.Data[0]) != AccountTypeUninitialized
}

func (a *Account) hasKey(key ed25519.PublicKey) bool {
	return bytes.Equal(a.Key, key)
}
