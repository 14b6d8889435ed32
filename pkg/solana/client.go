package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/solmarket/marketplace-server/pkg/retry"
	"github.com/solmarket/marketplace-server/pkg/retry/backoff"
)

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

// Commitment configures how finalized the queried state must be.
type Commitment struct {
	Commitment string `json:"commitment"`
}

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

var (
	ErrNoAccountInfo = errors.New("no account info")

	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

// AccountInfo contains the Solana account information.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// ProgramAccount is an account owned by a program, as returned by
// getProgramAccounts.
type ProgramAccount struct {
	PublicKey ed25519.PublicKey
	Account   AccountInfo
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetSlot(Commitment) (uint64, error)
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetProgramAccounts(program ed25519.PublicKey, commitment Commitment) ([]ProgramAccount, uint64, error)
	GetMinimumBalanceForRentExemption(size uint64) (uint64, error)
}

type client struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClientWithOpts(endpoint, opts),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})

	return err
}

func (c *client) handleRpcError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}

	c.log.WithField("method", method).WithError(err).Debug("rpc call failed")

	switch rpcErr.Code {
	case 429:
		return errRateLimited
	case 500, 502, 503, 504:
		return errServiceError
	}

	return err
}

func (c *client) GetSlot(commitment Commitment) (uint64, error) {
	var slot uint64
	if err := c.call(&slot, "getSlot", commitment); err != nil {
		return 0, errors.Wrap(err, "getSlot() failed to send request")
	}

	return slot, nil
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment Commitment `json:"commitment"`
		Encoding   string     `json:"encoding"`
	}{
		Commitment: commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) GetProgramAccounts(program ed25519.PublicKey, commitment Commitment) ([]ProgramAccount, uint64, error) {
	rpcConfig := struct {
		Commitment  Commitment `json:"commitment"`
		Encoding    string     `json:"encoding"`
		WithContext bool       `json:"withContext"`
	}{
		Commitment:  commitment,
		Encoding:    "base64",
		WithContext: true,
	}

	var resp struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []struct {
			PubKey  string `json:"pubkey"`
			Account struct {
				Lamports   uint64   `json:"lamports"`
				Owner      string   `json:"owner"`
				Data       []string `json:"data"`
				Executable bool     `json:"executable"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := c.call(&resp, "getProgramAccounts", base58.Encode(program), rpcConfig); err != nil {
		return nil, 0, errors.Wrap(err, "getProgramAccounts() failed to send request")
	}

	accounts := make([]ProgramAccount, 0, len(resp.Value))
	for _, entry := range resp.Value {
		pub, err := base58.Decode(entry.PubKey)
		if err != nil {
			return nil, 0, errors.Wrap(err, "invalid base58 encoded pubkey")
		}

		owner, err := base58.Decode(entry.Account.Owner)
		if err != nil {
			return nil, 0, errors.Wrap(err, "invalid base58 encoded owner")
		}

		data, err := base64.StdEncoding.DecodeString(entry.Account.Data[0])
		if err != nil {
			return nil, 0, errors.Wrap(err, "invalid base64 encoded data")
		}

		accounts = append(accounts, ProgramAccount{
			PublicKey: pub,
			Account: AccountInfo{
				Data:       data,
				Owner:      owner,
				Lamports:   entry.Account.Lamports,
				Executable: entry.Account.Executable,
			},
		})
	}

	return accounts, resp.Context.Slot, nil
}

func (c *client) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	var lamports uint64
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", size); err != nil {
		return 0, errors.Wrap(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	return lamports, nil
}
