package ethwallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Call is a prepared contract call: a target and ABI-encoded call data.
type Call struct {
	To     common.Address
	Method string
	Data   []byte
}

// SendOptions carries per-transaction overrides. Value is the native
// currency amount attached to the transaction.
type SendOptions struct {
	Value    *big.Int
	GasLimit uint64
}

// Transaction is a pending transaction handle. The underlying transaction
// may still be mined even if the caller stops waiting on it.
type Transaction struct {
	Hash common.Hash
	wait func(ctx context.Context) (*gethtypes.Receipt, error)
}

// NewTransaction wraps a broadcast transaction hash with its receipt waiter.
func NewTransaction(hash common.Hash, wait func(ctx context.Context) (*gethtypes.Receipt, error)) *Transaction {
	return &Transaction{Hash: hash, wait: wait}
}

// Wait blocks until the transaction is mined and returns its receipt.
func (t *Transaction) Wait(ctx context.Context) (*gethtypes.Receipt, error) {
	return t.wait(ctx)
}

// SendFunc submits a prepared call. It may route through a relay or
// gateway rather than directly to the chain; callers are agnostic.
type SendFunc func(ctx context.Context, call Call, opts SendOptions) (*Transaction, error)

// Provider is what the fill engine needs from a wallet-connected node:
// the active account, the chain it is on, read-only calls, and sends.
type Provider interface {
	From(ctx context.Context) (common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
	Call(ctx context.Context, call Call) ([]byte, error)
	Send(ctx context.Context, call Call, opts SendOptions) (*Transaction, error)
}

// WaitTx sends a call and blocks until it is mined, failing on revert.
// Approvals use this: they are synchronous prerequisites, not fire-and-forget.
func WaitTx(ctx context.Context, send SendFunc, call Call, opts SendOptions) error {
	tx, err := send(ctx, call, opts)
	if err != nil {
		return err
	}
	receipt, err := tx.Wait(ctx)
	if err != nil {
		return err
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return &RevertError{TxHash: tx.Hash, Method: call.Method}
	}
	return nil
}

// RevertError reports a mined-but-reverted transaction.
type RevertError struct {
	TxHash common.Hash
	Method string
}

func (e *RevertError) Error() string {
	return "transaction reverted: " + e.Method + " (" + e.TxHash.Hex() + ")"
}
