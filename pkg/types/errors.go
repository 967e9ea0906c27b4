package types

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the fill pipeline.
var (
	// ErrWalletUndefined means no signer is available for the operation.
	ErrWalletUndefined = errors.New("wallet undefined")

	// ErrProxyRegistrationTimeout means a registered proxy never became
	// visible within the backoff budget.
	ErrProxyRegistrationTimeout = errors.New("proxy registration timeout: expected non-zero proxy address")
)

// WrongChainIDError is returned before any signing or spending when the
// wallet is connected to a different chain than the engine is configured for.
type WrongChainIDError struct {
	Wallet     uint64
	Configured uint64
}

func (e *WrongChainIDError) Error() string {
	return fmt.Sprintf("wrong chain id: wallet is on %d, configured for %d", e.Wallet, e.Configured)
}

// UnsupportedOrderError is returned when an order's protocol tag has no
// registered handler. The serialized order is carried for diagnosis.
type UnsupportedOrderError struct {
	Order *Order
}

func (e *UnsupportedOrderError) Error() string {
	return fmt.Sprintf("unsupported order: %s", marshalForDiagnostics(e.Order))
}

// UnsupportedAssetError is returned when an order's asset combination is
// not valid for the protocol that should fill it.
type UnsupportedAssetError struct {
	Class AssetClass
}

func (e *UnsupportedAssetError) Error() string {
	return fmt.Sprintf("unsupported asset type: %s", e.Class)
}

// InvalidOrderError is returned when a protocol-specific order invariant
// is violated (e.g. a missing fee recipient).
type InvalidOrderError struct {
	Reason string
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order: %s", e.Reason)
}
