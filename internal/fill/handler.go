package fill

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

// Request asks the engine to fill an order. Amount selects a partial
// quantity of the maker's make asset (nil means the whole order).
// Infinite selects unlimited rather than exact-value ERC-20 approvals.
// Payouts and OriginFees apply to the filler's side of V2 orders.
type Request struct {
	Order      types.Order
	Amount     *big.Int
	Infinite   bool
	Payouts    []types.Part
	OriginFees []types.Part
}

// handler is the per-protocol capability set. Handlers are stateless:
// everything they need arrives at construction or per call.
type handler interface {
	// invert rebuilds the order from the filler's perspective, failing
	// when the order's asset combination is invalid for the protocol.
	invert(req Request, filler common.Address) (types.Order, error)

	// approve issues whatever approval transactions the protocol's
	// transfer proxy needs, returning only once all of them are mined.
	approve(ctx context.Context, inverted types.Order, infinite bool) error

	// transactionData constructs the protocol's match call.
	transactionData(ctx context.Context, original, inverted types.Order) (ethwallet.Call, ethwallet.SendOptions, error)

	// orderFee is the effective protocol fee of the order in basis points.
	orderFee(order types.Order) int64

	// baseOrderFee is the protocol's base fee for this kind of order.
	baseOrderFee(order types.Order) int64
}
