package fill

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftex/fill-engine/pkg/types"
)

// invertOrder rebuilds an order from the filler's perspective: sides
// swapped, maker set to the filler, taker set to the original maker, and
// the signature cleared (the filler never signs the maker's order). The
// input is never mutated.
//
// When amount names a partial quantity of the maker's make asset, the
// inverted order's take is that amount and its make is scaled
// proportionally (floored, matching the contract's fill math).
func invertOrder(order types.Order, amount *big.Int, filler common.Address) types.Order {
	inverted := types.Order{
		Type:  order.Type,
		Maker: filler,
		Taker: order.Maker,
		Make:  order.Take.Copy(),
		Take:  order.Make.Copy(),
		Salt:  big.NewInt(0),
		Data:  order.Data,
	}

	if amount != nil && order.Make.Value != nil && order.Make.Value.Sign() > 0 && amount.Cmp(order.Make.Value) != 0 {
		scaled := new(big.Int).Mul(order.Take.Value, amount)
		scaled.Div(scaled, order.Make.Value)
		inverted.Make.Value = scaled
		inverted.Take.Value = new(big.Int).Set(amount)
	}

	return inverted
}
