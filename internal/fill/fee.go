package fill

import (
	"math/big"

	"github.com/nftex/fill-engine/pkg/types"
)

var bpsDenominator = big.NewInt(10000)

// AssetWithFee returns a copy of the asset with the protocol fee added on
// top: value + floor(value * feeBps / 10000). Flooring keeps the approved
// amount exactly equal to what the receiving contract will pull; both the
// approval and the send path must use this same computation.
func AssetWithFee(asset types.Asset, feeBps int64) types.Asset {
	out := asset.Copy()
	if feeBps == 0 || out.Value == nil {
		return out
	}
	fee := feePortion(out.Value, feeBps)
	out.Value = new(big.Int).Add(out.Value, fee)
	return out
}

// feePortion computes floor(value * feeBps / 10000).
func feePortion(value *big.Int, feeBps int64) *big.Int {
	fee := new(big.Int).Mul(value, big.NewInt(feeBps))
	return fee.Div(fee, bpsDenominator)
}
