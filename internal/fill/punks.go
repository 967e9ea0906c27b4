package fill

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/approve"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

const punkMarketABIJSON = `[
	{"inputs":[{"name":"punkIndex","type":"uint256"}],"name":"buyPunk",
	 "outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[
		{"name":"punkIndex","type":"uint256"},
		{"name":"minPrice","type":"uint256"}],
	 "name":"acceptBidForPunk","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var punkMarketABI = ethwallet.MustABI(punkMarketABIJSON)

// punkHandler fills orders against the punk market contract itself.
// There is no order matching: the market holds the offer or bid on chain
// and a single direct call settles it. Fees are always zero.
type punkHandler struct {
	network  config.Network
	approver *approve.Approver
	logger   *zap.Logger
}

func newPunkHandler(network config.Network, approver *approve.Approver, logger *zap.Logger) *punkHandler {
	return &punkHandler{network: network, approver: approver, logger: logger}
}

func (h *punkHandler) invert(req Request, filler common.Address) (types.Order, error) {
	// Rejecting here keeps the approve stage from spending a
	// transaction on an order no market call can settle.
	if req.Order.Make.Type.Class != types.AssetCryptoPunks &&
		req.Order.Take.Type.Class != types.AssetCryptoPunks {
		return types.Order{}, &types.UnsupportedAssetError{Class: req.Order.Make.Type.Class}
	}

	inverted := invertOrder(req.Order, req.Amount, filler)
	inverted.Data = types.CryptoPunkData{}
	return inverted, nil
}

func (h *punkHandler) approve(ctx context.Context, inverted types.Order, infinite bool) error {
	return h.approver.Approve(ctx, inverted.Maker, inverted.Make, infinite)
}

func (h *punkHandler) transactionData(_ context.Context, original, inverted types.Order) (ethwallet.Call, ethwallet.SendOptions, error) {
	var call ethwallet.Call
	var err error

	switch {
	case original.Make.Type.Class == types.AssetCryptoPunks:
		call, err = ethwallet.BindCall(original.Make.Type.Contract, punkMarketABI, "buyPunk",
			punkIndex(original.Make.Type.TokenID))
	case original.Take.Type.Class == types.AssetCryptoPunks:
		call, err = ethwallet.BindCall(original.Take.Type.Contract, punkMarketABI, "acceptBidForPunk",
			punkIndex(original.Take.Type.TokenID), original.Make.Value)
	default:
		return ethwallet.Call{}, ethwallet.SendOptions{}, &types.UnsupportedAssetError{Class: original.Make.Type.Class}
	}
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	opts := ethwallet.SendOptions{}
	if inverted.Make.Type.Class == types.AssetETH {
		opts.Value = inverted.Make.Value
	}
	return call, opts, nil
}

func (h *punkHandler) orderFee(types.Order) int64 { return 0 }

func (h *punkHandler) baseOrderFee(types.Order) int64 { return 0 }

func punkIndex(tokenID *big.Int) *big.Int {
	if tokenID == nil {
		return big.NewInt(0)
	}
	return tokenID
}
