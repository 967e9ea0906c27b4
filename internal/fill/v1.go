package fill

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/approve"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

// Legacy exchange asset-kind enum, protocol-mandated.
const (
	v1AssetETH     uint8 = 0
	v1AssetERC20   uint8 = 1
	v1AssetERC1155 uint8 = 2
	v1AssetERC721  uint8 = 3
)

const exchangeV1ABIJSON = `[
	{"constant":false,"inputs":[
		{"name":"order","type":"tuple","components":[
			{"name":"key","type":"tuple","components":[
				{"name":"owner","type":"address"},
				{"name":"salt","type":"uint256"},
				{"name":"sellAsset","type":"tuple","components":[
					{"name":"token","type":"address"},
					{"name":"tokenId","type":"uint256"},
					{"name":"assetType","type":"uint8"}]},
				{"name":"buyAsset","type":"tuple","components":[
					{"name":"token","type":"address"},
					{"name":"tokenId","type":"uint256"},
					{"name":"assetType","type":"uint8"}]}]},
			{"name":"selling","type":"uint256"},
			{"name":"buying","type":"uint256"},
			{"name":"sellerFee","type":"uint256"}]},
		{"name":"sig","type":"tuple","components":[
			{"name":"v","type":"uint8"},
			{"name":"r","type":"bytes32"},
			{"name":"s","type":"bytes32"}]},
		{"name":"buyerFee","type":"uint256"},
		{"name":"buyerFeeSig","type":"tuple","components":[
			{"name":"v","type":"uint8"},
			{"name":"r","type":"bytes32"},
			{"name":"s","type":"bytes32"}]},
		{"name":"amount","type":"uint256"},
		{"name":"buyer","type":"address"}],
	 "name":"exchange","outputs":[],"payable":true,"stateMutability":"payable","type":"function"},
	{"constant":false,"inputs":[
		{"name":"key","type":"tuple","components":[
			{"name":"owner","type":"address"},
			{"name":"salt","type":"uint256"},
			{"name":"sellAsset","type":"tuple","components":[
				{"name":"token","type":"address"},
				{"name":"tokenId","type":"uint256"},
				{"name":"assetType","type":"uint8"}]},
			{"name":"buyAsset","type":"tuple","components":[
				{"name":"token","type":"address"},
				{"name":"tokenId","type":"uint256"},
				{"name":"assetType","type":"uint8"}]}]}],
	 "name":"cancel","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

var exchangeV1ABI = ethwallet.MustABI(exchangeV1ABIJSON)

type v1AssetDTO struct {
	Token     common.Address
	TokenId   *big.Int
	AssetType uint8
}

type v1OrderKeyDTO struct {
	Owner     common.Address
	Salt      *big.Int
	SellAsset v1AssetDTO
	BuyAsset  v1AssetDTO
}

type v1OrderDTO struct {
	Key       v1OrderKeyDTO
	Selling   *big.Int
	Buying    *big.Int
	SellerFee *big.Int
}

type vrsDTO struct {
	V uint8
	R [32]byte
	S [32]byte
}

// exchangeV1Handler fills orders on the legacy native exchange: a single
// flat fee on the order, and a backend-countersigned buyer fee.
type exchangeV1Handler struct {
	network  config.Network
	approver *approve.Approver
	orderAPI OrderAPI
	logger   *zap.Logger
}

func newExchangeV1Handler(network config.Network, approver *approve.Approver, orderAPI OrderAPI, logger *zap.Logger) *exchangeV1Handler {
	return &exchangeV1Handler{
		network:  network,
		approver: approver,
		orderAPI: orderAPI,
		logger:   logger,
	}
}

func (h *exchangeV1Handler) invert(req Request, filler common.Address) (types.Order, error) {
	data, err := v1Data(req.Order)
	if err != nil {
		return types.Order{}, err
	}
	if _, err := v1AssetKind(req.Order.Make.Type.Class); err != nil {
		return types.Order{}, err
	}
	if _, err := v1AssetKind(req.Order.Take.Type.Class); err != nil {
		return types.Order{}, err
	}

	inverted := invertOrder(req.Order, req.Amount, filler)
	inverted.Data = types.ExchangeV1Data{Fee: data.Fee}
	return inverted, nil
}

func (h *exchangeV1Handler) approve(ctx context.Context, inverted types.Order, infinite bool) error {
	withFee := AssetWithFee(inverted.Make, h.orderFee(inverted))
	return h.approver.Approve(ctx, inverted.Maker, withFee, infinite)
}

func (h *exchangeV1Handler) transactionData(ctx context.Context, original, inverted types.Order) (ethwallet.Call, ethwallet.SendOptions, error) {
	dto, err := v1OrderToDTO(original)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	fee := h.orderFee(original)
	buyerFeeSig, err := h.orderAPI.BuyerFeeSignature(ctx, inverted, fee)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, fmt.Errorf("buyer fee signature: %w", err)
	}

	sigV, sigR, sigS := splitSignature(original.Signature)
	feeV, feeR, feeS := splitSignature(buyerFeeSig)

	call, err := ethwallet.BindCall(h.network.Exchange.V1, exchangeV1ABI, "exchange",
		dto,
		vrsDTO{V: sigV, R: sigR, S: sigS},
		big.NewInt(fee),
		vrsDTO{V: feeV, R: feeR, S: feeS},
		inverted.Take.Value,
		inverted.Maker,
	)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	opts := ethwallet.SendOptions{}
	if inverted.Make.Type.Class == types.AssetETH {
		opts.Value = AssetWithFee(inverted.Make, fee).Value
	}
	return call, opts, nil
}

func (h *exchangeV1Handler) orderFee(order types.Order) int64 {
	data, err := v1Data(order)
	if err != nil {
		return 0
	}
	return data.Fee
}

func (h *exchangeV1Handler) baseOrderFee(types.Order) int64 {
	return 0
}

func v1Data(order types.Order) (types.ExchangeV1Data, error) {
	data, ok := order.Data.(types.ExchangeV1Data)
	if !ok {
		return types.ExchangeV1Data{}, &types.InvalidOrderError{Reason: "legacy order without legacy data"}
	}
	return data, nil
}

func v1AssetKind(class types.AssetClass) (uint8, error) {
	switch class {
	case types.AssetETH:
		return v1AssetETH, nil
	case types.AssetERC20:
		return v1AssetERC20, nil
	case types.AssetERC1155:
		return v1AssetERC1155, nil
	case types.AssetERC721:
		return v1AssetERC721, nil
	default:
		return 0, &types.UnsupportedAssetError{Class: class}
	}
}

func v1AssetToDTO(asset types.Asset) (v1AssetDTO, error) {
	kind, err := v1AssetKind(asset.Type.Class)
	if err != nil {
		return v1AssetDTO{}, err
	}
	tokenID := asset.Type.TokenID
	if tokenID == nil {
		tokenID = big.NewInt(0)
	}
	return v1AssetDTO{
		Token:     asset.Type.Contract,
		TokenId:   tokenID,
		AssetType: kind,
	}, nil
}

func v1OrderToDTO(order types.Order) (v1OrderDTO, error) {
	data, err := v1Data(order)
	if err != nil {
		return v1OrderDTO{}, err
	}
	sell, err := v1AssetToDTO(order.Make)
	if err != nil {
		return v1OrderDTO{}, err
	}
	buy, err := v1AssetToDTO(order.Take)
	if err != nil {
		return v1OrderDTO{}, err
	}
	salt := order.Salt
	if salt == nil {
		salt = big.NewInt(0)
	}
	return v1OrderDTO{
		Key: v1OrderKeyDTO{
			Owner:     order.Maker,
			Salt:      salt,
			SellAsset: sell,
			BuyAsset:  buy,
		},
		Selling:   order.Make.Value,
		Buying:    order.Take.Value,
		SellerFee: big.NewInt(data.Fee),
	}, nil
}
