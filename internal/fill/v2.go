package fill

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/approve"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

const exchangeV2ABIJSON = `[
	{"inputs":[
		{"name":"orderLeft","type":"tuple","components":[
			{"name":"maker","type":"address"},
			{"name":"makeAsset","type":"tuple","components":[
				{"name":"assetType","type":"tuple","components":[
					{"name":"assetClass","type":"bytes4"},
					{"name":"data","type":"bytes"}]},
				{"name":"value","type":"uint256"}]},
			{"name":"taker","type":"address"},
			{"name":"takeAsset","type":"tuple","components":[
				{"name":"assetType","type":"tuple","components":[
					{"name":"assetClass","type":"bytes4"},
					{"name":"data","type":"bytes"}]},
				{"name":"value","type":"uint256"}]},
			{"name":"salt","type":"uint256"},
			{"name":"start","type":"uint256"},
			{"name":"end","type":"uint256"},
			{"name":"dataType","type":"bytes4"},
			{"name":"data","type":"bytes"}]},
		{"name":"signatureLeft","type":"bytes"},
		{"name":"orderRight","type":"tuple","components":[
			{"name":"maker","type":"address"},
			{"name":"makeAsset","type":"tuple","components":[
				{"name":"assetType","type":"tuple","components":[
					{"name":"assetClass","type":"bytes4"},
					{"name":"data","type":"bytes"}]},
				{"name":"value","type":"uint256"}]},
			{"name":"taker","type":"address"},
			{"name":"takeAsset","type":"tuple","components":[
				{"name":"assetType","type":"tuple","components":[
					{"name":"assetClass","type":"bytes4"},
					{"name":"data","type":"bytes"}]},
				{"name":"value","type":"uint256"}]},
			{"name":"salt","type":"uint256"},
			{"name":"start","type":"uint256"},
			{"name":"end","type":"uint256"},
			{"name":"dataType","type":"bytes4"},
			{"name":"data","type":"bytes"}]},
		{"name":"signatureRight","type":"bytes"}],
	 "name":"matchOrders","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[
		{"name":"order","type":"tuple","components":[
			{"name":"maker","type":"address"},
			{"name":"makeAsset","type":"tuple","components":[
				{"name":"assetType","type":"tuple","components":[
					{"name":"assetClass","type":"bytes4"},
					{"name":"data","type":"bytes"}]},
				{"name":"value","type":"uint256"}]},
			{"name":"taker","type":"address"},
			{"name":"takeAsset","type":"tuple","components":[
				{"name":"assetType","type":"tuple","components":[
					{"name":"assetClass","type":"bytes4"},
					{"name":"data","type":"bytes"}]},
				{"name":"value","type":"uint256"}]},
			{"name":"salt","type":"uint256"},
			{"name":"start","type":"uint256"},
			{"name":"end","type":"uint256"},
			{"name":"dataType","type":"bytes4"},
			{"name":"data","type":"bytes"}]}],
	 "name":"cancel","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var exchangeV2ABI = ethwallet.MustABI(exchangeV2ABIJSON)

type v2AssetTypeDTO struct {
	AssetClass [4]byte
	Data       []byte
}

type v2AssetDTO struct {
	AssetType v2AssetTypeDTO
	Value     *big.Int
}

type v2OrderDTO struct {
	Maker     common.Address
	MakeAsset v2AssetDTO
	Taker     common.Address
	TakeAsset v2AssetDTO
	Salt      *big.Int
	Start     *big.Int
	End       *big.Int
	DataType  [4]byte
	Data      []byte
}

var (
	v2DataTypeV1 = selector("V1")

	addressArg        = mustArguments(mustType("address"))
	addressUint256Arg = mustArguments(mustType("address"), mustType("uint256"))
	v2OrderDataArgs   = mustArguments(partArrayType(), partArrayType())
)

func selector(name string) [4]byte {
	var id [4]byte
	copy(id[:], crypto.Keccak256([]byte(name))[:4])
	return id
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func partArrayType() abi.Type {
	typ, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "account", Type: "address"},
		{Name: "value", Type: "uint96"},
	})
	if err != nil {
		panic(err)
	}
	return typ
}

func mustArguments(ts ...abi.Type) abi.Arguments {
	args := make(abi.Arguments, len(ts))
	for i, t := range ts {
		args[i] = abi.Argument{Type: t}
	}
	return args
}

type v2PartDTO struct {
	Account common.Address
	Value   *big.Int
}

// exchangeV2Handler fills orders on the current native exchange: zero
// flat fee, with payouts and origin fees carried inside the order data.
type exchangeV2Handler struct {
	network  config.Network
	approver *approve.Approver
	logger   *zap.Logger
}

func newExchangeV2Handler(network config.Network, approver *approve.Approver, logger *zap.Logger) *exchangeV2Handler {
	return &exchangeV2Handler{network: network, approver: approver, logger: logger}
}

func (h *exchangeV2Handler) invert(req Request, filler common.Address) (types.Order, error) {
	original, err := v2Data(req.Order)
	if err != nil {
		return types.Order{}, err
	}

	inverted := invertOrder(req.Order, req.Amount, filler)
	data := types.ExchangeV2Data{
		Payouts:    req.Payouts,
		OriginFees: req.OriginFees,
	}
	if data.Payouts == nil {
		data.Payouts = original.Payouts
	}
	if data.OriginFees == nil {
		data.OriginFees = original.OriginFees
	}
	inverted.Data = data
	return inverted, nil
}

func (h *exchangeV2Handler) approve(ctx context.Context, inverted types.Order, infinite bool) error {
	// The contract pulls the payment plus the filler's fees in one
	// transfer, so the allowance must cover both.
	withFee := AssetWithFee(inverted.Make, h.orderFee(inverted))
	return h.approver.Approve(ctx, inverted.Maker, withFee, infinite)
}

func (h *exchangeV2Handler) transactionData(_ context.Context, original, inverted types.Order) (ethwallet.Call, ethwallet.SendOptions, error) {
	left, err := v2OrderToDTO(original)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}
	right, err := v2OrderToDTO(inverted)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	call, err := ethwallet.BindCall(h.network.Exchange.V2, exchangeV2ABI, "matchOrders",
		left, original.Signature, right, inverted.Signature)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	opts := ethwallet.SendOptions{}
	if inverted.Make.Type.Class == types.AssetETH {
		opts.Value = AssetWithFee(inverted.Make, h.orderFee(inverted)).Value
	}
	return call, opts, nil
}

// orderFee returns the bps the filler must cover on top of the payment:
// the protocol fee plus the filler's own origin fees.
func (h *exchangeV2Handler) orderFee(order types.Order) int64 {
	fee := h.baseOrderFee(order)
	data, err := v2Data(order)
	if err != nil {
		return fee
	}
	for _, part := range data.OriginFees {
		fee += part.Value
	}
	return fee
}

func (h *exchangeV2Handler) baseOrderFee(types.Order) int64 {
	return h.network.ExchangeV2Fee
}

func v2Data(order types.Order) (types.ExchangeV2Data, error) {
	data, ok := order.Data.(types.ExchangeV2Data)
	if !ok {
		return types.ExchangeV2Data{}, &types.InvalidOrderError{Reason: "v2 order without v2 data"}
	}
	return data, nil
}

func v2AssetClass(class types.AssetClass) ([4]byte, error) {
	switch class {
	case types.AssetETH, types.AssetERC20, types.AssetERC721, types.AssetERC1155, types.AssetCryptoPunks:
		return selector(string(class)), nil
	default:
		return [4]byte{}, &types.UnsupportedAssetError{Class: class}
	}
}

func v2AssetTypeData(assetType types.AssetType) ([]byte, error) {
	switch assetType.Class {
	case types.AssetETH:
		return []byte{}, nil
	case types.AssetERC20:
		return addressArg.Pack(assetType.Contract)
	case types.AssetERC721, types.AssetERC1155, types.AssetCryptoPunks:
		tokenID := assetType.TokenID
		if tokenID == nil {
			tokenID = big.NewInt(0)
		}
		return addressUint256Arg.Pack(assetType.Contract, tokenID)
	default:
		return nil, &types.UnsupportedAssetError{Class: assetType.Class}
	}
}

func v2AssetToDTO(asset types.Asset) (v2AssetDTO, error) {
	class, err := v2AssetClass(asset.Type.Class)
	if err != nil {
		return v2AssetDTO{}, err
	}
	data, err := v2AssetTypeData(asset.Type)
	if err != nil {
		return v2AssetDTO{}, err
	}
	return v2AssetDTO{
		AssetType: v2AssetTypeDTO{AssetClass: class, Data: data},
		Value:     asset.Value,
	}, nil
}

func v2Parts(parts []types.Part) []v2PartDTO {
	out := make([]v2PartDTO, len(parts))
	for i, p := range parts {
		out[i] = v2PartDTO{Account: p.Account, Value: big.NewInt(p.Value)}
	}
	return out
}

func v2OrderToDTO(order types.Order) (v2OrderDTO, error) {
	data, err := v2Data(order)
	if err != nil {
		return v2OrderDTO{}, err
	}
	make, err := v2AssetToDTO(order.Make)
	if err != nil {
		return v2OrderDTO{}, err
	}
	take, err := v2AssetToDTO(order.Take)
	if err != nil {
		return v2OrderDTO{}, err
	}
	encoded, err := v2OrderDataArgs.Pack(v2Parts(data.Payouts), v2Parts(data.OriginFees))
	if err != nil {
		return v2OrderDTO{}, err
	}

	salt := order.Salt
	if salt == nil {
		salt = big.NewInt(0)
	}
	start := big.NewInt(0)
	if order.Start > 0 {
		start = big.NewInt(order.Start)
	}
	end := big.NewInt(0)
	if order.End > 0 {
		end = big.NewInt(order.End)
	}

	return v2OrderDTO{
		Maker:     order.Maker,
		MakeAsset: make,
		Taker:     order.Taker,
		TakeAsset: take,
		Salt:      salt,
		Start:     start,
		End:       end,
		DataType:  v2DataTypeV1,
		Data:      encoded,
	}, nil
}
