package fill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/approve"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/retry"
	"github.com/nftex/fill-engine/pkg/types"
)

const openSeaExchangeABIJSON = `[
	{"inputs":[
		{"name":"addrs","type":"address[14]"},
		{"name":"uints","type":"uint256[18]"},
		{"name":"feeMethodsSidesKindsHowToCalls","type":"uint8[8]"},
		{"name":"calldataBuy","type":"bytes"},
		{"name":"calldataSell","type":"bytes"},
		{"name":"replacementPatternBuy","type":"bytes"},
		{"name":"replacementPatternSell","type":"bytes"},
		{"name":"staticExtradataBuy","type":"bytes"},
		{"name":"staticExtradataSell","type":"bytes"},
		{"name":"vs","type":"uint8[2]"},
		{"name":"rssMetadata","type":"bytes32[5]"}],
	 "name":"atomicMatch_","outputs":[],"stateMutability":"payable","type":"function"}
]`

const openSeaRegistryABIJSON = `[
	{"inputs":[{"name":"owner","type":"address"}],"name":"proxies",
	 "outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"registerProxy",
	 "outputs":[{"name":"proxy","type":"address"}],"stateMutability":"nonpayable","type":"function"}
]`

const nftTransferABIJSON = `[
	{"inputs":[
		{"name":"from","type":"address"},
		{"name":"to","type":"address"},
		{"name":"tokenId","type":"uint256"}],
	 "name":"transferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[
		{"name":"from","type":"address"},
		{"name":"to","type":"address"},
		{"name":"id","type":"uint256"},
		{"name":"value","type":"uint256"},
		{"name":"data","type":"bytes"}],
	 "name":"safeTransferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var (
	openSeaExchangeABI = ethwallet.MustABI(openSeaExchangeABIJSON)
	openSeaRegistryABI = ethwallet.MustABI(openSeaRegistryABIJSON)
	nftTransferABI     = ethwallet.MustABI(nftTransferABIJSON)
)

// proxyRegistrationBackoff bounds the wait for the registry to expose a
// freshly registered proxy. The registry write is eventually visible.
var proxyRegistrationBackoff = retry.Backoff{
	Attempts:   10,
	StartDelay: 100 * time.Millisecond,
	MaxDelay:   500 * time.Millisecond,
	DelayFirst: true,
}

// openSeaOrderDTO is one Wyvern order flattened into the scalar columns
// atomicMatch_ consumes.
type openSeaOrderDTO struct {
	exchange           common.Address
	maker              common.Address
	taker              common.Address
	feeRecipient       common.Address
	target             common.Address
	staticTarget       common.Address
	paymentToken       common.Address
	makerRelayerFee    *big.Int
	takerRelayerFee    *big.Int
	makerProtocolFee   *big.Int
	takerProtocolFee   *big.Int
	basePrice          *big.Int
	extra              *big.Int
	listingTime        *big.Int
	expirationTime     *big.Int
	salt               *big.Int
	feeMethod          uint8
	side               uint8
	saleKind           uint8
	howToCall          uint8
	callData           []byte
	replacementPattern []byte
	staticExtraData    []byte
}

// openSeaHandler fills Wyvern-style orders. Unlike the native exchanges
// it has no shared NFT transfer proxy: each maker approves their own
// registry proxy, registering one on first use.
type openSeaHandler struct {
	provider ethwallet.Provider
	send     ethwallet.SendFunc
	network  config.Network
	approver *approve.Approver
	logger   *zap.Logger
}

func newOpenSeaHandler(provider ethwallet.Provider, send ethwallet.SendFunc, network config.Network, approver *approve.Approver, logger *zap.Logger) *openSeaHandler {
	return &openSeaHandler{
		provider: provider,
		send:     send,
		network:  network,
		approver: approver,
		logger:   logger,
	}
}

func (h *openSeaHandler) invert(req Request, filler common.Address) (types.Order, error) {
	data, err := openSeaData(req.Order)
	if err != nil {
		return types.Order{}, err
	}
	if data.Side == types.OpenSeaBuy && req.Order.Make.Type.Class == types.AssetETH {
		return types.Order{}, &types.InvalidOrderError{Reason: "buy order cannot offer native currency"}
	}
	if data.FeeRecipient == (common.Address{}) {
		return types.Order{}, &types.InvalidOrderError{Reason: "fee recipient must be specified"}
	}

	inverted := invertOrder(req.Order, req.Amount, filler)

	flipped := data
	flipped.FeeRecipient = common.Address{}
	if data.Side == types.OpenSeaBuy {
		flipped.Side = types.OpenSeaSell
	} else {
		flipped.Side = types.OpenSeaBuy
	}
	inverted.Data = flipped
	return inverted, nil
}

func (h *openSeaHandler) approve(ctx context.Context, inverted types.Order, infinite bool) error {
	data, err := openSeaData(inverted)
	if err != nil {
		return err
	}
	fee := h.orderFee(inverted)

	if data.Side == types.OpenSeaBuy {
		return h.approveAsset(ctx, inverted.Maker, AssetWithFee(inverted.Make, fee), infinite)
	}

	if err := h.approveAsset(ctx, inverted.Maker, inverted.Make, infinite); err != nil {
		return err
	}
	feeOnly := inverted.Take.Copy()
	feeOnly.Value = feePortion(inverted.Take.Value, fee)
	if feeOnly.Value.Sign() == 0 {
		return nil
	}
	return h.approveAsset(ctx, inverted.Maker, feeOnly, infinite)
}

func (h *openSeaHandler) transactionData(ctx context.Context, original, inverted types.Order) (ethwallet.Call, ethwallet.SendOptions, error) {
	buy, sell, err := sortBuySell(original, inverted)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	buyDTO, err := openSeaOrderToDTO(buy)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}
	sellDTO, err := openSeaOrderToDTO(sell)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	buyV, buyR, buyS := splitSignature(buy.Signature)
	sellV, sellR, sellS := splitSignature(sell.Signature)

	addrs := [14]common.Address{
		buyDTO.exchange, buyDTO.maker, buyDTO.taker, buyDTO.feeRecipient,
		buyDTO.target, buyDTO.staticTarget, buyDTO.paymentToken,
		sellDTO.exchange, sellDTO.maker, sellDTO.taker, sellDTO.feeRecipient,
		sellDTO.target, sellDTO.staticTarget, sellDTO.paymentToken,
	}
	uints := [18]*big.Int{
		buyDTO.makerRelayerFee, buyDTO.takerRelayerFee, buyDTO.makerProtocolFee,
		buyDTO.takerProtocolFee, buyDTO.basePrice, buyDTO.extra,
		buyDTO.listingTime, buyDTO.expirationTime, buyDTO.salt,
		sellDTO.makerRelayerFee, sellDTO.takerRelayerFee, sellDTO.makerProtocolFee,
		sellDTO.takerProtocolFee, sellDTO.basePrice, sellDTO.extra,
		sellDTO.listingTime, sellDTO.expirationTime, sellDTO.salt,
	}
	commonData := [8]uint8{
		buyDTO.feeMethod, buyDTO.side, buyDTO.saleKind, buyDTO.howToCall,
		sellDTO.feeMethod, sellDTO.side, sellDTO.saleKind, sellDTO.howToCall,
	}
	vs := [2]uint8{buyV, sellV}
	rss := [5][32]byte{buyR, buyS, sellR, sellS, h.network.OpenSea.Metadata}

	call, err := ethwallet.BindCall(h.network.Exchange.OpenSeaV1, openSeaExchangeABI, "atomicMatch_",
		addrs, uints, commonData,
		buyDTO.callData, sellDTO.callData,
		buyDTO.replacementPattern, sellDTO.replacementPattern,
		buyDTO.staticExtraData, sellDTO.staticExtraData,
		vs, rss,
	)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	opts := ethwallet.SendOptions{}
	if buy.Make.Type.Class == types.AssetETH {
		opts.Value = AssetWithFee(buy.Make, h.baseOrderFee(buy)).Value
	}
	return call, opts, nil
}

// orderFee picks the fee columns the filler pays: the matched side's
// columns are maker fees unless its fee recipient is cleared, in which
// case the taker columns apply.
func (h *openSeaHandler) orderFee(order types.Order) int64 {
	return h.baseOrderFee(order)
}

func (h *openSeaHandler) baseOrderFee(order types.Order) int64 {
	data, err := openSeaData(order)
	if err != nil {
		return 0
	}
	if data.FeeRecipient == (common.Address{}) {
		return data.TakerProtocolFee + data.TakerRelayerFee
	}
	return data.MakerProtocolFee + data.MakerRelayerFee
}

func (h *openSeaHandler) approveAsset(ctx context.Context, maker common.Address, asset types.Asset, infinite bool) error {
	switch asset.Type.Class {
	case types.AssetERC20:
		return h.approver.ApproveERC20(ctx, asset.Type.Contract, maker, h.network.TransferProxies.OpenSeaV1, asset.Value, infinite)
	case types.AssetERC721, types.AssetERC1155:
		proxy, err := h.registeredProxy(ctx, maker)
		if err != nil {
			return err
		}
		return h.approver.ApproveOperator(ctx, asset.Type.Class, asset.Type.Contract, maker, proxy)
	default:
		return nil
	}
}

// registeredProxy resolves the maker's personal transfer proxy,
// registering one when the registry has none. The registry exposes a new
// proxy with a short lag, so the readback polls with bounded backoff.
func (h *openSeaHandler) registeredProxy(ctx context.Context, maker common.Address) (common.Address, error) {
	proxy, err := h.readProxy(ctx, maker)
	if err != nil {
		return common.Address{}, err
	}
	if proxy != (common.Address{}) {
		return proxy, nil
	}

	h.logger.Info("registering-proxy", zap.String("maker", maker.Hex()))
	call, err := ethwallet.BindCall(h.network.OpenSea.ProxyRegistry, openSeaRegistryABI, "registerProxy")
	if err != nil {
		return common.Address{}, err
	}
	if err := ethwallet.WaitTx(ctx, h.send, call, ethwallet.SendOptions{}); err != nil {
		return common.Address{}, fmt.Errorf("registerProxy: %w", err)
	}

	err = retry.Do(ctx, proxyRegistrationBackoff, func(ctx context.Context) error {
		ProxyRegistrationAttemptsTotal.Inc()
		current, err := h.readProxy(ctx, maker)
		if err != nil {
			return err
		}
		if current == (common.Address{}) {
			return errors.New("proxy not visible yet")
		}
		proxy = current
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return common.Address{}, err
		}
		return common.Address{}, types.ErrProxyRegistrationTimeout
	}

	h.logger.Info("proxy-registered",
		zap.String("maker", maker.Hex()),
		zap.String("proxy", proxy.Hex()))
	return proxy, nil
}

func (h *openSeaHandler) readProxy(ctx context.Context, maker common.Address) (common.Address, error) {
	call, err := ethwallet.BindCall(h.network.OpenSea.ProxyRegistry, openSeaRegistryABI, "proxies", maker)
	if err != nil {
		return common.Address{}, err
	}
	result, err := h.provider.Call(ctx, call)
	if err != nil {
		return common.Address{}, fmt.Errorf("read proxy registry: %w", err)
	}
	return common.BytesToAddress(result), nil
}

func openSeaData(order types.Order) (types.OpenSeaV1Data, error) {
	data, ok := order.Data.(types.OpenSeaV1Data)
	if !ok {
		return types.OpenSeaV1Data{}, &types.InvalidOrderError{Reason: "wyvern order without wyvern data"}
	}
	return data, nil
}

// sortBuySell orders the matched pair by each order's own side field.
func sortBuySell(left, right types.Order) (buy, sell types.Order, err error) {
	leftData, err := openSeaData(left)
	if err != nil {
		return types.Order{}, types.Order{}, err
	}
	if leftData.Side == types.OpenSeaSell {
		return right, left, nil
	}
	return left, right, nil
}

// nftSide returns the asset being transferred by the match: the make for
// a sell order, the take for a buy order.
func nftSide(order types.Order, data types.OpenSeaV1Data) types.Asset {
	if data.Side == types.OpenSeaSell {
		return order.Make
	}
	return order.Take
}

func paymentSide(order types.Order, data types.OpenSeaV1Data) types.Asset {
	if data.Side == types.OpenSeaSell {
		return order.Take
	}
	return order.Make
}

func openSeaPaymentToken(asset types.Asset) (common.Address, error) {
	switch asset.Type.Class {
	case types.AssetETH:
		return common.Address{}, nil
	case types.AssetERC20:
		return asset.Type.Contract, nil
	default:
		return common.Address{}, &types.UnsupportedAssetError{Class: asset.Type.Class}
	}
}

// transferCallData builds the proxied NFT transfer for one side of the
// match. The counter-party slot is zeroed and masked by the replacement
// pattern, so the contract can splice the two halves together.
func transferCallData(order types.Order, data types.OpenSeaV1Data, nft types.Asset) (callData, pattern []byte, err error) {
	tokenID := nft.Type.TokenID
	if tokenID == nil {
		tokenID = big.NewInt(0)
	}

	from, to := order.Maker, common.Address{}
	maskedWord := 1
	if data.Side == types.OpenSeaBuy {
		from, to = common.Address{}, order.Maker
		maskedWord = 0
	}

	switch nft.Type.Class {
	case types.AssetERC721:
		callData, err = nftTransferABI.Pack("transferFrom", from, to, tokenID)
	case types.AssetERC1155:
		callData, err = nftTransferABI.Pack("safeTransferFrom", from, to, tokenID, nft.Value, []byte{})
	default:
		return nil, nil, &types.UnsupportedAssetError{Class: nft.Type.Class}
	}
	if err != nil {
		return nil, nil, err
	}

	pattern = make([]byte, len(callData))
	copy(pattern[4+32*maskedWord:4+32*(maskedWord+1)], bytes.Repeat([]byte{0xff}, 32))
	return callData, pattern, nil
}

func openSeaSideValue(side types.OpenSeaSide) uint8 {
	if side == types.OpenSeaSell {
		return 1
	}
	return 0
}

func openSeaOrderToDTO(order types.Order) (openSeaOrderDTO, error) {
	data, err := openSeaData(order)
	if err != nil {
		return openSeaOrderDTO{}, err
	}

	nft := nftSide(order, data)
	payment := paymentSide(order, data)

	paymentToken, err := openSeaPaymentToken(payment)
	if err != nil {
		return openSeaOrderDTO{}, err
	}
	callData, pattern, err := transferCallData(order, data, nft)
	if err != nil {
		return openSeaOrderDTO{}, err
	}
	if len(data.ReplacementPattern) > 0 {
		pattern = data.ReplacementPattern
	}

	target := data.Target
	if target == (common.Address{}) {
		target = nft.Type.Contract
	}
	salt := order.Salt
	if salt == nil {
		salt = big.NewInt(0)
	}
	extra := data.Extra
	if extra == nil {
		extra = big.NewInt(0)
	}
	staticExtra := data.StaticExtraData
	if staticExtra == nil {
		staticExtra = []byte{}
	}

	return openSeaOrderDTO{
		exchange:           data.Exchange,
		maker:              order.Maker,
		taker:              order.Taker,
		feeRecipient:       data.FeeRecipient,
		target:             target,
		staticTarget:       data.StaticTarget,
		paymentToken:       paymentToken,
		makerRelayerFee:    big.NewInt(data.MakerRelayerFee),
		takerRelayerFee:    big.NewInt(data.TakerRelayerFee),
		makerProtocolFee:   big.NewInt(data.MakerProtocolFee),
		takerProtocolFee:   big.NewInt(data.TakerProtocolFee),
		basePrice:          payment.Value,
		extra:              extra,
		listingTime:        big.NewInt(order.Start),
		expirationTime:     big.NewInt(order.End),
		salt:               salt,
		feeMethod:          uint8(data.FeeMethod),
		side:               openSeaSideValue(data.Side),
		saleKind:           uint8(data.SaleKind),
		howToCall:          uint8(data.HowToCall),
		callData:           callData,
		replacementPattern: pattern,
		staticExtraData:    staticExtra,
	}, nil
}
