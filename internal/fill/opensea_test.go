package fill

import (
	"bytes"
	"context"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/approve"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

func newOpenSeaTestHandler(t *testing.T, provider *fakeProvider) (*openSeaHandler, config.Network) {
	t.Helper()
	network, err := config.NetworkByChainID(1)
	require.NoError(t, err)
	approver := approve.New(provider, provider.Send, network.TransferProxies, zap.NewNop())
	return newOpenSeaHandler(provider, provider.Send, network, approver, zap.NewNop()), network
}

func openSeaSellOrder(feeRecipient common.Address) types.Order {
	return types.Order{
		Type:      types.OrderOpenSeaV1,
		Maker:     common.HexToAddress("0x0000000000000000000000000000000000000a11"),
		Make:      erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Take:      ethAsset(10000),
		Salt:      big.NewInt(3),
		Signature: sig65(0x05),
		Data: types.OpenSeaV1Data{
			Exchange:        common.HexToAddress("0x7Be8076f4EA4A4AD08075C2508e481d6C946D12b"),
			TakerRelayerFee: 250,
			FeeRecipient:    feeRecipient,
			FeeMethod:       types.FeeMethodSplitFee,
			Side:            types.OpenSeaSell,
			SaleKind:        types.SaleKindFixedPrice,
			HowToCall:       types.HowToCallCall,
		},
	}
}

func openSeaBidOrder() types.Order {
	return types.Order{
		Type:      types.OrderOpenSeaV1,
		Maker:     common.HexToAddress("0x0000000000000000000000000000000000000a11"),
		Make:      erc20Asset("0x00000000000000000000000000000000000ec20a", 10000),
		Take:      erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Salt:      big.NewInt(4),
		Signature: sig65(0x06),
		Data: types.OpenSeaV1Data{
			Exchange:        common.HexToAddress("0x7Be8076f4EA4A4AD08075C2508e481d6C946D12b"),
			TakerRelayerFee: 250,
			FeeRecipient:    common.HexToAddress("0x0000000000000000000000000000000000000fee"),
			FeeMethod:       types.FeeMethodSplitFee,
			Side:            types.OpenSeaBuy,
			SaleKind:        types.SaleKindFixedPrice,
			HowToCall:       types.HowToCallCall,
		},
	}
}

func TestOpenSeaInvert(t *testing.T) {
	provider := newFakeProvider(1)
	handler, _ := newOpenSeaTestHandler(t, provider)
	filler := common.HexToAddress("0x0000000000000000000000000000000000000b22")

	t.Run("flips side and clears fee recipient", func(t *testing.T) {
		order := openSeaSellOrder(common.HexToAddress("0x0000000000000000000000000000000000000fee"))
		inverted, err := handler.invert(Request{Order: order}, filler)
		require.NoError(t, err)

		data := inverted.Data.(types.OpenSeaV1Data)
		assert.Equal(t, types.OpenSeaBuy, data.Side)
		assert.Equal(t, common.Address{}, data.FeeRecipient)
		assert.Equal(t, filler, inverted.Maker)
		assert.Empty(t, inverted.Signature)
	})

	t.Run("rejects bid offering native currency", func(t *testing.T) {
		order := openSeaBidOrder()
		order.Make = ethAsset(10000)

		_, err := handler.invert(Request{Order: order}, filler)
		var invalid *types.InvalidOrderError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("rejects missing fee recipient", func(t *testing.T) {
		order := openSeaSellOrder(common.Address{})
		_, err := handler.invert(Request{Order: order}, filler)
		var invalid *types.InvalidOrderError
		require.ErrorAs(t, err, &invalid)
	})
}

func TestOpenSeaBaseOrderFee(t *testing.T) {
	provider := newFakeProvider(1)
	handler, _ := newOpenSeaTestHandler(t, provider)

	order := openSeaSellOrder(common.HexToAddress("0x0000000000000000000000000000000000000fee"))
	data := order.Data.(types.OpenSeaV1Data)
	data.MakerRelayerFee = 250
	data.MakerProtocolFee = 50
	data.TakerRelayerFee = 100
	data.TakerProtocolFee = 10
	order.Data = data

	// A present fee recipient selects the maker columns.
	assert.Equal(t, int64(300), handler.baseOrderFee(order))

	// A cleared one (the inverted order) selects the taker columns.
	data.FeeRecipient = common.Address{}
	order.Data = data
	assert.Equal(t, int64(110), handler.baseOrderFee(order))
}

func TestOpenSeaBuyListingWithETH(t *testing.T) {
	provider := newFakeProvider(1)
	handler, network := newOpenSeaTestHandler(t, provider)
	filler := provider.from

	order := openSeaSellOrder(common.HexToAddress("0x0000000000000000000000000000000000000fee"))
	inverted, err := handler.invert(Request{Order: order}, filler)
	require.NoError(t, err)

	// Paying with ETH needs no approvals at all.
	require.NoError(t, handler.approve(context.Background(), inverted, false))
	assert.Empty(t, provider.sentMethods())

	call, opts, err := handler.transactionData(context.Background(), order, inverted)
	require.NoError(t, err)
	assert.Equal(t, network.Exchange.OpenSeaV1, call.To)
	assert.Equal(t, "atomicMatch_", call.Method)
	// 10000 plus the inverted side's 250 bps taker fee.
	assert.Equal(t, big.NewInt(10250), opts.Value)
}

func TestOpenSeaAcceptBidApprovals(t *testing.T) {
	provider := newFakeProvider(1)
	proxy := common.HexToAddress("0x00000000000000000000000000000000000d0e11")
	var registered atomic.Bool
	provider.callFn = func(call ethwallet.Call) ([]byte, error) {
		switch call.Method {
		case "proxies":
			if registered.Load() {
				return wordAddress(proxy), nil
			}
			return wordAddress(common.Address{}), nil
		default:
			return defaultRead(call), nil
		}
	}

	handler, _ := newOpenSeaTestHandler(t, provider)
	origSend := provider.Send
	send := ethwallet.SendFunc(func(ctx context.Context, call ethwallet.Call, opts ethwallet.SendOptions) (*ethwallet.Transaction, error) {
		if call.Method == "registerProxy" {
			registered.Store(true)
		}
		return origSend(ctx, call, opts)
	})
	handler.send = send
	handler.approver = approve.New(provider, send, handlerNetwork(t).TransferProxies, zap.NewNop())

	order := openSeaBidOrder()
	inverted, err := handler.invert(Request{Order: order}, provider.from)
	require.NoError(t, err)

	require.NoError(t, handler.approve(context.Background(), inverted, false))

	// Selling into a bid takes three grants: register the maker's proxy,
	// approve the collection for it, and approve the fee slice of the
	// ERC-20 payment for the token-transfer proxy.
	assert.Equal(t, []string{"registerProxy", "setApprovalForAll", "approve"}, provider.sentMethods())
}

func handlerNetwork(t *testing.T) config.Network {
	t.Helper()
	network, err := config.NetworkByChainID(1)
	require.NoError(t, err)
	return network
}

func TestOpenSeaFeeOnlyApprovalSkippedWhenZero(t *testing.T) {
	provider := newFakeProvider(1)
	proxy := common.HexToAddress("0x00000000000000000000000000000000000d0e11")
	provider.callFn = func(call ethwallet.Call) ([]byte, error) {
		if call.Method == "proxies" {
			return wordAddress(proxy), nil
		}
		return defaultRead(call), nil
	}
	handler, _ := newOpenSeaTestHandler(t, provider)

	order := openSeaBidOrder()
	data := order.Data.(types.OpenSeaV1Data)
	data.TakerRelayerFee = 0
	order.Data = data

	inverted, err := handler.invert(Request{Order: order}, provider.from)
	require.NoError(t, err)
	require.NoError(t, handler.approve(context.Background(), inverted, false))

	// Zero fee leaves only the collection approval.
	assert.Equal(t, []string{"setApprovalForAll"}, provider.sentMethods())
}

func TestOpenSeaProxyRegistration(t *testing.T) {
	t.Run("proxy appears after polling", func(t *testing.T) {
		provider := newFakeProvider(1)
		proxy := common.HexToAddress("0x00000000000000000000000000000000000d0e11")
		var reads atomic.Int32
		provider.callFn = func(call ethwallet.Call) ([]byte, error) {
			if call.Method == "proxies" {
				// Initial read plus three empty polls before the
				// registry catches up.
				if reads.Add(1) >= 5 {
					return wordAddress(proxy), nil
				}
				return wordAddress(common.Address{}), nil
			}
			return defaultRead(call), nil
		}
		handler, _ := newOpenSeaTestHandler(t, provider)

		got, err := handler.registeredProxy(context.Background(), provider.from)
		require.NoError(t, err)
		assert.Equal(t, proxy, got)
		assert.Equal(t, []string{"registerProxy"}, provider.sentMethods())
	})

	t.Run("registry never catches up", func(t *testing.T) {
		provider := newFakeProvider(1)
		handler, _ := newOpenSeaTestHandler(t, provider)

		_, err := handler.registeredProxy(context.Background(), provider.from)
		require.ErrorIs(t, err, types.ErrProxyRegistrationTimeout)
	})

	t.Run("existing proxy skips registration", func(t *testing.T) {
		provider := newFakeProvider(1)
		proxy := common.HexToAddress("0x00000000000000000000000000000000000d0e11")
		provider.callFn = func(call ethwallet.Call) ([]byte, error) {
			if call.Method == "proxies" {
				return wordAddress(proxy), nil
			}
			return defaultRead(call), nil
		}
		handler, _ := newOpenSeaTestHandler(t, provider)

		got, err := handler.registeredProxy(context.Background(), provider.from)
		require.NoError(t, err)
		assert.Equal(t, proxy, got)
		assert.Empty(t, provider.sentMethods())
	})
}

func TestOpenSeaTransferCallData(t *testing.T) {
	order := openSeaSellOrder(common.HexToAddress("0x0000000000000000000000000000000000000fee"))
	data := order.Data.(types.OpenSeaV1Data)

	callData, pattern, err := transferCallData(order, data, order.Make)
	require.NoError(t, err)

	// transferFrom selector plus three words.
	require.Len(t, callData, 4+3*32)
	require.Len(t, pattern, len(callData))

	// The sell side zeroes and masks the recipient (second argument).
	assert.Equal(t, make([]byte, 32), callData[4+32:4+64])
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 32), pattern[4+32:4+64])
	assert.Equal(t, make([]byte, 32), pattern[4:4+32])
}
