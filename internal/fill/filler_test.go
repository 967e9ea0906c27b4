package fill

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

type fakeOrderAPI struct {
	sig []byte
	err error
}

func (f *fakeOrderAPI) BuyerFeeSignature(context.Context, types.Order, int64) ([]byte, error) {
	return f.sig, f.err
}

func newTestFiller(t *testing.T, provider *fakeProvider) *Filler {
	t.Helper()
	network, err := config.NetworkByChainID(1)
	require.NoError(t, err)
	return New(provider, provider.Send, network, &fakeOrderAPI{sig: sig65(0xfe)}, zap.NewNop())
}

func TestFillerDispatch(t *testing.T) {
	provider := newFakeProvider(1)
	filler := newTestFiller(t, provider)

	order := types.Order{Type: types.OrderType("SUDOSWAP"), Data: types.CryptoPunkData{}}
	_, err := filler.Fill(context.Background(), Request{Order: order})

	var unsupported *types.UnsupportedOrderError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Error(), "SUDOSWAP")
	assert.Empty(t, provider.sentMethods(), "no transaction may be sent for an unknown protocol")
}

func TestFillerChainIDGuard(t *testing.T) {
	provider := newFakeProvider(137) // wallet on polygon, engine on mainnet
	filler := newTestFiller(t, provider)

	order := types.Order{
		Type:      types.OrderExchangeV2,
		Make:      erc721Asset("0x00000000000000000000000000000000000000c3", 1),
		Take:      ethAsset(1000),
		Signature: sig65(0x01),
		Data:      types.ExchangeV2Data{},
	}
	_, err := filler.Fill(context.Background(), Request{Order: order})

	var wrongChain *types.WrongChainIDError
	require.ErrorAs(t, err, &wrongChain)
	assert.Equal(t, uint64(137), wrongChain.Wallet)
	assert.Equal(t, uint64(1), wrongChain.Configured)
	assert.Empty(t, provider.sentMethods(), "guard must fire before any approval")
}

func TestFillerNilProvider(t *testing.T) {
	network, err := config.NetworkByChainID(1)
	require.NoError(t, err)
	filler := New(nil, nil, network, &fakeOrderAPI{}, zap.NewNop())

	order := types.Order{Type: types.OrderExchangeV2, Data: types.ExchangeV2Data{}}
	_, err = filler.Fill(context.Background(), Request{Order: order})
	require.ErrorIs(t, err, types.ErrWalletUndefined)
}

func TestFillerLegacySellForETH(t *testing.T) {
	provider := newFakeProvider(1)
	filler := newTestFiller(t, provider)

	order := types.Order{
		Type:      types.OrderExchangeV1,
		Maker:     common.HexToAddress("0x0000000000000000000000000000000000000a11"),
		Make:      erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Take:      ethAsset(10000),
		Salt:      big.NewInt(9),
		Signature: sig65(0x01),
		Data:      types.ExchangeV1Data{Fee: 250},
	}

	tx, err := filler.Fill(context.Background(), Request{Order: order})
	require.NoError(t, err)
	require.NotNil(t, tx)

	// Paying in ETH requires no approval transaction, so the match call
	// is the only send, carrying price plus the 250 bps fee.
	methods := provider.sentMethods()
	require.Equal(t, []string{"exchange"}, methods)
	assert.Equal(t, big.NewInt(10250), provider.sent[0].opts.Value)
}

func TestFillerLegacyBuyerFeeSignatureFailure(t *testing.T) {
	provider := newFakeProvider(1)
	network, err := config.NetworkByChainID(1)
	require.NoError(t, err)
	apiErr := errors.New("order index unavailable")
	filler := New(provider, provider.Send, network, &fakeOrderAPI{err: apiErr}, zap.NewNop())

	order := types.Order{
		Type:      types.OrderExchangeV1,
		Make:      erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Take:      ethAsset(10000),
		Signature: sig65(0x01),
		Data:      types.ExchangeV1Data{Fee: 0},
	}

	_, err = filler.Fill(context.Background(), Request{Order: order})
	require.ErrorIs(t, err, apiErr)
	assert.Empty(t, provider.sentMethods())
}

func TestFillerV2MatchOrders(t *testing.T) {
	provider := newFakeProvider(1)
	filler := newTestFiller(t, provider)

	order := types.Order{
		Type:      types.OrderExchangeV2,
		Maker:     common.HexToAddress("0x0000000000000000000000000000000000000a11"),
		Make:      erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Take:      ethAsset(5000),
		Salt:      big.NewInt(1),
		Signature: sig65(0x02),
		Data: types.ExchangeV2Data{
			OriginFees: []types.Part{{Account: common.HexToAddress("0xfe"), Value: 100}},
		},
	}

	_, err := filler.Fill(context.Background(), Request{Order: order})
	require.NoError(t, err)

	require.Equal(t, []string{"matchOrders"}, provider.sentMethods())
	// Mainnet V2 fee is 0 bps; the filler side carries the maker's
	// origin fee of 100 bps on top of the 5000 price.
	assert.Equal(t, big.NewInt(5050), provider.sent[0].opts.Value)

	network, err := config.NetworkByChainID(1)
	require.NoError(t, err)
	assert.Equal(t, network.Exchange.V2, provider.sent[0].call.To)
}

func TestFillerV2ERC20ApprovalCoversOriginFees(t *testing.T) {
	provider := newFakeProvider(1)
	filler := newTestFiller(t, provider)

	order := types.Order{
		Type:      types.OrderExchangeV2,
		Maker:     common.HexToAddress("0x0000000000000000000000000000000000000a11"),
		Make:      erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Take:      erc20Asset("0x00000000000000000000000000000000000ec20a", 5000),
		Salt:      big.NewInt(1),
		Signature: sig65(0x02),
		Data: types.ExchangeV2Data{
			OriginFees: []types.Part{{Account: common.HexToAddress("0xfe"), Value: 100}},
		},
	}

	_, err := filler.Fill(context.Background(), Request{Order: order})
	require.NoError(t, err)

	require.Equal(t, []string{"approve", "matchOrders"}, provider.sentMethods())

	// The exchange pulls 5000 plus the 100 bps origin fee in a single
	// transfer; the allowance must already cover 5050.
	approveTx := provider.sent[0]
	assert.Equal(t, order.Take.Type.Contract, approveTx.call.To)
	approved := new(big.Int).SetBytes(approveTx.call.Data[len(approveTx.call.Data)-32:])
	assert.Equal(t, big.NewInt(5050), approved)
}

func TestFillerTransactionDataDoesNotSend(t *testing.T) {
	provider := newFakeProvider(1)
	filler := newTestFiller(t, provider)

	order := types.Order{
		Type:      types.OrderExchangeV2,
		Make:      erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Take:      ethAsset(5000),
		Signature: sig65(0x02),
		Data:      types.ExchangeV2Data{},
	}

	call, opts, err := filler.TransactionData(context.Background(), Request{Order: order})
	require.NoError(t, err)
	assert.NotEmpty(t, call.Data)
	assert.Equal(t, big.NewInt(5000), opts.Value)
	assert.Empty(t, provider.sentMethods())
}

func TestFillerOrderFee(t *testing.T) {
	provider := newFakeProvider(1)
	filler := newTestFiller(t, provider)

	tests := []struct {
		name     string
		order    types.Order
		expected int64
	}{
		{
			name:     "legacy flat fee",
			order:    types.Order{Type: types.OrderExchangeV1, Data: types.ExchangeV1Data{Fee: 300}},
			expected: 300,
		},
		{
			name: "v2 origin fees on top of base",
			order: types.Order{Type: types.OrderExchangeV2, Data: types.ExchangeV2Data{
				OriginFees: []types.Part{{Value: 100}, {Value: 150}},
			}},
			expected: 250,
		},
		{
			name:     "punk orders are free",
			order:    types.Order{Type: types.OrderCryptoPunk, Data: types.CryptoPunkData{}},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, err := filler.OrderFee(tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fee)
		})
	}
}

var _ ethwallet.Provider = (*fakeProvider)(nil)
