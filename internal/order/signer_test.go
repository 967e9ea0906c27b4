package order

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/types"
)

// testWallet signs with a real key so signatures are recoverable.
type testWallet struct {
	priv    *ecdsa.PrivateKey
	address common.Address
	chainID uint64

	lastDigest   common.Hash
	lastPersonal []byte
}

func newTestWallet(t *testing.T) *testWallet {
	t.Helper()
	priv, err := crypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)
	return &testWallet{
		priv:    priv,
		address: crypto.PubkeyToAddress(priv.PublicKey),
		chainID: 1,
	}
}

func (w *testWallet) From(context.Context) (common.Address, error) {
	return w.address, nil
}

func (w *testWallet) ChainID(context.Context) (uint64, error) {
	return w.chainID, nil
}

func (w *testWallet) SignDigest(digest common.Hash) ([]byte, error) {
	w.lastDigest = digest
	sig, err := crypto.Sign(digest.Bytes(), w.priv)
	if err != nil {
		return nil, err
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

func (w *testWallet) SignPersonal(message []byte) ([]byte, error) {
	w.lastPersonal = message
	prefixed := append([]byte("\x19Ethereum Signed Message:\n32"), message...)
	return w.SignDigest(crypto.Keccak256Hash(prefixed))
}

func mainnetNetwork(t *testing.T) config.Network {
	t.Helper()
	network, err := config.NetworkByChainID(1)
	require.NoError(t, err)
	return network
}

func v2SellOrder(maker common.Address) types.Order {
	return types.Order{
		Type:  types.OrderExchangeV2,
		Maker: maker,
		Make: types.Asset{
			Type: types.AssetType{
				Class:    types.AssetERC721,
				Contract: common.HexToAddress("0x00000000000000000000000000000000000000c3"),
				TokenID:  big.NewInt(7),
			},
			Value: big.NewInt(1),
		},
		Take: types.Asset{
			Type:  types.AssetType{Class: types.AssetETH},
			Value: big.NewInt(5000),
		},
		Salt: big.NewInt(11),
		Data: types.ExchangeV2Data{},
	}
}

func TestSignerV2(t *testing.T) {
	wallet := newTestWallet(t)
	signer := NewSigner(wallet, mainnetNetwork(t))

	order := v2SellOrder(wallet.address)
	require.NoError(t, signer.Sign(&order))
	require.Len(t, order.Signature, 65)

	// The signature must recover to the maker over the EIP-712 digest.
	sig := make([]byte, 65)
	copy(sig, order.Signature)
	sig[64] -= 27
	pub, err := crypto.SigToPub(wallet.lastDigest.Bytes(), sig)
	require.NoError(t, err)
	assert.Equal(t, wallet.address, crypto.PubkeyToAddress(*pub))
}

func TestSignerV2DigestDependsOnSalt(t *testing.T) {
	wallet := newTestWallet(t)
	signer := NewSigner(wallet, mainnetNetwork(t))

	order := v2SellOrder(wallet.address)
	require.NoError(t, signer.Sign(&order))
	first := wallet.lastDigest

	order.Salt = big.NewInt(12)
	require.NoError(t, signer.Sign(&order))
	assert.NotEqual(t, first, wallet.lastDigest)
}

func TestSignerLegacy(t *testing.T) {
	wallet := newTestWallet(t)
	signer := NewSigner(wallet, mainnetNetwork(t))

	order := v2SellOrder(wallet.address)
	order.Type = types.OrderExchangeV1
	order.Data = types.ExchangeV1Data{Fee: 250}

	require.NoError(t, signer.Sign(&order))
	require.Len(t, order.Signature, 65)
	assert.Len(t, wallet.lastPersonal, 32, "legacy signing hashes the order first")
}

func TestSignerUnsupportedTypes(t *testing.T) {
	wallet := newTestWallet(t)
	signer := NewSigner(wallet, mainnetNetwork(t))

	for _, orderType := range []types.OrderType{types.OrderOpenSeaV1, types.OrderCryptoPunk} {
		order := v2SellOrder(wallet.address)
		order.Type = orderType

		err := signer.Sign(&order)
		var unsupported *types.UnsupportedOrderError
		require.ErrorAs(t, err, &unsupported, string(orderType))
	}
}

func TestRandomSalt(t *testing.T) {
	first, err := randomSalt()
	require.NoError(t, err)
	second, err := randomSalt()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.LessOrEqual(t, first.BitLen(), 256)
}

func TestDomainSeparatorBindsChainAndContract(t *testing.T) {
	a := domainSeparator(1, common.HexToAddress("0x01"))
	b := domainSeparator(137, common.HexToAddress("0x01"))
	c := domainSeparator(1, common.HexToAddress("0x02"))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}
