package fill

import (
	"context"
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

type sentTx struct {
	call ethwallet.Call
	opts ethwallet.SendOptions
}

// fakeProvider scripts the read side of a node and records every
// transaction submitted through it.
type fakeProvider struct {
	mu      sync.Mutex
	from    common.Address
	chainID uint64
	callFn  func(call ethwallet.Call) ([]byte, error)
	sent    []sentTx
}

func newFakeProvider(chainID uint64) *fakeProvider {
	return &fakeProvider{
		from:    common.HexToAddress("0x00000000000000000000000000000000000f111e"),
		chainID: chainID,
	}
}

func (p *fakeProvider) From(context.Context) (common.Address, error) { return p.from, nil }

func (p *fakeProvider) ChainID(context.Context) (uint64, error) { return p.chainID, nil }

func (p *fakeProvider) Call(_ context.Context, call ethwallet.Call) ([]byte, error) {
	if p.callFn != nil {
		return p.callFn(call)
	}
	// Reads default to an all-zero word: zero allowance, not approved,
	// no punk offer, no registered proxy.
	return defaultRead(call), nil
}

func defaultRead(call ethwallet.Call) []byte {
	if call.Method == "punksOfferedForSale" {
		return make([]byte, 5*32)
	}
	return make([]byte, 32)
}

func (p *fakeProvider) Send(_ context.Context, call ethwallet.Call, opts ethwallet.SendOptions) (*ethwallet.Transaction, error) {
	p.mu.Lock()
	p.sent = append(p.sent, sentTx{call: call, opts: opts})
	n := len(p.sent)
	p.mu.Unlock()

	var hash common.Hash
	binary.BigEndian.PutUint64(hash[24:], uint64(n))
	return ethwallet.NewTransaction(hash, func(context.Context) (*gethtypes.Receipt, error) {
		return &gethtypes.Receipt{Status: gethtypes.ReceiptStatusSuccessful}, nil
	}), nil
}

func (p *fakeProvider) sentMethods() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	methods := make([]string, len(p.sent))
	for i, tx := range p.sent {
		methods[i] = tx.call.Method
	}
	return methods
}

// wordBool encodes a solidity bool return value.
func wordBool(v bool) []byte {
	word := make([]byte, 32)
	if v {
		word[31] = 1
	}
	return word
}

func wordAddress(addr common.Address) []byte {
	word := make([]byte, 32)
	copy(word[12:], addr.Bytes())
	return word
}

func wordBig(v *big.Int) []byte {
	word := make([]byte, 32)
	v.FillBytes(word)
	return word
}

func erc721Asset(contract string, tokenID int64) types.Asset {
	return types.Asset{
		Type: types.AssetType{
			Class:    types.AssetERC721,
			Contract: common.HexToAddress(contract),
			TokenID:  big.NewInt(tokenID),
		},
		Value: big.NewInt(1),
	}
}

func ethAsset(value int64) types.Asset {
	return types.Asset{
		Type:  types.AssetType{Class: types.AssetETH},
		Value: big.NewInt(value),
	}
}

func erc20Asset(contract string, value int64) types.Asset {
	return types.Asset{
		Type: types.AssetType{
			Class:    types.AssetERC20,
			Contract: common.HexToAddress(contract),
		},
		Value: big.NewInt(value),
	}
}

func punkAsset(market string, index int64) types.Asset {
	return types.Asset{
		Type: types.AssetType{
			Class:    types.AssetCryptoPunks,
			Contract: common.HexToAddress(market),
			TokenID:  big.NewInt(index),
		},
		Value: big.NewInt(1),
	}
}

func sig65(seed byte) []byte {
	sig := make([]byte, 65)
	for i := range sig {
		sig[i] = seed
	}
	sig[64] = 28
	return sig
}
