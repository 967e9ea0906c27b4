package order

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nftex/fill-engine/pkg/types"
)

// v2Encoding is an order's asset and data payloads in the V2 contract's
// wire form, shared by hashing and signing.
type v2Encoding struct {
	makeClass [4]byte
	makeData  []byte
	takeClass [4]byte
	takeData  []byte
	dataType  [4]byte
	data      []byte
}

var (
	v2OrderDataTypeV1 = classSelector("V1")

	tokenArgs        = abi.Arguments{{Type: addressType}}
	tokenWithIDArgs  = abi.Arguments{{Type: addressType}, {Type: uint256Type}}
	orderPayloadArgs = mustOrderPayloadArgs()
)

func classSelector(name string) [4]byte {
	var id [4]byte
	copy(id[:], crypto.Keccak256([]byte(name))[:4])
	return id
}

func mustOrderPayloadArgs() abi.Arguments {
	partArray, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "account", Type: "address"},
		{Name: "value", Type: "uint96"},
	})
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: partArray}, {Type: partArray}}
}

func encodeAssetType(assetType types.AssetType) ([4]byte, []byte, error) {
	switch assetType.Class {
	case types.AssetETH:
		return classSelector(string(assetType.Class)), []byte{}, nil
	case types.AssetERC20:
		data, err := tokenArgs.Pack(assetType.Contract)
		return classSelector(string(assetType.Class)), data, err
	case types.AssetERC721, types.AssetERC1155, types.AssetCryptoPunks:
		tokenID := assetType.TokenID
		if tokenID == nil {
			tokenID = big.NewInt(0)
		}
		data, err := tokenWithIDArgs.Pack(assetType.Contract, tokenID)
		return classSelector(string(assetType.Class)), data, err
	default:
		return [4]byte{}, nil, &types.UnsupportedAssetError{Class: assetType.Class}
	}
}

type payloadPart struct {
	Account common.Address
	Value   *big.Int
}

func encodeV2Order(order types.Order) (*v2Encoding, error) {
	data, ok := order.Data.(types.ExchangeV2Data)
	if !ok {
		return nil, &types.InvalidOrderError{Reason: "v2 order without v2 data"}
	}

	makeClass, makeData, err := encodeAssetType(order.Make.Type)
	if err != nil {
		return nil, err
	}
	takeClass, takeData, err := encodeAssetType(order.Take.Type)
	if err != nil {
		return nil, err
	}

	payouts := make([]payloadPart, len(data.Payouts))
	for i, p := range data.Payouts {
		payouts[i] = payloadPart{Account: p.Account, Value: big.NewInt(p.Value)}
	}
	originFees := make([]payloadPart, len(data.OriginFees))
	for i, p := range data.OriginFees {
		originFees[i] = payloadPart{Account: p.Account, Value: big.NewInt(p.Value)}
	}
	payload, err := orderPayloadArgs.Pack(payouts, originFees)
	if err != nil {
		return nil, err
	}

	return &v2Encoding{
		makeClass: makeClass,
		makeData:  makeData,
		takeClass: takeClass,
		takeData:  takeData,
		dataType:  v2OrderDataTypeV1,
		data:      payload,
	}, nil
}
