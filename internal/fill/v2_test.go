package fill

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftex/fill-engine/pkg/types"
)

func TestV2AssetClassIDs(t *testing.T) {
	// The contract recognizes asset classes by the 4-byte keccak id of
	// their names. These constants are fixed on chain.
	tests := []struct {
		class    types.AssetClass
		expected [4]byte
	}{
		{types.AssetETH, [4]byte{0xaa, 0xae, 0xbe, 0xba}},
		{types.AssetERC20, [4]byte{0x8a, 0xe8, 0x5d, 0x84}},
		{types.AssetERC721, [4]byte{0x73, 0xad, 0x21, 0x46}},
		{types.AssetERC1155, [4]byte{0x97, 0x3b, 0xb6, 0x40}},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			id, err := v2AssetClass(tt.class)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}

	_, err := v2AssetClass(types.AssetClass("SOLANA"))
	var unsupported *types.UnsupportedAssetError
	require.ErrorAs(t, err, &unsupported)
}

func TestV2DataType(t *testing.T) {
	assert.Equal(t, [4]byte{0x4c, 0x23, 0x42, 0x66}, v2DataTypeV1)
}

func TestV2AssetTypeData(t *testing.T) {
	t.Run("eth carries no data", func(t *testing.T) {
		data, err := v2AssetTypeData(types.AssetType{Class: types.AssetETH})
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("erc20 encodes the token address", func(t *testing.T) {
		token := common.HexToAddress("0x00000000000000000000000000000000000ec20a")
		data, err := v2AssetTypeData(types.AssetType{Class: types.AssetERC20, Contract: token})
		require.NoError(t, err)
		require.Len(t, data, 32)
		assert.Equal(t, token, common.BytesToAddress(data[12:32]))
	})

	t.Run("erc721 encodes address and token id", func(t *testing.T) {
		token := common.HexToAddress("0x00000000000000000000000000000000000000c3")
		data, err := v2AssetTypeData(types.AssetType{
			Class:    types.AssetERC721,
			Contract: token,
			TokenID:  big.NewInt(7),
		})
		require.NoError(t, err)
		require.Len(t, data, 64)
		assert.Equal(t, token, common.BytesToAddress(data[12:32]))
		assert.Equal(t, big.NewInt(7), new(big.Int).SetBytes(data[32:64]))
	})
}

func TestV2OrderToDTO(t *testing.T) {
	maker := common.HexToAddress("0x0000000000000000000000000000000000000a11")
	order := types.Order{
		Type:      types.OrderExchangeV2,
		Maker:     maker,
		Make:      erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Take:      ethAsset(5000),
		Salt:      big.NewInt(11),
		Start:     1600000000,
		End:       1700000000,
		Signature: sig65(0x02),
		Data: types.ExchangeV2Data{
			Payouts:    []types.Part{{Account: maker, Value: 10000}},
			OriginFees: []types.Part{{Account: common.HexToAddress("0xfe"), Value: 100}},
		},
	}

	dto, err := v2OrderToDTO(order)
	require.NoError(t, err)

	assert.Equal(t, maker, dto.Maker)
	assert.Equal(t, big.NewInt(11), dto.Salt)
	assert.Equal(t, big.NewInt(1600000000), dto.Start)
	assert.Equal(t, big.NewInt(1700000000), dto.End)
	assert.Equal(t, v2DataTypeV1, dto.DataType)
	assert.NotEmpty(t, dto.Data)
	assert.Equal(t, big.NewInt(1), dto.MakeAsset.Value)
	assert.Equal(t, big.NewInt(5000), dto.TakeAsset.Value)
}

func TestV2InvertPreservesFeeLists(t *testing.T) {
	original := types.Order{
		Type: types.OrderExchangeV2,
		Make: erc721Asset("0x00000000000000000000000000000000000000c3", 7),
		Take: ethAsset(5000),
		Data: types.ExchangeV2Data{
			OriginFees: []types.Part{{Account: common.HexToAddress("0xfe"), Value: 100}},
		},
	}
	handler := newExchangeV2Handler(handlerNetwork(t), nil, nil)

	t.Run("defaults to the maker's lists", func(t *testing.T) {
		inverted, err := handler.invert(Request{Order: original}, common.Address{})
		require.NoError(t, err)
		data := inverted.Data.(types.ExchangeV2Data)
		assert.Equal(t, int64(100), data.OriginFees[0].Value)
	})

	t.Run("request lists win", func(t *testing.T) {
		inverted, err := handler.invert(Request{
			Order:      original,
			OriginFees: []types.Part{{Value: 300}},
		}, common.Address{})
		require.NoError(t, err)
		data := inverted.Data.(types.ExchangeV2Data)
		assert.Equal(t, int64(300), data.OriginFees[0].Value)
	})
}
