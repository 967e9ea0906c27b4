package cmd

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftex/fill-engine/pkg/types"
)

func TestParseOrderHash(t *testing.T) {
	hash, err := parseOrderHash("0x1234567890123456789012345678901234567890123456789012345678901234")
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x1234567890123456789012345678901234567890123456789012345678901234"), hash)

	_, err = parseOrderHash("0x1234")
	assert.Error(t, err)

	_, err = parseOrderHash("1234567890123456789012345678901234567890123456789012345678901234ab")
	assert.Error(t, err)
}

func TestParseParts(t *testing.T) {
	parts, err := parseParts([]string{
		"0x00000000000000000000000000000000000000a1:250",
		"0x00000000000000000000000000000000000000a2:0",
	})
	require.NoError(t, err)
	assert.Equal(t, []types.Part{
		{Account: common.HexToAddress("0x00000000000000000000000000000000000000a1"), Value: 250},
		{Account: common.HexToAddress("0x00000000000000000000000000000000000000a2"), Value: 0},
	}, parts)

	empty, err := parseParts(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestParsePartsRejectsMalformedEntries(t *testing.T) {
	cases := []string{
		"not-an-address:250",
		"0x00000000000000000000000000000000000000a1",
		"0x00000000000000000000000000000000000000a1:abc",
		"0x00000000000000000000000000000000000000a1:-5",
		"0x00000000000000000000000000000000000000a1:10001",
	}
	for _, entry := range cases {
		_, err := parseParts([]string{entry})
		assert.Error(t, err, entry)
	}
}

func TestParseBig(t *testing.T) {
	value, err := parseBig("115792089237316195423570985008687907853269984665640564039457584007913129639935", "price")
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)), value)

	for _, raw := range []string{"", "-1", "1.5", "0x10"} {
		_, err := parseBig(raw, "price")
		assert.Error(t, err, raw)
	}
}
