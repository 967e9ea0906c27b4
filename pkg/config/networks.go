package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransferProxies holds the per-protocol transfer-proxy contracts that
// must be approved before a match can move assets.
type TransferProxies struct {
	NFT         common.Address // native exchange ERC-721/1155 proxy
	ERC20       common.Address // native exchange ERC-20 proxy
	OpenSeaV1   common.Address // Wyvern token-transfer proxy (ERC-20 side)
	CryptoPunks common.Address // punk wrapper proxy
}

// ExchangeAddresses holds the match-contract addresses per protocol.
type ExchangeAddresses struct {
	V1        common.Address
	V2        common.Address
	OpenSeaV1 common.Address
}

// OpenSeaConfig is the third-party protocol's static metadata: the origin
// tag appended to every atomic match, and its proxy registry.
type OpenSeaConfig struct {
	Metadata      common.Hash
	ProxyRegistry common.Address
}

// Network is the static contract table for one chain. There is no dynamic
// discovery: addresses are compiled in and selected by chain id.
type Network struct {
	Name            string
	ChainID         uint64
	Exchange        ExchangeAddresses
	TransferProxies TransferProxies
	ExchangeV2Fee   int64 // protocol fee for V2 orders, basis points
	OpenSea         OpenSeaConfig
	PunkMarket      common.Address
	WETH            common.Address
}

// id32 derives a bytes32 tag from an ASCII label, matching the on-chain
// origin-metadata convention.
func id32(label string) common.Hash {
	return crypto.Keccak256Hash([]byte(label))
}

var networks = map[uint64]Network{
	1: {
		Name:    "mainnet",
		ChainID: 1,
		Exchange: ExchangeAddresses{
			V1:        common.HexToAddress("0x09EaB21c40743B2364b94345419138eF80f39e30"),
			V2:        common.HexToAddress("0x9757F2d2b135150BBeb65308D4a91804107cd8D6"),
			OpenSeaV1: common.HexToAddress("0x7Be8076f4EA4A4AD08075C2508e481d6C946D12b"),
		},
		TransferProxies: TransferProxies{
			NFT:         common.HexToAddress("0x4fee7B061C97C9c496b01DbcE9CDb10c02f0a0Be"),
			ERC20:       common.HexToAddress("0xb8e4526e0da700e9ef1f879af713d691f81507d8"),
			OpenSeaV1:   common.HexToAddress("0xE5c783EE536cf5E63E792988335c4255169be4E1"),
			CryptoPunks: common.HexToAddress("0xC3AA9bc72Bd623168860a1e5c6a4530d3D80456c"),
		},
		ExchangeV2Fee: 0,
		OpenSea: OpenSeaConfig{
			Metadata:      id32("NFTEX"),
			ProxyRegistry: common.HexToAddress("0xa5409ec958C83C3f309868babACA7c86DCB077c1"),
		},
		PunkMarket: common.HexToAddress("0xb47e3cd837dDF8e4c57F05d70Ab865de6e193BBB"),
		WETH:       common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	},
	3: {
		Name:    "ropsten",
		ChainID: 3,
		Exchange: ExchangeAddresses{
			V1:        common.HexToAddress("0xd782A10D023828d283f7b943Ae0fc3F07B2952d9"),
			V2:        common.HexToAddress("0x33Aef288C093Bf7b36fBe15c3190e616a993b0AD"),
			OpenSeaV1: common.HexToAddress("0x5206e78b21ce315ce284fb24cf05e0585a93b1d9"),
		},
		TransferProxies: TransferProxies{
			NFT:         common.HexToAddress("0xf8e4ecac18b65fd04569ff1f0d561f74effaa206"),
			ERC20:       common.HexToAddress("0xa5a51d7b4933185da9c932e5375187f661cb0c69"),
			OpenSeaV1:   common.HexToAddress("0x0000000000000000000000000000000000000000"),
			CryptoPunks: common.HexToAddress("0x0000000000000000000000000000000000000000"),
		},
		ExchangeV2Fee: 0,
		OpenSea: OpenSeaConfig{
			Metadata:      id32("NFTEX"),
			ProxyRegistry: common.Address{},
		},
		PunkMarket: common.Address{},
		WETH:       common.HexToAddress("0xc778417E063141139Fce010982780140Aa0cD5Ab"),
	},
	137: {
		Name:    "polygon",
		ChainID: 137,
		Exchange: ExchangeAddresses{
			V1:        common.Address{},
			V2:        common.HexToAddress("0x835131b455778559CFdDd358eA3Fc762728F4E3e"),
			OpenSeaV1: common.Address{},
		},
		TransferProxies: TransferProxies{
			NFT:         common.HexToAddress("0xd47e14DD9b98411754f722B4c4074e14752Ada7C"),
			ERC20:       common.HexToAddress("0x49b4e47079d9b733B2227fa15f0762dBF707B263"),
			OpenSeaV1:   common.Address{},
			CryptoPunks: common.Address{},
		},
		ExchangeV2Fee: 0,
		OpenSea: OpenSeaConfig{
			Metadata:      id32("NFTEX"),
			ProxyRegistry: common.Address{},
		},
		PunkMarket: common.Address{},
		WETH:       common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"),
	},
}

// NetworkByChainID returns the contract table for a chain id.
func NetworkByChainID(chainID uint64) (Network, error) {
	network, ok := networks[chainID]
	if !ok {
		return Network{}, fmt.Errorf("no network configuration for chain id %d", chainID)
	}
	return network, nil
}
