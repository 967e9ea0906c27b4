package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OrderType tags the marketplace protocol an order belongs to.
type OrderType string

const (
	OrderExchangeV1 OrderType = "EXCHANGE_V1"
	OrderExchangeV2 OrderType = "EXCHANGE_V2"
	OrderOpenSeaV1  OrderType = "OPEN_SEA_V1"
	OrderCryptoPunk OrderType = "CRYPTO_PUNK"
)

// AssetClass identifies what kind of asset an order side carries.
type AssetClass string

const (
	AssetETH         AssetClass = "ETH"
	AssetERC20       AssetClass = "ERC20"
	AssetERC721      AssetClass = "ERC721"
	AssetERC1155     AssetClass = "ERC1155"
	AssetCryptoPunks AssetClass = "CRYPTO_PUNKS"
)

// AssetType describes an asset without a quantity.
// Contract and TokenID are meaningful only for token classes.
type AssetType struct {
	Class    AssetClass     `json:"assetClass"`
	Contract common.Address `json:"contract,omitempty"`
	TokenID  *big.Int       `json:"tokenId,omitempty"`
}

// Asset is an asset type plus a quantity. Value is an arbitrary-precision
// non-negative integer; 256-bit quantities must never pass through floats.
type Asset struct {
	Type  AssetType `json:"assetType"`
	Value *big.Int  `json:"value"`
}

// Copy returns a deep copy of the asset.
func (a Asset) Copy() Asset {
	out := Asset{Type: a.Type}
	if a.Type.TokenID != nil {
		out.Type.TokenID = new(big.Int).Set(a.Type.TokenID)
	}
	if a.Value != nil {
		out.Value = new(big.Int).Set(a.Value)
	}
	return out
}

// Part is a payout or origin-fee entry: an account and its share in
// basis points (parts per 10000).
type Part struct {
	Account common.Address `json:"account"`
	Value   int64          `json:"value"`
}

// OpenSeaSide is the side field of an OpenSeaV1 order.
type OpenSeaSide string

const (
	OpenSeaBuy  OpenSeaSide = "BUY"
	OpenSeaSell OpenSeaSide = "SELL"
)

// Wyvern common-data enums. Values are protocol-mandated.
type (
	FeeMethod uint8
	SaleKind  uint8
	HowToCall uint8
)

const (
	FeeMethodProtocolFee FeeMethod = 0
	FeeMethodSplitFee    FeeMethod = 1

	SaleKindFixedPrice SaleKind = 0
	SaleKindDutch      SaleKind = 1

	HowToCallCall         HowToCall = 0
	HowToCallDelegateCall HowToCall = 1
)

// OrderData is the protocol-specific payload of an order. It is a closed
// set: exactly one implementation per OrderType.
type OrderData interface {
	OrderType() OrderType
}

// ExchangeV1Data carries the legacy exchange's single flat fee (bps).
type ExchangeV1Data struct {
	Fee int64 `json:"fee"`
}

func (ExchangeV1Data) OrderType() OrderType { return OrderExchangeV1 }

// ExchangeV2Data carries payout and origin-fee lists distributed by the
// V2 contract; the protocol-level fee is always zero.
type ExchangeV2Data struct {
	Payouts    []Part `json:"payouts"`
	OriginFees []Part `json:"originFees"`
}

func (ExchangeV2Data) OrderType() OrderType { return OrderExchangeV2 }

// OpenSeaV1Data mirrors the Wyvern order fields the atomic-match call
// needs. Fee fields are basis points.
type OpenSeaV1Data struct {
	Exchange           common.Address `json:"exchange"`
	MakerRelayerFee    int64          `json:"makerRelayerFee"`
	TakerRelayerFee    int64          `json:"takerRelayerFee"`
	MakerProtocolFee   int64          `json:"makerProtocolFee"`
	TakerProtocolFee   int64          `json:"takerProtocolFee"`
	FeeRecipient       common.Address `json:"feeRecipient"`
	FeeMethod          FeeMethod      `json:"feeMethod"`
	Side               OpenSeaSide    `json:"side"`
	SaleKind           SaleKind       `json:"saleKind"`
	HowToCall          HowToCall      `json:"howToCall"`
	CallData           []byte         `json:"callData"`
	ReplacementPattern []byte         `json:"replacementPattern"`
	StaticTarget       common.Address `json:"staticTarget"`
	StaticExtraData    []byte         `json:"staticExtraData"`
	Extra              *big.Int       `json:"extra"`
	Target             common.Address `json:"target"`
}

func (OpenSeaV1Data) OrderType() OrderType { return OrderOpenSeaV1 }

// CryptoPunkData has no protocol fields; the tag itself is the payload.
type CryptoPunkData struct{}

func (CryptoPunkData) OrderType() OrderType { return OrderCryptoPunk }

// Order is a protocol-tagged, signable intent to exchange Make for Take.
// An unsigned order has a nil Signature; inverting an order always clears it.
type Order struct {
	Type      OrderType      `json:"type"`
	Maker     common.Address `json:"maker"`
	Taker     common.Address `json:"taker,omitempty"`
	Make      Asset          `json:"make"`
	Take      Asset          `json:"take"`
	Salt      *big.Int       `json:"salt"`
	Start     int64          `json:"start,omitempty"`
	End       int64          `json:"end,omitempty"`
	Signature []byte         `json:"signature,omitempty"`
	Data      OrderData      `json:"data"`
	Hash      common.Hash    `json:"hash,omitempty"`
}

// Signed reports whether the order carries a maker signature.
func (o *Order) Signed() bool { return len(o.Signature) > 0 }
