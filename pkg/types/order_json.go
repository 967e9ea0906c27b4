package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	json "github.com/goccy/go-json"
)

var zeroAddress = common.Address{}

type assetTypeJSON struct {
	Class    AssetClass `json:"assetClass"`
	Contract string     `json:"contract,omitempty"`
	TokenID  string     `json:"tokenId,omitempty"`
}

// MarshalJSON writes token ids and values as decimal strings: 256-bit
// quantities must never round-trip through JSON numbers.
func (t AssetType) MarshalJSON() ([]byte, error) {
	out := assetTypeJSON{Class: t.Class}
	if t.Contract != zeroAddress {
		out.Contract = t.Contract.Hex()
	}
	if t.TokenID != nil {
		out.TokenID = t.TokenID.String()
	}
	return json.Marshal(out)
}

func (t *AssetType) UnmarshalJSON(raw []byte) error {
	var in assetTypeJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	t.Class = in.Class
	if in.Contract != "" {
		t.Contract = common.HexToAddress(in.Contract)
	}
	if in.TokenID != "" {
		id, ok := new(big.Int).SetString(in.TokenID, 10)
		if !ok {
			return fmt.Errorf("invalid token id %q", in.TokenID)
		}
		t.TokenID = id
	}
	return nil
}

type assetJSON struct {
	Type  AssetType `json:"assetType"`
	Value string    `json:"value"`
}

func (a Asset) MarshalJSON() ([]byte, error) {
	value := "0"
	if a.Value != nil {
		value = a.Value.String()
	}
	return json.Marshal(assetJSON{Type: a.Type, Value: value})
}

func (a *Asset) UnmarshalJSON(raw []byte) error {
	var in assetJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	value, ok := new(big.Int).SetString(in.Value, 10)
	if !ok {
		return fmt.Errorf("invalid asset value %q", in.Value)
	}
	a.Type = in.Type
	a.Value = value
	return nil
}

type orderJSON struct {
	Type      OrderType       `json:"type"`
	Maker     string          `json:"maker"`
	Taker     string          `json:"taker,omitempty"`
	Make      Asset           `json:"make"`
	Take      Asset           `json:"take"`
	Salt      string          `json:"salt"`
	Start     int64           `json:"start,omitempty"`
	End       int64           `json:"end,omitempty"`
	Signature string          `json:"signature,omitempty"`
	Data      json.RawMessage `json:"data"`
	Hash      string          `json:"hash,omitempty"`
}

// MarshalJSON flattens the tagged OrderData variant into a discriminated
// object so all four protocols share one wire shape.
func (o Order) MarshalJSON() ([]byte, error) {
	data, err := marshalOrderData(o.Data)
	if err != nil {
		return nil, err
	}
	salt := "0"
	if o.Salt != nil {
		salt = o.Salt.String()
	}
	out := orderJSON{
		Type:  o.Type,
		Maker: o.Maker.Hex(),
		Make:  o.Make,
		Take:  o.Take,
		Salt:  salt,
		Start: o.Start,
		End:   o.End,
		Data:  data,
	}
	if o.Taker != zeroAddress {
		out.Taker = o.Taker.Hex()
	}
	if len(o.Signature) > 0 {
		out.Signature = hexutil.Encode(o.Signature)
	}
	if o.Hash != (common.Hash{}) {
		out.Hash = o.Hash.Hex()
	}
	return json.Marshal(out)
}

func (o *Order) UnmarshalJSON(raw []byte) error {
	var in orderJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	o.Type = in.Type
	o.Maker = common.HexToAddress(in.Maker)
	o.Taker = zeroAddress
	if in.Taker != "" {
		o.Taker = common.HexToAddress(in.Taker)
	}
	o.Make = in.Make
	o.Take = in.Take
	salt, ok := new(big.Int).SetString(in.Salt, 10)
	if !ok {
		return fmt.Errorf("invalid salt %q", in.Salt)
	}
	o.Salt = salt
	o.Start = in.Start
	o.End = in.End
	o.Signature = nil
	if in.Signature != "" {
		sig, err := hexutil.Decode(in.Signature)
		if err != nil {
			return fmt.Errorf("invalid signature: %w", err)
		}
		o.Signature = sig
	}
	o.Hash = common.Hash{}
	if in.Hash != "" {
		o.Hash = common.HexToHash(in.Hash)
	}
	data, err := unmarshalOrderData(in.Data)
	if err != nil {
		return err
	}
	o.Data = data
	return nil
}

func marshalOrderData(d OrderData) (json.RawMessage, error) {
	if d == nil {
		return json.RawMessage(`null`), nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal order data: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("flatten order data: %w", err)
	}
	tag, err := json.Marshal(d.OrderType())
	if err != nil {
		return nil, err
	}
	fields["dataType"] = tag
	return json.Marshal(fields)
}

func unmarshalOrderData(raw json.RawMessage) (OrderData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var tag struct {
		DataType OrderType `json:"dataType"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("order data discriminator: %w", err)
	}
	switch tag.DataType {
	case OrderExchangeV1:
		var d ExchangeV1Data
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d, nil
	case OrderExchangeV2:
		var d ExchangeV2Data
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d, nil
	case OrderOpenSeaV1:
		var d openSeaV1DataJSON
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d.toData()
	case OrderCryptoPunk:
		return CryptoPunkData{}, nil
	default:
		return nil, fmt.Errorf("unknown order data type %q", tag.DataType)
	}
}

// openSeaV1DataJSON keeps byte fields 0x-hex encoded on the wire.
type openSeaV1DataJSON struct {
	Exchange           string      `json:"exchange"`
	MakerRelayerFee    int64       `json:"makerRelayerFee"`
	TakerRelayerFee    int64       `json:"takerRelayerFee"`
	MakerProtocolFee   int64       `json:"makerProtocolFee"`
	TakerProtocolFee   int64       `json:"takerProtocolFee"`
	FeeRecipient       string      `json:"feeRecipient"`
	FeeMethod          FeeMethod   `json:"feeMethod"`
	Side               OpenSeaSide `json:"side"`
	SaleKind           SaleKind    `json:"saleKind"`
	HowToCall          HowToCall   `json:"howToCall"`
	CallData           string      `json:"callData"`
	ReplacementPattern string      `json:"replacementPattern"`
	StaticTarget       string      `json:"staticTarget"`
	StaticExtraData    string      `json:"staticExtraData"`
	Extra              string      `json:"extra"`
	Target             string      `json:"target"`
}

func (d openSeaV1DataJSON) toData() (OpenSeaV1Data, error) {
	out := OpenSeaV1Data{
		Exchange:         common.HexToAddress(d.Exchange),
		MakerRelayerFee:  d.MakerRelayerFee,
		TakerRelayerFee:  d.TakerRelayerFee,
		MakerProtocolFee: d.MakerProtocolFee,
		TakerProtocolFee: d.TakerProtocolFee,
		FeeRecipient:     common.HexToAddress(d.FeeRecipient),
		FeeMethod:        d.FeeMethod,
		Side:             d.Side,
		SaleKind:         d.SaleKind,
		HowToCall:        d.HowToCall,
		StaticTarget:     common.HexToAddress(d.StaticTarget),
		Target:           common.HexToAddress(d.Target),
	}
	for _, f := range []struct {
		src string
		dst *[]byte
	}{
		{d.CallData, &out.CallData},
		{d.ReplacementPattern, &out.ReplacementPattern},
		{d.StaticExtraData, &out.StaticExtraData},
	} {
		if f.src == "" {
			continue
		}
		b, err := hexutil.Decode(f.src)
		if err != nil {
			return OpenSeaV1Data{}, fmt.Errorf("invalid hex field: %w", err)
		}
		*f.dst = b
	}
	out.Extra = big.NewInt(0)
	if d.Extra != "" {
		extra, ok := new(big.Int).SetString(d.Extra, 10)
		if !ok {
			return OpenSeaV1Data{}, fmt.Errorf("invalid extra %q", d.Extra)
		}
		out.Extra = extra
	}
	return out, nil
}

// MarshalJSON for OpenSeaV1Data emits the same hex-string shape toData parses.
func (d OpenSeaV1Data) MarshalJSON() ([]byte, error) {
	extra := "0"
	if d.Extra != nil {
		extra = d.Extra.String()
	}
	return json.Marshal(openSeaV1DataJSON{
		Exchange:           d.Exchange.Hex(),
		MakerRelayerFee:    d.MakerRelayerFee,
		TakerRelayerFee:    d.TakerRelayerFee,
		MakerProtocolFee:   d.MakerProtocolFee,
		TakerProtocolFee:   d.TakerProtocolFee,
		FeeRecipient:       d.FeeRecipient.Hex(),
		FeeMethod:          d.FeeMethod,
		Side:               d.Side,
		SaleKind:           d.SaleKind,
		HowToCall:          d.HowToCall,
		CallData:           hexutil.Encode(d.CallData),
		ReplacementPattern: hexutil.Encode(d.ReplacementPattern),
		StaticTarget:       d.StaticTarget.Hex(),
		StaticExtraData:    hexutil.Encode(d.StaticExtraData),
		Extra:              extra,
		Target:             d.Target.Hex(),
	})
}

// marshalForDiagnostics renders an order for error messages. Failures to
// serialize must never mask the original failure.
func marshalForDiagnostics(o *Order) string {
	if o == nil {
		return "<nil>"
	}
	raw, err := json.Marshal(*o)
	if err != nil {
		return fmt.Sprintf("<unserializable %s order>", o.Type)
	}
	return string(raw)
}
