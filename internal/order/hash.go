package order

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nftex/fill-engine/pkg/types"
)

// EIP-712 domain of the V2 exchange.
const (
	eip712DomainName    = "Exchange"
	eip712DomainVersion = "2"
)

// Type hashes fixed by the V2 contracts.
var (
	eip712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))
	assetTypeTypeHash = crypto.Keccak256Hash([]byte(
		"AssetType(bytes4 assetClass,bytes data)",
	))
	assetTypeHash = crypto.Keccak256Hash([]byte(
		"Asset(AssetType assetType,uint256 value)",
	))
	orderTypeHash = crypto.Keccak256Hash([]byte(
		"Order(address maker,Asset makeAsset,address taker,Asset takeAsset,uint256 salt,uint256 start,uint256 end,bytes4 dataType,bytes data)" +
			"Asset(AssetType assetType,uint256 value)" +
			"AssetType(bytes4 assetClass,bytes data)",
	))
)

var (
	bytes32Type = mustABIType("bytes32")
	bytes4Type  = mustABIType("bytes4")
	uint256Type = mustABIType("uint256")
	addressType = mustABIType("address")
)

func mustABIType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func packWords(args abi.Arguments, values ...interface{}) []byte {
	encoded, err := args.Pack(values...)
	if err != nil {
		panic("encode typed data: " + err.Error())
	}
	return encoded
}

// domainSeparator hashes the EIP-712 domain binding signatures to one
// chain and one exchange deployment.
func domainSeparator(chainID uint64, verifyingContract common.Address) common.Hash {
	args := abi.Arguments{
		{Type: bytes32Type},
		{Type: bytes32Type},
		{Type: bytes32Type},
		{Type: uint256Type},
		{Type: addressType},
	}
	encoded := packWords(args,
		eip712DomainTypeHash,
		crypto.Keccak256Hash([]byte(eip712DomainName)),
		crypto.Keccak256Hash([]byte(eip712DomainVersion)),
		new(big.Int).SetUint64(chainID),
		verifyingContract,
	)
	return crypto.Keccak256Hash(encoded)
}

func hashAssetType(class [4]byte, data []byte) common.Hash {
	args := abi.Arguments{
		{Type: bytes32Type},
		{Type: bytes4Type},
		{Type: bytes32Type},
	}
	encoded := packWords(args, assetTypeTypeHash, class, crypto.Keccak256Hash(data))
	return crypto.Keccak256Hash(encoded)
}

func hashAsset(class [4]byte, data []byte, value *big.Int) common.Hash {
	args := abi.Arguments{
		{Type: bytes32Type},
		{Type: bytes32Type},
		{Type: uint256Type},
	}
	if value == nil {
		value = big.NewInt(0)
	}
	encoded := packWords(args, assetTypeHash, hashAssetType(class, data), value)
	return crypto.Keccak256Hash(encoded)
}

// hashOrderV2 computes the struct hash the V2 contract derives for an
// order, matching its on-chain hashing byte for byte.
func hashOrderV2(order types.Order, enc *v2Encoding) common.Hash {
	args := abi.Arguments{
		{Type: bytes32Type}, // type hash
		{Type: addressType}, // maker
		{Type: bytes32Type}, // make asset hash
		{Type: addressType}, // taker
		{Type: bytes32Type}, // take asset hash
		{Type: uint256Type}, // salt
		{Type: uint256Type}, // start
		{Type: uint256Type}, // end
		{Type: bytes4Type},  // data type
		{Type: bytes32Type}, // data hash
	}

	salt := order.Salt
	if salt == nil {
		salt = big.NewInt(0)
	}

	encoded := packWords(args,
		orderTypeHash,
		order.Maker,
		hashAsset(enc.makeClass, enc.makeData, order.Make.Value),
		order.Taker,
		hashAsset(enc.takeClass, enc.takeData, order.Take.Value),
		salt,
		big.NewInt(order.Start),
		big.NewInt(order.End),
		enc.dataType,
		crypto.Keccak256Hash(enc.data),
	)
	return crypto.Keccak256Hash(encoded)
}

// signingDigestV2 is the final EIP-712 digest: keccak256("\x19\x01" ||
// domainSeparator || structHash).
func signingDigestV2(order types.Order, enc *v2Encoding, chainID uint64, exchange common.Address) common.Hash {
	separator := domainSeparator(chainID, exchange)
	structHash := hashOrderV2(order, enc)

	data := make([]byte, 0, 2+32+32)
	data = append(data, 0x19, 0x01)
	data = append(data, separator.Bytes()...)
	data = append(data, structHash.Bytes()...)
	return crypto.Keccak256Hash(data)
}

// legacyOrderDigest hashes a legacy-exchange order the way its contract
// rebuilds the signed message: the ABI encoding of the order struct,
// hashed, then signed with the personal-message prefix.
func legacyOrderDigest(order types.Order) (common.Hash, error) {
	makeKind, err := legacyAssetKind(order.Make.Type.Class)
	if err != nil {
		return common.Hash{}, err
	}
	takeKind, err := legacyAssetKind(order.Take.Type.Class)
	if err != nil {
		return common.Hash{}, err
	}
	data, ok := order.Data.(types.ExchangeV1Data)
	if !ok {
		return common.Hash{}, &types.InvalidOrderError{Reason: "legacy order without legacy data"}
	}

	args := abi.Arguments{
		{Type: addressType}, // owner
		{Type: uint256Type}, // salt
		{Type: addressType}, // sell token
		{Type: uint256Type}, // sell token id
		{Type: uint256Type}, // sell asset kind
		{Type: addressType}, // buy token
		{Type: uint256Type}, // buy token id
		{Type: uint256Type}, // buy asset kind
		{Type: uint256Type}, // selling
		{Type: uint256Type}, // buying
		{Type: uint256Type}, // seller fee
	}

	salt := order.Salt
	if salt == nil {
		salt = big.NewInt(0)
	}

	encoded := packWords(args,
		order.Maker,
		salt,
		order.Make.Type.Contract,
		orZero(order.Make.Type.TokenID),
		big.NewInt(int64(makeKind)),
		order.Take.Type.Contract,
		orZero(order.Take.Type.TokenID),
		big.NewInt(int64(takeKind)),
		order.Make.Value,
		order.Take.Value,
		big.NewInt(data.Fee),
	)
	return crypto.Keccak256Hash(encoded), nil
}

func legacyAssetKind(class types.AssetClass) (uint8, error) {
	switch class {
	case types.AssetETH:
		return 0, nil
	case types.AssetERC20:
		return 1, nil
	case types.AssetERC1155:
		return 2, nil
	case types.AssetERC721:
		return 3, nil
	default:
		return 0, &types.UnsupportedAssetError{Class: class}
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
