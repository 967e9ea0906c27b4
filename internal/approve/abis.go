package approve

import "github.com/nftex/fill-engine/pkg/ethwallet"

// ERC-20 allowance surface.
const erc20ABIJSON = `[
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// Shared by ERC-721 and ERC-1155: operator approvals have the same shape.
const operatorApprovalABIJSON = `[
	{"constant":false,"inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"name":"setApprovalForAll","outputs":[],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// CryptoPunks has no approvals; a punk is made movable by offering it for
// zero to the transfer proxy.
const punksABIJSON = `[
	{"constant":false,"inputs":[{"name":"punkIndex","type":"uint256"},{"name":"minSalePriceInWei","type":"uint256"},{"name":"toAddress","type":"address"}],"name":"offerPunkForSaleToAddress","outputs":[],"type":"function"},
	{"constant":true,"inputs":[{"name":"","type":"uint256"}],"name":"punksOfferedForSale","outputs":[{"name":"isForSale","type":"bool"},{"name":"punkIndex","type":"uint256"},{"name":"seller","type":"address"},{"name":"minValue","type":"uint256"},{"name":"onlySellTo","type":"address"}],"type":"function"}
]`

var (
	erc20ABI            = ethwallet.MustABI(erc20ABIJSON)
	operatorApprovalABI = ethwallet.MustABI(operatorApprovalABIJSON)
	punksABI            = ethwallet.MustABI(punksABIJSON)
)
