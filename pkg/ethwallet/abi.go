package ethwallet

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// MustABI parses a JSON ABI fragment at package init time.
func MustABI(jsonABI string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(jsonABI))
	if err != nil {
		panic(fmt.Sprintf("parse ABI: %v", err))
	}
	return parsed
}

// BindCall packs a method call against a contract address.
func BindCall(to common.Address, parsed abi.ABI, method string, args ...interface{}) (Call, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return Call{}, fmt.Errorf("pack %s: %w", method, err)
	}
	return Call{To: to, Method: method, Data: data}, nil
}
