package fill

import (
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

// CancelCall builds the on-chain cancellation for one of the native
// exchanges. The maker must send it themselves; the contracts reject
// cancellation by anyone else. Third-party protocols manage cancellation
// on their own venues and are not supported here.
func CancelCall(network config.Network, order types.Order) (ethwallet.Call, error) {
	switch order.Type {
	case types.OrderExchangeV1:
		dto, err := v1OrderToDTO(order)
		if err != nil {
			return ethwallet.Call{}, err
		}
		return ethwallet.BindCall(network.Exchange.V1, exchangeV1ABI, "cancel", dto.Key)
	case types.OrderExchangeV2:
		dto, err := v2OrderToDTO(order)
		if err != nil {
			return ethwallet.Call{}, err
		}
		return ethwallet.BindCall(network.Exchange.V2, exchangeV2ABI, "cancel", dto)
	default:
		return ethwallet.Call{}, &types.UnsupportedOrderError{Order: &order}
	}
}
