package orderwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftex/fill-engine/pkg/retry"
	"github.com/nftex/fill-engine/pkg/types"
)

// OrderGetter reads one order from the order index.
type OrderGetter interface {
	GetOrderByHash(ctx context.Context, hash common.Hash) (*types.Order, error)
}

// DefaultWaitBackoff is the polling policy WaitForOrder uses when the
// caller passes a zero Backoff. The index is eventually consistent, so
// the first read often misses a just-published order.
var DefaultWaitBackoff = retry.Backoff{
	Attempts:   10,
	StartDelay: 200 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// WaitForOrder polls the order index until the order at hash satisfies
// accept, or the retry budget runs out. A nil accept waits for the order
// to merely exist.
func WaitForOrder(ctx context.Context, getter OrderGetter, hash common.Hash, cfg retry.Backoff, accept func(*types.Order) bool) (*types.Order, error) {
	if cfg.Attempts == 0 {
		cfg = DefaultWaitBackoff
	}

	var found *types.Order
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		order, err := getter.GetOrderByHash(ctx, hash)
		if err != nil {
			return err
		}
		if accept != nil && !accept(order) {
			return fmt.Errorf("order %s has not converged", hash.Hex())
		}
		found = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
