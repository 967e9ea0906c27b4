package orderwatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftex/fill-engine/pkg/retry"
	"github.com/nftex/fill-engine/pkg/types"
)

type scriptedGetter struct {
	calls   int
	results []func() (*types.Order, error)
}

func (g *scriptedGetter) GetOrderByHash(context.Context, common.Hash) (*types.Order, error) {
	result := g.results[g.calls]
	if g.calls < len(g.results)-1 {
		g.calls++
	}
	return result()
}

func fastBackoff(attempts int) retry.Backoff {
	return retry.Backoff{Attempts: attempts, StartDelay: time.Millisecond}
}

func TestWaitForOrderEventualConsistency(t *testing.T) {
	hash := common.HexToHash("0xabc1")
	order := &types.Order{Type: types.OrderExchangeV2, Hash: hash}

	getter := &scriptedGetter{results: []func() (*types.Order, error){
		func() (*types.Order, error) { return nil, errors.New("order not found") },
		func() (*types.Order, error) { return nil, errors.New("order not found") },
		func() (*types.Order, error) { return order, nil },
	}}

	got, err := WaitForOrder(context.Background(), getter, hash, fastBackoff(5), nil)
	require.NoError(t, err)
	assert.Equal(t, order, got)
	assert.Equal(t, 2, getter.calls)
}

func TestWaitForOrderPredicate(t *testing.T) {
	hash := common.HexToHash("0xabc1")
	stale := &types.Order{Hash: hash, Signature: nil}
	fresh := &types.Order{Hash: hash, Signature: make([]byte, 65)}

	getter := &scriptedGetter{results: []func() (*types.Order, error){
		func() (*types.Order, error) { return stale, nil },
		func() (*types.Order, error) { return fresh, nil },
	}}

	got, err := WaitForOrder(context.Background(), getter, hash, fastBackoff(5), func(o *types.Order) bool {
		return len(o.Signature) > 0
	})
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
}

func TestWaitForOrderBudgetExhausted(t *testing.T) {
	hash := common.HexToHash("0xabc1")
	getter := &scriptedGetter{results: []func() (*types.Order, error){
		func() (*types.Order, error) { return nil, errors.New("order not found") },
	}}

	_, err := WaitForOrder(context.Background(), getter, hash, fastBackoff(3), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order not found")
}

func TestWaitForOrderCancellation(t *testing.T) {
	hash := common.HexToHash("0xabc1")
	getter := &scriptedGetter{results: []func() (*types.Order, error){
		func() (*types.Order, error) { return nil, errors.New("order not found") },
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WaitForOrder(ctx, getter, hash, retry.Backoff{Attempts: 100, StartDelay: time.Hour}, nil)
	require.ErrorIs(t, err, context.Canceled)
}
