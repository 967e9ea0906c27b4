package fill

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/approve"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

// OrderAPI is the slice of the order-index API the legacy exchange
// handler depends on: the backend countersigns the buyer-side fee.
type OrderAPI interface {
	BuyerFeeSignature(ctx context.Context, order types.Order, fee int64) ([]byte, error)
}

// Filler is the order-fill orchestrator. It owns one handler per
// protocol and runs every fill as a fixed two-stage pipeline:
//
//	approve: chain-id guard, resolve the filler address, invert the
//	         order, run the protocol's approvals;
//	send-tx: build and submit the protocol's match transaction.
//
// The stages are strictly sequential and never retried automatically.
type Filler struct {
	provider ethwallet.Provider
	send     ethwallet.SendFunc
	network  config.Network
	logger   *zap.Logger

	v1      *exchangeV1Handler
	v2      *exchangeV2Handler
	openSea *openSeaHandler
	punks   *punkHandler
}

// New wires a filler for one network. Each handler receives exactly the
// collaborators it needs; there is no shared mutable state between calls.
func New(provider ethwallet.Provider, send ethwallet.SendFunc, network config.Network, orderAPI OrderAPI, logger *zap.Logger) *Filler {
	approver := approve.New(provider, send, network.TransferProxies, logger)
	return &Filler{
		provider: provider,
		send:     send,
		network:  network,
		logger:   logger,
		v1:       newExchangeV1Handler(network, approver, orderAPI, logger),
		v2:       newExchangeV2Handler(network, approver, logger),
		openSea:  newOpenSeaHandler(provider, send, network, approver, logger),
		punks:    newPunkHandler(network, approver, logger),
	}
}

// Fill executes the two-stage fill pipeline and returns the pending match
// transaction.
func (f *Filler) Fill(ctx context.Context, req Request) (*ethwallet.Transaction, error) {
	return f.run(ctx, req)
}

// Buy fills a sell order. Behaviorally identical to Fill; the name lets
// callers express intent.
func (f *Filler) Buy(ctx context.Context, req Request) (*ethwallet.Transaction, error) {
	return f.run(ctx, req)
}

// AcceptBid fills a bid order. Behaviorally identical to Fill.
func (f *Filler) AcceptBid(ctx context.Context, req Request) (*ethwallet.Transaction, error) {
	return f.run(ctx, req)
}

func (f *Filler) run(ctx context.Context, req Request) (*ethwallet.Transaction, error) {
	start := time.Now()

	h, err := f.handlerFor(req.Order)
	if err != nil {
		return nil, err
	}

	// Stage "approve". The chain-id precondition runs before anything
	// that could sign or spend.
	if err := f.checkChainID(ctx); err != nil {
		return nil, err
	}

	filler, err := f.provider.From(ctx)
	if err != nil {
		return nil, err
	}

	inverted, err := h.invert(req, filler)
	if err != nil {
		return nil, err
	}

	if err := h.approve(ctx, inverted, req.Infinite); err != nil {
		FillsTotal.WithLabelValues(string(req.Order.Type), "approve_failed").Inc()
		return nil, err
	}

	// Stage "send-tx".
	call, opts, err := h.transactionData(ctx, req.Order, inverted)
	if err != nil {
		return nil, err
	}

	tx, err := f.send(ctx, call, opts)
	if err != nil {
		FillsTotal.WithLabelValues(string(req.Order.Type), "send_failed").Inc()
		return nil, err
	}

	FillsTotal.WithLabelValues(string(req.Order.Type), "sent").Inc()
	FillDurationSeconds.Observe(time.Since(start).Seconds())

	f.logger.Info("fill-submitted",
		zap.String("protocol", string(req.Order.Type)),
		zap.String("maker", req.Order.Maker.Hex()),
		zap.String("filler", filler.Hex()),
		zap.String("tx-hash", tx.Hash.Hex()))

	return tx, nil
}

// TransactionData builds the match call without submitting it. The
// chain-id guard still applies: inspecting a transaction for the wrong
// chain is as much a mistake as sending one.
func (f *Filler) TransactionData(ctx context.Context, req Request) (ethwallet.Call, ethwallet.SendOptions, error) {
	h, err := f.handlerFor(req.Order)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	if err := f.checkChainID(ctx); err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	filler, err := f.provider.From(ctx)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	inverted, err := h.invert(req, filler)
	if err != nil {
		return ethwallet.Call{}, ethwallet.SendOptions{}, err
	}

	return h.transactionData(ctx, req.Order, inverted)
}

// OrderFee returns the order's effective protocol fee in basis points.
func (f *Filler) OrderFee(order types.Order) (int64, error) {
	h, err := f.handlerFor(order)
	if err != nil {
		return 0, err
	}
	return h.orderFee(order), nil
}

// BaseOrderFee returns the protocol's base fee for the order's kind.
func (f *Filler) BaseOrderFee(order types.Order) (int64, error) {
	h, err := f.handlerFor(order)
	if err != nil {
		return 0, err
	}
	return h.baseOrderFee(order), nil
}

// handlerFor is the closed protocol dispatch: every supported tag maps to
// exactly one handler, anything else is an UnsupportedOrderError.
func (f *Filler) handlerFor(order types.Order) (handler, error) {
	switch order.Type {
	case types.OrderExchangeV1:
		return f.v1, nil
	case types.OrderExchangeV2:
		return f.v2, nil
	case types.OrderOpenSeaV1:
		return f.openSea, nil
	case types.OrderCryptoPunk:
		return f.punks, nil
	default:
		return nil, &types.UnsupportedOrderError{Order: &order}
	}
}

func (f *Filler) checkChainID(ctx context.Context) error {
	if f.provider == nil {
		return types.ErrWalletUndefined
	}
	walletChainID, err := f.provider.ChainID(ctx)
	if err != nil {
		return err
	}
	if walletChainID != f.network.ChainID {
		return &types.WrongChainIDError{Wallet: walletChainID, Configured: f.network.ChainID}
	}
	return nil
}
