package order

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/fill"
	"github.com/nftex/fill-engine/internal/journal"
	"github.com/nftex/fill-engine/pkg/api"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

// OrderIndex is the slice of the order-index API the front door uses.
type OrderIndex interface {
	GetOrderByHash(ctx context.Context, hash common.Hash) (*types.Order, error)
	UpsertOrder(ctx context.Context, order types.Order) (*types.Order, error)
}

// Service is the order front door: it builds, signs and publishes sell
// orders and bids, and cancels them on chain.
type Service struct {
	wallet   Wallet
	send     ethwallet.SendFunc
	network  config.Network
	index    OrderIndex
	registry api.Registry
	signer   *Signer
	journal  journal.Journal
	logger   *zap.Logger
}

// New wires the front door. journal may be nil to disable journaling.
func New(wallet Wallet, send ethwallet.SendFunc, network config.Network, index OrderIndex, registry api.Registry, jrnl journal.Journal, logger *zap.Logger) *Service {
	return &Service{
		wallet:   wallet,
		send:     send,
		network:  network,
		index:    index,
		registry: registry,
		signer:   NewSigner(wallet, network),
		journal:  jrnl,
		logger:   logger,
	}
}

// SellRequest describes a new sell order: the maker offers Amount of an
// NFT for Price per unit of the payment asset.
type SellRequest struct {
	MakeAssetType types.AssetType
	Amount        *big.Int
	TakeAssetType types.AssetType
	Price         *big.Int
	Payouts       []types.Part
	OriginFees    []types.Part
	End           int64
}

// BidRequest describes a new bid: the maker offers Price per unit of the
// payment asset for Amount of an NFT.
type BidRequest struct {
	MakeAssetType types.AssetType
	Price         *big.Int
	TakeAssetType types.AssetType
	Amount        *big.Int
	Payouts       []types.Part
	OriginFees    []types.Part
	End           int64
}

// Sell builds, signs and publishes a sell order.
func (s *Service) Sell(ctx context.Context, req SellRequest) (*types.Order, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, &types.InvalidOrderError{Reason: "sell amount must be positive"}
	}
	if req.Price == nil || req.Price.Sign() < 0 {
		return nil, &types.InvalidOrderError{Reason: "sell price must be non-negative"}
	}

	nftType, err := api.ResolveAssetType(ctx, s.registry, req.MakeAssetType)
	if err != nil {
		return nil, err
	}

	order := types.Order{
		Type: types.OrderExchangeV2,
		Make: types.Asset{Type: nftType, Value: req.Amount},
		Take: types.Asset{
			Type:  req.TakeAssetType,
			Value: new(big.Int).Mul(req.Price, req.Amount),
		},
		End: req.End,
		Data: types.ExchangeV2Data{
			Payouts:    req.Payouts,
			OriginFees: req.OriginFees,
		},
	}
	return s.publish(ctx, order, journal.EventOrderCreated)
}

// Bid builds, signs and publishes a bid.
func (s *Service) Bid(ctx context.Context, req BidRequest) (*types.Order, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, &types.InvalidOrderError{Reason: "bid amount must be positive"}
	}
	if req.Price == nil || req.Price.Sign() < 0 {
		return nil, &types.InvalidOrderError{Reason: "bid price must be non-negative"}
	}

	nftType, err := api.ResolveAssetType(ctx, s.registry, req.TakeAssetType)
	if err != nil {
		return nil, err
	}

	order := types.Order{
		Type: types.OrderExchangeV2,
		Make: types.Asset{
			Type:  req.MakeAssetType,
			Value: new(big.Int).Mul(req.Price, req.Amount),
		},
		Take: types.Asset{Type: nftType, Value: req.Amount},
		End:  req.End,
		Data: types.ExchangeV2Data{
			Payouts:    req.Payouts,
			OriginFees: req.OriginFees,
		},
	}
	return s.publish(ctx, order, journal.EventOrderCreated)
}

// UpdatePrice republishes an existing order with a new total price on
// its payment side. The salt is kept, so the new version replaces the
// old one in the index instead of creating a second live order.
func (s *Service) UpdatePrice(ctx context.Context, hash common.Hash, price *big.Int) (*types.Order, error) {
	if price == nil || price.Sign() < 0 {
		return nil, &types.InvalidOrderError{Reason: "price must be non-negative"}
	}

	existing, err := s.index.GetOrderByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", hash.Hex(), err)
	}

	order := *existing
	order.Signature = nil
	order.Hash = common.Hash{}
	if paymentIsTake(order) {
		order.Take.Value = price
	} else {
		order.Make.Value = price
	}

	maker, err := s.wallet.From(ctx)
	if err != nil {
		return nil, err
	}
	if order.Maker != maker {
		return nil, &types.InvalidOrderError{Reason: "only the maker can update an order"}
	}

	if err := s.signer.Sign(&order); err != nil {
		return nil, err
	}
	persisted, err := s.index.UpsertOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("upsert order: %w", err)
	}

	s.record(ctx, journal.EventOrderUpdated, persisted, common.Hash{})
	OrdersTotal.WithLabelValues(string(persisted.Type), "updated").Inc()
	return persisted, nil
}

// Cancel submits the on-chain cancellation of a native-exchange order.
func (s *Service) Cancel(ctx context.Context, order types.Order) (*ethwallet.Transaction, error) {
	if err := s.checkChainID(ctx); err != nil {
		return nil, err
	}

	maker, err := s.wallet.From(ctx)
	if err != nil {
		return nil, err
	}
	if order.Maker != maker {
		return nil, &types.InvalidOrderError{Reason: "only the maker can cancel an order"}
	}

	call, err := fill.CancelCall(s.network, order)
	if err != nil {
		return nil, err
	}

	tx, err := s.send(ctx, call, ethwallet.SendOptions{})
	if err != nil {
		return nil, err
	}

	s.record(ctx, journal.EventOrderCanceled, &order, tx.Hash)
	OrdersTotal.WithLabelValues(string(order.Type), "canceled").Inc()
	s.logger.Info("order-cancel-submitted",
		zap.String("order-hash", order.Hash.Hex()),
		zap.String("tx-hash", tx.Hash.Hex()))
	return tx, nil
}

func (s *Service) publish(ctx context.Context, order types.Order, event journal.EventType) (*types.Order, error) {
	maker, err := s.wallet.From(ctx)
	if err != nil {
		return nil, err
	}
	order.Maker = maker

	salt, err := randomSalt()
	if err != nil {
		return nil, err
	}
	order.Salt = salt

	if err := s.signer.Sign(&order); err != nil {
		return nil, err
	}

	persisted, err := s.index.UpsertOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("upsert order: %w", err)
	}

	s.record(ctx, event, persisted, common.Hash{})
	OrdersTotal.WithLabelValues(string(persisted.Type), "created").Inc()
	s.logger.Info("order-published",
		zap.String("order-hash", persisted.Hash.Hex()),
		zap.String("maker", maker.Hex()))
	return persisted, nil
}

// record journals an order event. Journal failures are logged and
// swallowed: the order operation already succeeded.
func (s *Service) record(ctx context.Context, event journal.EventType, order *types.Order, txHash common.Hash) {
	if s.journal == nil {
		return
	}
	entry := journal.NewEntry(event, order.Type)
	entry.OrderHash = order.Hash
	entry.Maker = order.Maker
	entry.TxHash = txHash
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Warn("journal-record-failed",
			zap.String("event", string(event)),
			zap.Error(err))
	}
}

func (s *Service) checkChainID(ctx context.Context) error {
	if s.wallet == nil {
		return types.ErrWalletUndefined
	}
	chainID, err := s.wallet.ChainID(ctx)
	if err != nil {
		return err
	}
	if chainID != s.network.ChainID {
		return &types.WrongChainIDError{Wallet: chainID, Configured: s.network.ChainID}
	}
	return nil
}

// paymentIsTake reports which side of the order carries the payment.
func paymentIsTake(order types.Order) bool {
	switch order.Make.Type.Class {
	case types.AssetETH, types.AssetERC20:
		return false
	default:
		return true
	}
}
