package approve

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

// MaxUint256 is the unlimited ERC-20 allowance.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Approver issues the on-chain grants a transfer proxy needs to move a
// maker's assets during a match. Every method blocks until its
// transaction is mined; approvals are prerequisites, never fire-and-forget.
type Approver struct {
	provider ethwallet.Provider
	send     ethwallet.SendFunc
	proxies  config.TransferProxies
	logger   *zap.Logger
}

// New creates an approver bound to one network's transfer proxies.
func New(provider ethwallet.Provider, send ethwallet.SendFunc, proxies config.TransferProxies, logger *zap.Logger) *Approver {
	return &Approver{
		provider: provider,
		send:     send,
		proxies:  proxies,
		logger:   logger,
	}
}

// Approve grants the native exchange's designated proxy for the asset's
// class. Native currency needs no approval and is a no-op.
func (a *Approver) Approve(ctx context.Context, owner common.Address, asset types.Asset, infinite bool) error {
	switch asset.Type.Class {
	case types.AssetERC20:
		return a.ApproveERC20(ctx, asset.Type.Contract, owner, a.proxies.ERC20, asset.Value, infinite)
	case types.AssetERC721, types.AssetERC1155:
		return a.ApproveOperator(ctx, asset.Type.Class, asset.Type.Contract, owner, a.proxies.NFT)
	case types.AssetCryptoPunks:
		return a.OfferPunkToProxy(ctx, asset.Type.Contract, asset.Type.TokenID, owner, a.proxies.CryptoPunks)
	default:
		return nil
	}
}

// ApproveERC20 raises the owner's allowance for the operator to at least
// value. Skips the transaction when the current allowance already covers it.
func (a *Approver) ApproveERC20(ctx context.Context, token, owner, operator common.Address, value *big.Int, infinite bool) error {
	current, err := a.allowance(ctx, token, owner, operator)
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}

	if value != nil && current.Cmp(value) >= 0 {
		ApprovalsSkippedTotal.WithLabelValues(string(types.AssetERC20)).Inc()
		a.logger.Debug("erc20-already-approved",
			zap.String("token", token.Hex()),
			zap.String("operator", operator.Hex()))
		return nil
	}

	amount := value
	if infinite {
		amount = MaxUint256
	}

	call, err := ethwallet.BindCall(token, erc20ABI, "approve", operator, amount)
	if err != nil {
		return err
	}

	a.logger.Info("approving-erc20",
		zap.String("token", token.Hex()),
		zap.String("operator", operator.Hex()),
		zap.String("amount", amount.String()))

	if err := ethwallet.WaitTx(ctx, a.send, call, ethwallet.SendOptions{}); err != nil {
		return fmt.Errorf("erc20 approve: %w", err)
	}
	ApprovalsTotal.WithLabelValues(string(types.AssetERC20)).Inc()
	return nil
}

// ApproveOperator grants setApprovalForAll on an ERC-721 or ERC-1155
// collection. Skips the transaction if the operator is already approved.
func (a *Approver) ApproveOperator(ctx context.Context, class types.AssetClass, token, owner, operator common.Address) error {
	approved, err := a.isApprovedForAll(ctx, token, owner, operator)
	if err != nil {
		return fmt.Errorf("read operator approval: %w", err)
	}

	if approved {
		ApprovalsSkippedTotal.WithLabelValues(string(class)).Inc()
		a.logger.Debug("operator-already-approved",
			zap.String("token", token.Hex()),
			zap.String("operator", operator.Hex()))
		return nil
	}

	call, err := ethwallet.BindCall(token, operatorApprovalABI, "setApprovalForAll", operator, true)
	if err != nil {
		return err
	}

	a.logger.Info("approving-operator",
		zap.String("token", token.Hex()),
		zap.String("operator", operator.Hex()))

	if err := ethwallet.WaitTx(ctx, a.send, call, ethwallet.SendOptions{}); err != nil {
		return fmt.Errorf("setApprovalForAll: %w", err)
	}
	ApprovalsTotal.WithLabelValues(string(class)).Inc()
	return nil
}

// OfferPunkToProxy makes a punk movable by the transfer proxy via a
// zero-value directed sale offer. Skips when already offered to the proxy.
func (a *Approver) OfferPunkToProxy(ctx context.Context, market common.Address, punkIndex *big.Int, owner, proxy common.Address) error {
	if punkIndex == nil {
		return &types.InvalidOrderError{Reason: "punk order without token id"}
	}

	offered, err := a.punkOfferedTo(ctx, market, punkIndex, proxy)
	if err != nil {
		return fmt.Errorf("read punk offer: %w", err)
	}
	if offered {
		ApprovalsSkippedTotal.WithLabelValues(string(types.AssetCryptoPunks)).Inc()
		return nil
	}

	call, err := ethwallet.BindCall(market, punksABI, "offerPunkForSaleToAddress", punkIndex, big.NewInt(0), proxy)
	if err != nil {
		return err
	}

	a.logger.Info("offering-punk-to-proxy",
		zap.String("market", market.Hex()),
		zap.String("punk-index", punkIndex.String()),
		zap.String("proxy", proxy.Hex()))

	if err := ethwallet.WaitTx(ctx, a.send, call, ethwallet.SendOptions{}); err != nil {
		return fmt.Errorf("offerPunkForSaleToAddress: %w", err)
	}
	ApprovalsTotal.WithLabelValues(string(types.AssetCryptoPunks)).Inc()
	return nil
}

func (a *Approver) allowance(ctx context.Context, token, owner, operator common.Address) (*big.Int, error) {
	call, err := ethwallet.BindCall(token, erc20ABI, "allowance", owner, operator)
	if err != nil {
		return nil, err
	}
	result, err := a.provider.Call(ctx, call)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(result), nil
}

func (a *Approver) isApprovedForAll(ctx context.Context, token, owner, operator common.Address) (bool, error) {
	call, err := ethwallet.BindCall(token, operatorApprovalABI, "isApprovedForAll", owner, operator)
	if err != nil {
		return false, err
	}
	result, err := a.provider.Call(ctx, call)
	if err != nil {
		return false, err
	}

	var approved bool
	err = operatorApprovalABI.UnpackIntoInterface(&approved, "isApprovedForAll", result)
	if err != nil {
		return false, fmt.Errorf("unpack isApprovedForAll: %w", err)
	}
	return approved, nil
}

func (a *Approver) punkOfferedTo(ctx context.Context, market common.Address, punkIndex *big.Int, proxy common.Address) (bool, error) {
	call, err := ethwallet.BindCall(market, punksABI, "punksOfferedForSale", punkIndex)
	if err != nil {
		return false, err
	}
	result, err := a.provider.Call(ctx, call)
	if err != nil {
		return false, err
	}

	var offer struct {
		IsForSale  bool
		PunkIndex  *big.Int
		Seller     common.Address
		MinValue   *big.Int
		OnlySellTo common.Address
	}
	err = punksABI.UnpackIntoInterface(&offer, "punksOfferedForSale", result)
	if err != nil {
		return false, fmt.Errorf("unpack punksOfferedForSale: %w", err)
	}
	return offer.IsForSale && offer.OnlySellTo == proxy && offer.MinValue.Sign() == 0, nil
}
