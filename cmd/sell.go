package cmd

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/order"
	"github.com/nftex/fill-engine/pkg/api"
	"github.com/nftex/fill-engine/pkg/cache"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var sellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Create and publish a sell order",
	Long: `Creates a signed sell order on the current exchange and publishes it
to the order-index API.

The NFT's token standard is resolved from the collection registry, so
only --contract and --token-id are needed to describe the asset. Price
is per unit; the order's total asking price is price * amount.`,
	RunE: runSell,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	sellContract   string
	sellTokenID    string
	sellAmount     string
	sellPrice      string
	sellCurrency   string
	sellPayouts    []string
	sellOriginFees []string
	sellLifetime   time.Duration
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(sellCmd)

	sellCmd.Flags().StringVarP(&sellContract, "contract", "c", "", "NFT collection contract address (required)")
	sellCmd.Flags().StringVarP(&sellTokenID, "token-id", "t", "", "Token id, decimal (required)")
	sellCmd.Flags().StringVarP(&sellAmount, "amount", "a", "1", "Number of editions to sell")
	sellCmd.Flags().StringVarP(&sellPrice, "price", "p", "", "Price per unit in wei of the payment asset (required)")
	sellCmd.Flags().StringVar(&sellCurrency, "currency", "", "ERC-20 payment token address; empty means native currency")
	sellCmd.Flags().StringArrayVar(&sellPayouts, "payout", nil, "Payout as address:bps, repeatable")
	sellCmd.Flags().StringArrayVar(&sellOriginFees, "origin-fee", nil, "Origin fee as address:bps, repeatable")
	sellCmd.Flags().DurationVar(&sellLifetime, "lifetime", 0, "How long the order stays valid; 0 means no expiry")

	_ = sellCmd.MarkFlagRequired("contract")
	_ = sellCmd.MarkFlagRequired("token-id")
	_ = sellCmd.MarkFlagRequired("price")
}

// newOrderService wires the front-door service for the sell, bid, update
// and cancel commands.
func newOrderService(cfg *config.Config, logger *zap.Logger) (*order.Service, func(), error) {
	wallet, err := newWallet(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	jrnl, err := newJournal(cfg, logger)
	if err != nil {
		wallet.Close()
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	collectionCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		wallet.Close()
		_ = jrnl.Close()
		return nil, nil, fmt.Errorf("create cache: %w", err)
	}

	client := api.NewClient(cfg.OrderAPIURL, logger)
	registry := api.NewCachedRegistry(
		api.NewRegistryClient(cfg.OrderAPIURL, logger),
		collectionCache,
		10*time.Minute,
	)

	service := order.New(wallet, wallet.Send, cfg.Network(), client, registry, jrnl, logger)
	cleanup := func() {
		wallet.Close()
		_ = jrnl.Close()
	}
	return service, cleanup, nil
}

func runSell(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if !common.IsHexAddress(sellContract) {
		return fmt.Errorf("--contract must be a hex address, got %q", sellContract)
	}

	req := order.SellRequest{
		MakeAssetType: types.AssetType{Contract: common.HexToAddress(sellContract)},
		TakeAssetType: types.AssetType{Class: types.AssetETH},
	}
	if req.MakeAssetType.TokenID, err = parseBig(sellTokenID, "token-id"); err != nil {
		return err
	}
	if req.Amount, err = parseBig(sellAmount, "amount"); err != nil {
		return err
	}
	if req.Price, err = parseBig(sellPrice, "price"); err != nil {
		return err
	}
	if sellCurrency != "" {
		if !common.IsHexAddress(sellCurrency) {
			return fmt.Errorf("--currency must be a hex address, got %q", sellCurrency)
		}
		req.TakeAssetType = types.AssetType{
			Class:    types.AssetERC20,
			Contract: common.HexToAddress(sellCurrency),
		}
	}
	if req.Payouts, err = parseParts(sellPayouts); err != nil {
		return err
	}
	if req.OriginFees, err = parseParts(sellOriginFees); err != nil {
		return err
	}
	if sellLifetime > 0 {
		req.End = time.Now().Add(sellLifetime).Unix()
	}

	service, cleanup, err := newOrderService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	published, err := service.Sell(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("publish sell order: %w", err)
	}

	fmt.Printf("Sell order published: %s\n", published.Hash.Hex())
	return nil
}
