package cmd

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/nftex/fill-engine/internal/order"
	"github.com/nftex/fill-engine/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var bidCmd = &cobra.Command{
	Use:   "bid",
	Short: "Create and publish a bid",
	Long: `Creates a signed bid on the current exchange and publishes it to the
order-index API.

A bid offers an ERC-20 amount for an NFT, so --currency is required:
the current exchange cannot escrow native currency on the maker side.
Price is per unit; the total offer is price * amount.`,
	RunE: runBid,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	bidContract   string
	bidTokenID    string
	bidAmount     string
	bidPrice      string
	bidCurrency   string
	bidPayouts    []string
	bidOriginFees []string
	bidLifetime   time.Duration
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(bidCmd)

	bidCmd.Flags().StringVarP(&bidContract, "contract", "c", "", "NFT collection contract address (required)")
	bidCmd.Flags().StringVarP(&bidTokenID, "token-id", "t", "", "Token id, decimal (required)")
	bidCmd.Flags().StringVarP(&bidAmount, "amount", "a", "1", "Number of editions to bid for")
	bidCmd.Flags().StringVarP(&bidPrice, "price", "p", "", "Price per unit in wei of the payment token (required)")
	bidCmd.Flags().StringVar(&bidCurrency, "currency", "", "ERC-20 payment token address (required)")
	bidCmd.Flags().StringArrayVar(&bidPayouts, "payout", nil, "Payout as address:bps, repeatable")
	bidCmd.Flags().StringArrayVar(&bidOriginFees, "origin-fee", nil, "Origin fee as address:bps, repeatable")
	bidCmd.Flags().DurationVar(&bidLifetime, "lifetime", 0, "How long the bid stays valid; 0 means no expiry")

	_ = bidCmd.MarkFlagRequired("contract")
	_ = bidCmd.MarkFlagRequired("token-id")
	_ = bidCmd.MarkFlagRequired("price")
	_ = bidCmd.MarkFlagRequired("currency")
}

func runBid(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if !common.IsHexAddress(bidContract) {
		return fmt.Errorf("--contract must be a hex address, got %q", bidContract)
	}
	if !common.IsHexAddress(bidCurrency) {
		return fmt.Errorf("--currency must be a hex address, got %q", bidCurrency)
	}

	req := order.BidRequest{
		MakeAssetType: types.AssetType{
			Class:    types.AssetERC20,
			Contract: common.HexToAddress(bidCurrency),
		},
		TakeAssetType: types.AssetType{Contract: common.HexToAddress(bidContract)},
	}
	if req.TakeAssetType.TokenID, err = parseBig(bidTokenID, "token-id"); err != nil {
		return err
	}
	if req.Amount, err = parseBig(bidAmount, "amount"); err != nil {
		return err
	}
	if req.Price, err = parseBig(bidPrice, "price"); err != nil {
		return err
	}
	if req.Payouts, err = parseParts(bidPayouts); err != nil {
		return err
	}
	if req.OriginFees, err = parseParts(bidOriginFees); err != nil {
		return err
	}
	if bidLifetime > 0 {
		req.End = time.Now().Add(bidLifetime).Unix()
	}

	service, cleanup, err := newOrderService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	published, err := service.Bid(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("publish bid: %w", err)
	}

	fmt.Printf("Bid published: %s\n", published.Hash.Hex())
	return nil
}
