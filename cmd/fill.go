package cmd

import (
	"context"
	"fmt"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/fill"
	"github.com/nftex/fill-engine/internal/journal"
	"github.com/nftex/fill-engine/pkg/api"
)

//nolint:gochecknoglobals // Cobra boilerplate
var fillCmd = &cobra.Command{
	Use:   "fill <order-hash>",
	Short: "Fill an order from the order index",
	Long: `Fetches the order by hash from the order-index API, runs the owning
protocol's approvals and submits the match transaction.

The order's protocol is dispatched automatically: legacy exchange,
current exchange, OpenSea atomic match or the CryptoPunks market.
Failed fills are never retried automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	fillAmount     string
	fillInfinite   bool
	fillPayouts    []string
	fillOriginFees []string
	fillNoWait     bool
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(fillCmd)

	fillCmd.Flags().StringVarP(&fillAmount, "amount", "a", "", "Partial fill amount in NFT units (default: the whole order)")
	fillCmd.Flags().BoolVar(&fillInfinite, "infinite-approve", false, "Grant unlimited ERC-20 allowance instead of the exact amount")
	fillCmd.Flags().StringArrayVar(&fillPayouts, "payout", nil, "Taker payout as address:bps, repeatable (V2 orders only)")
	fillCmd.Flags().StringArrayVar(&fillOriginFees, "origin-fee", nil, "Taker origin fee as address:bps, repeatable (V2 orders only)")
	fillCmd.Flags().BoolVar(&fillNoWait, "no-wait", false, "Return after broadcast without waiting for the receipt")
}

func runFill(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	hash, err := parseOrderHash(args[0])
	if err != nil {
		return err
	}

	req := fill.Request{Infinite: fillInfinite || cfg.InfiniteApprove}
	if fillAmount != "" {
		if req.Amount, err = parseBig(fillAmount, "amount"); err != nil {
			return err
		}
	}
	if req.Payouts, err = parseParts(fillPayouts); err != nil {
		return err
	}
	if req.OriginFees, err = parseParts(fillOriginFees); err != nil {
		return err
	}

	wallet, err := newWallet(cfg, logger)
	if err != nil {
		return err
	}
	defer wallet.Close()

	jrnl, err := newJournal(cfg, logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		_ = jrnl.Close()
	}()

	ctx := cmd.Context()
	client := api.NewClient(cfg.OrderAPIURL, logger)

	order, err := client.GetOrderByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("fetch order: %w", err)
	}
	req.Order = *order

	filler := fill.New(wallet, wallet.Send, cfg.Network(), client, logger)

	tx, err := filler.Fill(ctx, req)
	if err != nil {
		return fmt.Errorf("fill order: %w", err)
	}

	entry := journal.NewEntry(journal.EventFillSubmitted, order.Type)
	entry.OrderHash = order.Hash
	entry.Maker = order.Maker
	entry.TxHash = tx.Hash
	if err := jrnl.Record(ctx, entry); err != nil {
		logger.Warn("journal-record-failed", zap.Error(err))
	}

	fmt.Printf("Fill transaction broadcast: %s\n", tx.Hash.Hex())
	if fillNoWait {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	receipt, err := tx.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("wait for receipt: %w", err)
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("fill transaction %s reverted", tx.Hash.Hex())
	}

	fmt.Printf("Fill mined in block %d\n", receipt.BlockNumber.Uint64())
	return nil
}
