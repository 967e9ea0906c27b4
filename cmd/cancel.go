package cmd

import (
	"context"
	"fmt"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/nftex/fill-engine/pkg/api"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cancelCmd = &cobra.Command{
	Use:   "cancel <order-hash>",
	Short: "Cancel one of your orders on chain",
	Long: `Fetches the order by hash and submits the owning exchange's cancel
transaction. Only native-exchange orders made by the configured wallet
can be canceled; OpenSea and CryptoPunks orders are managed by their
own venues.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

//nolint:gochecknoglobals // Cobra boilerplate
var cancelNoWait bool

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cancelCmd)

	cancelCmd.Flags().BoolVar(&cancelNoWait, "no-wait", false, "Return after broadcast without waiting for the receipt")
}

func runCancel(cmd *cobra.Command, args []string) error {
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

	service, cleanup, err := newOrderService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	client := api.NewClient(cfg.OrderAPIURL, logger)

	order, err := client.GetOrderByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("fetch order: %w", err)
	}

	tx, err := service.Cancel(ctx, *order)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	fmt.Printf("Cancel transaction broadcast: %s\n", tx.Hash.Hex())
	if cancelNoWait {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	receipt, err := tx.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("wait for receipt: %w", err)
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("cancel transaction %s reverted", tx.Hash.Hex())
	}

	fmt.Printf("Cancel mined in block %d\n", receipt.BlockNumber.Uint64())
	return nil
}
