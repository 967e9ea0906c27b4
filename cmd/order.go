package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/nftex/fill-engine/internal/orderwatch"
	"github.com/nftex/fill-engine/pkg/api"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/retry"
	"github.com/nftex/fill-engine/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var orderCmd = &cobra.Command{
	Use:   "order <order-hash>",
	Short: "Fetch an order from the order index",
	Long: `Fetches an order by hash from the order-index API and prints it as
JSON. With --wait the command polls until the order appears: the index
is eventually consistent, so a just-published order may take a few
seconds to become readable.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrder,
}

//nolint:gochecknoglobals // Cobra boilerplate
var orderWait bool

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(orderCmd)

	orderCmd.Flags().BoolVarP(&orderWait, "wait", "w", false, "Poll until the order appears in the index")
}

func runOrder(cmd *cobra.Command, args []string) error {
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

	ctx := cmd.Context()
	client := api.NewClient(cfg.OrderAPIURL, logger)

	order, err := fetchOrder(ctx, cfg, client, hash, orderWait)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(order, "", "  ")
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	fmt.Println(string(encoded))
	return nil
}

func fetchOrder(ctx context.Context, cfg *config.Config, client *api.Client, hash common.Hash, wait bool) (*types.Order, error) {
	if !wait {
		order, err := client.GetOrderByHash(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("fetch order: %w", err)
		}
		return order, nil
	}

	order, err := orderwatch.WaitForOrder(ctx, client, hash, retry.Backoff{
		Attempts:   20,
		StartDelay: cfg.WatchRetryDelay,
		MaxDelay:   cfg.WatchMaxRetryWait,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("wait for order: %w", err)
	}
	return order, nil
}
