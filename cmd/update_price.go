package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var updatePriceCmd = &cobra.Command{
	Use:   "update-price <order-hash> <price>",
	Short: "Reprice one of your orders",
	Long: `Loads the order by hash, sets a new total price on its payment side,
re-signs it and republishes it to the order index. The salt is kept, so
the index replaces the old version instead of listing both.

Only the maker's own native-exchange orders can be repriced.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpdatePrice,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(updatePriceCmd)
}

func runUpdatePrice(cmd *cobra.Command, args []string) error {
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
	price, err := parseBig(args[1], "price")
	if err != nil {
		return err
	}

	service, cleanup, err := newOrderService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	updated, err := service.UpdatePrice(cmd.Context(), hash, price)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}

	fmt.Printf("Order repriced: %s\n", updated.Hash.Hex())
	return nil
}
