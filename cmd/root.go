package cmd

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/journal"
	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/ethwallet"
	"github.com/nftex/fill-engine/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "fill-engine",
	Short: "NFT order fill engine",
	Long: `Order fill engine for four incompatible NFT marketplace protocols:
the legacy exchange (V1), the current exchange (V2), OpenSea/Wyvern
atomic matches and the CryptoPunks market contract.

Orders come from the shared order-index API. The engine inverts the
maker's order into the taker's side, runs the protocol's token
approvals, and submits the match transaction on chain. It can also
create, reprice and cancel native-exchange orders.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// bootstrap loads .env, the environment config and the logger. Every
// subcommand starts here.
func bootstrap() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

func newWallet(cfg *config.Config, logger *zap.Logger) (*ethwallet.Client, error) {
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("WALLET_PRIVATE_KEY not set")
	}
	return ethwallet.NewClient(cfg.RPCURL, cfg.PrivateKey, logger)
}

func newJournal(cfg *config.Config, logger *zap.Logger) (journal.Journal, error) {
	if cfg.JournalMode == "postgres" {
		return journal.NewPostgresJournal(&journal.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return journal.NewConsoleJournal(logger), nil
}

// parseOrderHash validates a 0x-prefixed 32-byte hash argument.
func parseOrderHash(raw string) (common.Hash, error) {
	if len(raw) != 2+common.HashLength*2 || !strings.HasPrefix(raw, "0x") {
		return common.Hash{}, fmt.Errorf("order hash must be a 0x-prefixed 32-byte hex string, got %q", raw)
	}
	return common.HexToHash(raw), nil
}

// parseParts parses repeated address:bps flags into payout/fee parts.
func parseParts(raw []string) ([]types.Part, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	parts := make([]types.Part, 0, len(raw))
	for _, entry := range raw {
		fields := strings.Split(entry, ":")
		if len(fields) != 2 || !common.IsHexAddress(fields[0]) {
			return nil, fmt.Errorf("expected address:bps, got %q", entry)
		}
		bps, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || bps < 0 || bps > 10000 {
			return nil, fmt.Errorf("bps must be an integer in [0, 10000], got %q", fields[1])
		}
		parts = append(parts, types.Part{
			Account: common.HexToAddress(fields[0]),
			Value:   bps,
		})
	}
	return parts, nil
}

// parseBig parses a non-negative decimal integer flag.
func parseBig(raw, name string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("%s must be a non-negative decimal integer, got %q", name, raw)
	}
	return value, nil
}
