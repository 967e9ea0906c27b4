package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/internal/orderwatch"
	"github.com/nftex/fill-engine/pkg/api"
	"github.com/nftex/fill-engine/pkg/healthprobe"
	"github.com/nftex/fill-engine/pkg/httpserver"
	"github.com/nftex/fill-engine/pkg/retry"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchCmd = &cobra.Command{
	Use:   "watch <order-hash> [order-hash...]",
	Short: "Stream order events for the given hashes",
	Long: `Subscribes to the order-index websocket and logs every event for the
given order hashes until interrupted.

An ops HTTP server runs alongside the subscription with /metrics,
/health, /ready and a read-only GET /api/orders/{hash} endpoint. The
readiness probe turns ready once the websocket subscription is live.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	hashes := make([]common.Hash, 0, len(args))
	for _, arg := range args {
		hash, err := parseOrderHash(arg)
		if err != nil {
			return err
		}
		hashes = append(hashes, hash)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := healthprobe.New()
	checker.SetReady("watcher", false)

	client := api.NewClient(cfg.OrderAPIURL, logger)
	server := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: checker,
		OrderGetter:   client,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	watcher := orderwatch.New(orderwatch.Config{
		URL:         cfg.OrderAPIWSURL,
		DialTimeout: 10 * time.Second,
		Reconnect: retry.Backoff{
			Attempts:   10,
			StartDelay: cfg.WatchRetryDelay,
			MaxDelay:   cfg.WatchMaxRetryWait,
		},
		Logger: logger,
	})
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Subscribe(hashes); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	checker.SetReady("watcher", true)

	logger.Info("watching-orders", zap.Int("count", len(hashes)))

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-serverErr:
			if err != nil {
				runErr = fmt.Errorf("http server: %w", err)
			}
			break loop
		case event, open := <-watcher.Events():
			if !open {
				runErr = fmt.Errorf("order watcher gave up reconnecting")
				break loop
			}
			logger.Info("order-event",
				zap.String("type", event.Type),
				zap.String("order-hash", event.OrderHash.Hex()))
		}
	}

	checker.SetReady("watcher", false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http-server-shutdown-failed", zap.Error(err))
	}

	return runErr
}
