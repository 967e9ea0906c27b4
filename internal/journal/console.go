package journal

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleJournal implements Journal by logging entries. It is the
// fallback when no database is configured.
type ConsoleJournal struct {
	logger *zap.Logger
}

// NewConsoleJournal creates a console journal.
func NewConsoleJournal(logger *zap.Logger) *ConsoleJournal {
	logger.Info("console-journal-initialized")
	return &ConsoleJournal{logger: logger}
}

// Record logs one journal entry.
func (c *ConsoleJournal) Record(_ context.Context, entry Entry) error {
	c.logger.Info("journal-entry",
		zap.String("id", entry.ID),
		zap.String("event", string(entry.Event)),
		zap.String("protocol", string(entry.Protocol)),
		zap.String("order-hash", entry.OrderHash.Hex()),
		zap.String("maker", entry.Maker.Hex()),
		zap.String("tx-hash", entry.TxHash.Hex()),
		zap.Time("created-at", entry.CreatedAt))
	return nil
}

// Close is a no-op for the console journal.
func (c *ConsoleJournal) Close() error {
	return nil
}
