package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresJournal implements Journal using PostgreSQL.
type PostgresJournal struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresJournal opens and pings the journal database.
func NewPostgresJournal(cfg *PostgresConfig) (*PostgresJournal, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-journal-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresJournal{db: db, logger: cfg.Logger}, nil
}

// newPostgresJournalWithDB wires an existing handle; tests use this with
// a mocked driver.
func newPostgresJournalWithDB(db *sql.DB, logger *zap.Logger) *PostgresJournal {
	return &PostgresJournal{db: db, logger: logger}
}

// Record inserts one journal entry.
func (p *PostgresJournal) Record(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO order_journal (
			id, event, protocol, order_hash, maker, tx_hash, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := p.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Event),
		string(entry.Protocol),
		entry.OrderHash.Hex(),
		entry.Maker.Hex(),
		entry.TxHash.Hex(),
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	p.logger.Debug("journal-entry-stored",
		zap.String("id", entry.ID),
		zap.String("event", string(entry.Event)),
		zap.String("order-hash", entry.OrderHash.Hex()))
	return nil
}

// Close closes the database connection.
func (p *PostgresJournal) Close() error {
	p.logger.Info("closing-postgres-journal")
	return p.db.Close()
}
