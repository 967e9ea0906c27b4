package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/pkg/types"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry(EventFillSubmitted, types.OrderExchangeV2)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, EventFillSubmitted, entry.Event)
	assert.Equal(t, types.OrderExchangeV2, entry.Protocol)
	assert.False(t, entry.CreatedAt.IsZero())

	// IDs must be unique per entry.
	other := NewEntry(EventFillSubmitted, types.OrderExchangeV2)
	assert.NotEqual(t, entry.ID, other.ID)
}

func TestPostgresJournalRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	journal := newPostgresJournalWithDB(db, zap.NewNop())

	entry := NewEntry(EventOrderCreated, types.OrderExchangeV2)
	entry.OrderHash = common.HexToHash("0xabc1")
	entry.Maker = common.HexToAddress("0x0000000000000000000000000000000000000a11")

	mock.ExpectExec("INSERT INTO order_journal").
		WithArgs(
			entry.ID,
			"order_created",
			"EXCHANGE_V2",
			entry.OrderHash.Hex(),
			entry.Maker.Hex(),
			entry.TxHash.Hex(),
			entry.Details,
			entry.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, journal.Record(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJournalRecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	journal := newPostgresJournalWithDB(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO order_journal").
		WillReturnError(errors.New("connection reset"))

	err = journal.Record(context.Background(), NewEntry(EventOrderCanceled, types.OrderExchangeV1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert journal entry")
}

func TestConsoleJournal(t *testing.T) {
	journal := NewConsoleJournal(zap.NewNop())

	entry := NewEntry(EventFillSubmitted, types.OrderCryptoPunk)
	require.NoError(t, journal.Record(context.Background(), entry))
	require.NoError(t, journal.Close())
}
