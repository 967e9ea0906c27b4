package journal

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/nftex/fill-engine/pkg/types"
)

// EventType names what happened to an order.
type EventType string

const (
	EventOrderCreated  EventType = "order_created"
	EventOrderUpdated  EventType = "order_updated"
	EventOrderCanceled EventType = "order_canceled"
	EventFillSubmitted EventType = "fill_submitted"
)

// Entry is one journal record. The journal is an audit trail, not a
// source of truth: losing a record never fails the operation it records.
type Entry struct {
	ID        string
	Event     EventType
	Protocol  types.OrderType
	OrderHash common.Hash
	Maker     common.Address
	TxHash    common.Hash
	Details   string
	CreatedAt time.Time
}

// NewEntry builds an entry with a fresh id and timestamp.
func NewEntry(event EventType, protocol types.OrderType) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Event:     event,
		Protocol:  protocol,
		CreatedAt: time.Now().UTC(),
	}
}

// Journal persists order lifecycle events.
type Journal interface {
	// Record stores one entry.
	Record(ctx context.Context, entry Entry) error

	// Close closes the journal.
	Close() error
}
