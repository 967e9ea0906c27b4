package orderwatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/pkg/retry"
	"github.com/nftex/fill-engine/pkg/types"
)

// errWatcherNotConnected is returned by Subscribe and Unsubscribe when
// the watcher has never connected; Start must succeed first.
var errWatcherNotConnected = errors.New("order watcher is not connected")

// Event is one message from the order-index event stream.
type Event struct {
	Type      string       `json:"type"`
	OrderHash common.Hash  `json:"orderHash"`
	Order     *types.Order `json:"order,omitempty"`
}

// Config holds the watcher configuration.
type Config struct {
	URL             string
	DialTimeout     time.Duration
	PingInterval    time.Duration
	EventBufferSize int
	Reconnect       retry.Backoff
	Logger          *zap.Logger
}

// Watcher maintains a websocket subscription to the order index and
// delivers order events for the hashes it was asked to follow. The
// reconnect budget is bounded: when it is exhausted the watcher shuts
// down and the event channel is closed.
type Watcher struct {
	url    string
	config Config
	logger *zap.Logger

	conn       *websocket.Conn
	mu         sync.RWMutex
	subscribed map[common.Hash]bool

	events    chan *Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	connected atomic.Bool
	closeOnce sync.Once
}

// New creates a watcher. Start must be called before events flow.
func New(cfg Config) *Watcher {
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = 256
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		url:        cfg.URL,
		config:     cfg,
		logger:     cfg.Logger,
		subscribed: make(map[common.Hash]bool),
		events:     make(chan *Event, cfg.EventBufferSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start dials the order index and starts the read, ping and reconnect
// loops.
func (w *Watcher) Start() error {
	w.logger.Info("order-watcher-starting", zap.String("url", w.url))

	if err := w.connect(w.ctx); err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	w.wg.Add(3)
	go w.readLoop()
	go w.pingLoop()
	go w.reconnectLoop()

	return nil
}

func (w *Watcher) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: w.config.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	w.connected.Store(true)
	ActiveConnections.Set(1)
	w.logger.Info("order-watcher-connected")

	return nil
}

// Subscribe starts delivering events for the given order hashes.
func (w *Watcher) Subscribe(hashes []common.Hash) error {
	if len(hashes) == 0 {
		return nil
	}

	w.mu.Lock()
	conn := w.conn
	if conn == nil {
		w.mu.Unlock()
		return errWatcherNotConnected
	}
	fresh := make([]common.Hash, 0, len(hashes))
	for _, hash := range hashes {
		if !w.subscribed[hash] {
			fresh = append(fresh, hash)
			w.subscribed[hash] = true
		}
	}
	if len(fresh) == 0 {
		w.mu.Unlock()
		return nil
	}
	total := len(w.subscribed)
	w.mu.Unlock()

	if err := conn.WriteJSON(subscribeMessage("SUBSCRIBE", fresh)); err != nil {
		w.mu.Lock()
		for _, hash := range fresh {
			delete(w.subscribed, hash)
		}
		w.mu.Unlock()
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscribedOrders.Set(float64(total))
	w.logger.Info("subscribed-to-orders",
		zap.Int("new-count", len(fresh)),
		zap.Int("total-count", total))
	return nil
}

// Unsubscribe stops delivering events for the given order hashes.
func (w *Watcher) Unsubscribe(hashes []common.Hash) error {
	if len(hashes) == 0 {
		return nil
	}

	w.mu.Lock()
	conn := w.conn
	if conn == nil {
		w.mu.Unlock()
		return errWatcherNotConnected
	}
	dropped := make([]common.Hash, 0, len(hashes))
	for _, hash := range hashes {
		if w.subscribed[hash] {
			dropped = append(dropped, hash)
			delete(w.subscribed, hash)
		}
	}
	if len(dropped) == 0 {
		w.mu.Unlock()
		return nil
	}
	total := len(w.subscribed)
	w.mu.Unlock()

	if err := conn.WriteJSON(subscribeMessage("UNSUBSCRIBE", dropped)); err != nil {
		w.mu.Lock()
		for _, hash := range dropped {
			w.subscribed[hash] = true
		}
		w.mu.Unlock()
		return fmt.Errorf("write unsubscribe message: %w", err)
	}

	SubscribedOrders.Set(float64(total))
	return nil
}

func subscribeMessage(op string, hashes []common.Hash) map[string]interface{} {
	ids := make([]string, len(hashes))
	for i, hash := range hashes {
		ids[i] = hash.Hex()
	}
	return map[string]interface{}{
		"type":        op,
		"orderHashes": ids,
	}
}

// Events returns the channel the watcher delivers order events on. It is
// closed when the watcher shuts down.
func (w *Watcher) Events() <-chan *Event {
	return w.events
}

func (w *Watcher) readLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if w.ctx.Err() == nil {
				w.logger.Warn("read-error", zap.Error(err))
			}
			w.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			preview := len(message)
			if preview > 100 {
				preview = 100
			}
			w.logger.Debug("unparseable-event",
				zap.Error(err),
				zap.String("preview", string(message[:preview])))
			continue
		}
		if event.Type == "" {
			// Heartbeats and acks carry no type.
			continue
		}

		EventsReceivedTotal.WithLabelValues(event.Type).Inc()

		select {
		case w.events <- &event:
		default:
			w.logger.Warn("event-channel-full", zap.String("type", event.Type))
			EventsDroppedTotal.Inc()
		}
	}
}

func (w *Watcher) pingLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if !w.connected.Load() {
				continue
			}

			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()
			if conn == nil {
				continue
			}

			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				w.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop redials with the configured bounded backoff whenever the
// connection drops. When the budget runs out the watcher closes itself:
// callers observe that as the event channel closing.
func (w *Watcher) reconnectLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		if w.connected.Load() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		w.logger.Warn("connection-lost-reconnecting")
		ReconnectsTotal.Inc()

		err := retry.Do(w.ctx, w.config.Reconnect, w.connect)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.logger.Error("reconnect-budget-exhausted", zap.Error(err))
			go w.Close()
			return
		}

		if err := w.resubscribeAll(); err != nil {
			w.logger.Error("resubscribe-failed", zap.Error(err))
			w.connected.Store(false)
			continue
		}

		w.wg.Add(1)
		go w.readLoop()
	}
}

func (w *Watcher) resubscribeAll() error {
	w.mu.RLock()
	hashes := make([]common.Hash, 0, len(w.subscribed))
	for hash := range w.subscribed {
		hashes = append(hashes, hash)
	}
	conn := w.conn
	w.mu.RUnlock()

	if len(hashes) == 0 {
		return nil
	}

	if err := conn.WriteJSON(subscribeMessage("SUBSCRIBE", hashes)); err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	w.logger.Info("resubscribed-to-orders", zap.Int("count", len(hashes)))
	return nil
}

// Close shuts the watcher down and closes the event channel.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.logger.Info("order-watcher-closing")
		w.cancel()

		w.mu.RLock()
		if w.conn != nil {
			w.conn.Close()
		}
		w.mu.RUnlock()

		w.wg.Wait()
		close(w.events)
		ActiveConnections.Set(0)
	})
	return nil
}
