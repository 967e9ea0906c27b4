package orderwatch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/pkg/retry"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type subscribePayload struct {
	Type        string   `json:"type"`
	OrderHashes []string `json:"orderHashes"`
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testWatcherConfig(url string) Config {
	return Config{
		URL:             url,
		DialTimeout:     time.Second,
		PingInterval:    time.Minute,
		EventBufferSize: 16,
		Reconnect: retry.Backoff{
			Attempts:   3,
			StartDelay: 10 * time.Millisecond,
			MaxDelay:   50 * time.Millisecond,
		},
		Logger: zap.NewNop(),
	}
}

func TestWatcherDeliversEvents(t *testing.T) {
	hash := common.HexToHash("0xabc1")
	received := make(chan subscribePayload, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var payload subscribePayload
		require.NoError(t, conn.ReadJSON(&payload))
		received <- payload

		event, err := json.Marshal(Event{Type: "UPDATE", OrderHash: hash})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, event))

		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer server.Close()

	watcher := New(testWatcherConfig(wsURL(server)))
	require.NoError(t, watcher.Start())
	defer watcher.Close()

	require.NoError(t, watcher.Subscribe([]common.Hash{hash}))

	select {
	case payload := <-received:
		assert.Equal(t, "SUBSCRIBE", payload.Type)
		assert.Equal(t, []string{hash.Hex()}, payload.OrderHashes)
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the subscribe message")
	}

	select {
	case event := <-watcher.Events():
		assert.Equal(t, "UPDATE", event.Type)
		assert.Equal(t, hash, event.OrderHash)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatcherSubscribeDeduplicates(t *testing.T) {
	messages := make(chan subscribePayload, 4)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			var payload subscribePayload
			if err := conn.ReadJSON(&payload); err != nil {
				return
			}
			messages <- payload
		}
	}))
	defer server.Close()

	watcher := New(testWatcherConfig(wsURL(server)))
	require.NoError(t, watcher.Start())
	defer watcher.Close()

	hash := common.HexToHash("0xabc1")
	require.NoError(t, watcher.Subscribe([]common.Hash{hash}))
	require.NoError(t, watcher.Subscribe([]common.Hash{hash}))

	select {
	case <-messages:
	case <-time.After(5 * time.Second):
		t.Fatal("first subscribe never arrived")
	}
	select {
	case payload := <-messages:
		t.Fatalf("duplicate subscribe was sent: %+v", payload)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherResubscribesAfterReconnect(t *testing.T) {
	hash := common.HexToHash("0xabc1")
	connections := make(chan subscribePayload, 2)
	var count atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		if count.Add(1) == 1 {
			// Wait for the subscribe, then drop the connection.
			var payload subscribePayload
			require.NoError(t, conn.ReadJSON(&payload))
			connections <- payload
			conn.Close()
			return
		}

		defer conn.Close()
		var payload subscribePayload
		require.NoError(t, conn.ReadJSON(&payload))
		connections <- payload
		conn.ReadMessage()
	}))
	defer server.Close()

	watcher := New(testWatcherConfig(wsURL(server)))
	require.NoError(t, watcher.Start())
	defer watcher.Close()

	require.NoError(t, watcher.Subscribe([]common.Hash{hash}))

	select {
	case <-connections:
	case <-time.After(5 * time.Second):
		t.Fatal("initial subscribe never arrived")
	}

	select {
	case payload := <-connections:
		assert.Equal(t, "SUBSCRIBE", payload.Type)
		assert.Equal(t, []string{hash.Hex()}, payload.OrderHashes)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not resubscribe after reconnect")
	}
}

func TestWatcherSubscribeBeforeStart(t *testing.T) {
	watcher := New(testWatcherConfig("ws://127.0.0.1:0"))

	err := watcher.Subscribe([]common.Hash{common.HexToHash("0xabc1")})
	require.ErrorIs(t, err, errWatcherNotConnected)

	err = watcher.Unsubscribe([]common.Hash{common.HexToHash("0xabc1")})
	require.ErrorIs(t, err, errWatcherNotConnected)
}

func TestWatcherClosesAfterReconnectBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn.Close()
	}))

	watcher := New(testWatcherConfig(wsURL(server)))
	require.NoError(t, watcher.Start())

	// Every redial now fails until the budget runs out.
	server.Close()

	select {
	case _, open := <-watcher.Events():
		assert.False(t, open, "event channel should be closed, not carrying events")
	case <-time.After(10 * time.Second):
		t.Fatal("watcher never gave up")
	}
}
