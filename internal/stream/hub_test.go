package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", n, hub.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForSubscribers(t, hub, 1)

	sent := service.ExecutionEvent{
		Owner:         "user-1",
		Strategy:      model.StrategyMomentum,
		Side:          model.SideLong,
		ConfidenceBps: 9000,
		Notional:      1000,
		Price:         42,
		GrossValue:    "42000",
		PnlAfter:      1000,
		At:            time.Now().UTC(),
	}
	hub.Publish(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got service.ExecutionEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, sent.Owner, got.Owner)
	assert.Equal(t, sent.PnlAfter, got.PnlAfter)
	assert.Equal(t, sent.GrossValue, got.GrossValue)
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dialHub(t, srv)
	b := dialHub(t, srv)
	waitForSubscribers(t, hub, 2)

	hub.Publish(service.ExecutionEvent{Owner: "user-1", PnlAfter: 7})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got service.ExecutionEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, int64(7), got.PnlAfter)
	}
}

func TestHubDropsDisconnectedSubscriber(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForSubscribers(t, hub, 1)

	conn.Close()
	waitForSubscribers(t, hub, 0)

	// Publishing with no subscribers is a no-op.
	hub.Publish(service.ExecutionEvent{Owner: "user-1"})
}
