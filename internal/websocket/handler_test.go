package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cryptex/internal/events"
	cryptex_errors "cryptex/pkg/errors"
)

func TestResolveRoom(t *testing.T) {
	tests := []struct {
		name     string
		tradeID  string
		vendorID string
		want     string
		wantErr  bool
	}{
		{name: "trade channel", tradeID: "42", want: "trade:42"},
		{name: "vendor channel", vendorID: "7", want: "vendor:7"},
		{name: "both keys", tradeID: "42", vendorID: "7", wantErr: true},
		{name: "neither key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, err := ResolveRoom(tt.tradeID, tt.vendorID)
			if tt.wantErr {
				assert.ErrorIs(t, err, cryptex_errors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, room)
		})
	}
}

func newTestServer(t *testing.T) (*events.Registry, events.Broker, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := events.NewRegistry()
	broker := events.NewFanoutBroker(registry, time.Second, zap.NewNop())
	h := NewHandler(broker, NewLogger(zap.NewNop()))

	engine := gin.New()
	engine.GET("/ws/trade/:trade_id/", h.TradeChannel)
	engine.GET("/ws/vendor/:vendor_id/", h.VendorChannel)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return registry, broker, srv
}

func dialRoom(t *testing.T, srv *httptest.Server, path string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *gorilla.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(frame)
}

func waitForMembers(t *testing.T, registry *events.Registry, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(registry.Members(room)) == n
	}, 2*time.Second, 10*time.Millisecond, "expected %d members in %s", n, room)
}

func TestRawTextPassthroughReachesAllRoomMembers(t *testing.T) {
	registry, _, srv := newTestServer(t)

	a := dialRoom(t, srv, "/ws/trade/42/")
	b := dialRoom(t, srv, "/ws/trade/42/")
	waitForMembers(t, registry, "trade:42", 2)

	require.NoError(t, a.WriteMessage(gorilla.TextMessage, []byte("hello")))

	assert.Equal(t, "hello", readFrame(t, a), "publisher subscribes to its own room output")
	assert.Equal(t, "hello", readFrame(t, b))
}

func TestOtherRoomsReceiveNothing(t *testing.T) {
	registry, _, srv := newTestServer(t)

	a := dialRoom(t, srv, "/ws/trade/42/")
	c := dialRoom(t, srv, "/ws/trade/43/")
	waitForMembers(t, registry, "trade:42", 1)
	waitForMembers(t, registry, "trade:43", 1)

	require.NoError(t, a.WriteMessage(gorilla.TextMessage, []byte("hello")))

	c.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := c.ReadMessage()
	assert.Error(t, err, "subscriber in another room must see nothing")
}

func TestChatMessageEchoedToRoom(t *testing.T) {
	registry, _, srv := newTestServer(t)

	a := dialRoom(t, srv, "/ws/trade/42/")
	b := dialRoom(t, srv, "/ws/trade/42/")
	waitForMembers(t, registry, "trade:42", 2)

	payload := `{"type":"chat_message","sender":"ada","content":"hi","transaction_id":"42"}`
	require.NoError(t, a.WriteMessage(gorilla.TextMessage, []byte(payload)))

	var got, want map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFrame(t, b)), &got))
	require.NoError(t, json.Unmarshal([]byte(payload), &want))
	assert.Equal(t, want, got)
}

func TestTypedNonChatPayloadReEncoded(t *testing.T) {
	registry, _, srv := newTestServer(t)

	a := dialRoom(t, srv, "/ws/trade/42/")
	b := dialRoom(t, srv, "/ws/trade/42/")
	waitForMembers(t, registry, "trade:42", 2)

	payload := `{ "type" : "trade_update" ,  "amount" : "12.5" }`
	require.NoError(t, a.WriteMessage(gorilla.TextMessage, []byte(payload)))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFrame(t, b)), &got))
	assert.Equal(t, "trade_update", got["type"])
	assert.Equal(t, "12.5", got["amount"])
}

func TestInternalCancelEventReachesSubscribers(t *testing.T) {
	registry, broker, srv := newTestServer(t)

	b := dialRoom(t, srv, "/ws/trade/42/")
	waitForMembers(t, registry, "trade:42", 1)

	broker.Publish(context.Background(), "trade:42", events.TradeCancelled{
		CancelledBy: "system",
		TradeID:     "42",
		Message:     events.CancelledMessage("42"),
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFrame(t, b)), &got))
	assert.Equal(t, "transaction_cancelled", got["type"])
	assert.Equal(t, "system", got["cancelled_by"])
	assert.Equal(t, "42", got["trade_id"])
}

func TestVendorChannelReceivesTradeStarted(t *testing.T) {
	registry, broker, srv := newTestServer(t)

	v := dialRoom(t, srv, "/ws/vendor/7/")
	waitForMembers(t, registry, "vendor:7", 1)

	broker.Publish(context.Background(), "vendor:7", events.TradeCreated{
		Trade: json.RawMessage(`{"id":"42"}`),
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFrame(t, v)), &got))
	assert.Equal(t, "trade_started", got["type"])
}

func TestDisconnectLeavesRoom(t *testing.T) {
	registry, _, srv := newTestServer(t)

	a := dialRoom(t, srv, "/ws/trade/42/")
	b := dialRoom(t, srv, "/ws/trade/42/")
	waitForMembers(t, registry, "trade:42", 2)

	a.Close()
	waitForMembers(t, registry, "trade:42", 1)

	_ = b
}

func TestHandshakeWithoutRoomIsRejected(t *testing.T) {
	_, _, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/nowhere/"
	_, _, err := gorilla.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
}
