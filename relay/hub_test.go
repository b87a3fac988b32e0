package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRelayServer attaches every connection to the room named by the "order"
// query parameter. A "publisher" parameter lets the member publish as that id.
func newRelayServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	log, _ := test.NewNullLogger()
	hub := NewHub(log)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		q := r.URL.Query()
		hub.Attach(conn, q.Get("order"), Member{UserID: q.Get("user"), Publisher: q.Get("publisher")})
	}))
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/?"+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func update(dp string, lat, lng float64) map[string]interface{} {
	return map[string]interface{}{"event": EventUpdateLocation, "deliveryPersonId": dp, "lat": lat, "lng": lng}
}

func TestBroadcastStaysInOrderRoom(t *testing.T) {
	hub, server := newRelayServer(t)
	courier := dial(t, server, "order=o1&user=dp1&publisher=dp1")
	customer := dial(t, server, "order=o1&user=u1")
	elsewhere := dial(t, server, "order=o2&user=u2")
	require.Eventually(t, func() bool { return hub.Count("o1") == 2 && hub.Count("o2") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, courier.WriteJSON(update("dp1", 12.5, 77.25)))

	customer.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	require.NoError(t, customer.ReadJSON(&got))
	assert.Equal(t, EventLocationUpdate, got.Event)
	assert.Equal(t, "o1", got.OrderID)
	assert.Equal(t, "dp1", got.DeliveryPersonID)
	assert.Equal(t, 12.5, *got.Lat)
	assert.Equal(t, 77.25, *got.Lng)

	elsewhere.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := elsewhere.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestRejectsUnauthorizedPublish(t *testing.T) {
	hub, server := newRelayServer(t)
	customer := dial(t, server, "order=o1&user=u1")
	courier := dial(t, server, "order=o1&user=dp1&publisher=dp1")
	require.Eventually(t, func() bool { return hub.Count("o1") == 2 }, 2*time.Second, 10*time.Millisecond)

	tests := []struct {
		name string
		conn *websocket.Conn
		msg  interface{}
	}{
		{"not a publisher", customer, update("dp1", 1, 1)},
		{"spoofed delivery person", courier, update("dp2", 1, 1)},
		{"missing coordinates", courier, map[string]interface{}{"event": EventUpdateLocation, "deliveryPersonId": "dp1"}},
		{"unknown event", courier, map[string]interface{}{"event": "chat"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.conn.WriteJSON(tt.msg))
			tt.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var got Message
			require.NoError(t, tt.conn.ReadJSON(&got))
			assert.Equal(t, EventError, got.Event)
			assert.NotEmpty(t, got.Message)
		})
	}

	// nothing leaked to the other member
	customer.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := customer.ReadMessage()
	assert.Error(t, err)
}

func TestDisconnectLeavesRoom(t *testing.T) {
	hub, server := newRelayServer(t)
	conn := dial(t, server, "order=o1&user=u1")
	require.Eventually(t, func() bool { return hub.Count("o1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count("o1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSlowClientIsDropped(t *testing.T) {
	log, hook := test.NewNullLogger()
	hub := NewHub(log)
	slow := &Client{hub: hub, room: "o1", member: Member{UserID: "u1"}, send: make(chan []byte, 1)}
	fast := &Client{hub: hub, room: "o1", member: Member{UserID: "u2"}, send: make(chan []byte, 4)}
	hub.join(slow)
	hub.join(fast)

	msg, err := json.Marshal(Message{Event: EventLocationUpdate, OrderID: "o1"})
	require.NoError(t, err)
	hub.Broadcast("o1", msg)
	hub.Broadcast("o1", msg)

	assert.Equal(t, 1, hub.Count("o1"))
	assert.Len(t, fast.send, 2)
	<-slow.send
	_, open := <-slow.send
	assert.False(t, open)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "u1", hook.LastEntry().Data["user_id"])

	// a dropped client leaving later is harmless
	hub.leave(slow)
	assert.Equal(t, 1, hub.Count("o1"))
}
