package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHubHelloPrecedesBroadcast tests that a client connecting during a
// stream of broadcasts always receives its hello message first.
func TestHubHelloPrecedesBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, func() Message {
			return Message{Type: MessageTypeURL, URL: "/hello"}
		})
	}))

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-stop:
				return
			default:
				hub.Broadcast(Message{Type: MessageTypeURL, URL: "/broadcast"})
			}
		}
	}()
	t.Cleanup(func() {
		close(stop)
		<-stopped
		hub.Close()
		ts.Close()
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "/hello", msg.URL, "connection %d", i)
		conn.Close()
	}
}

func TestHubRefusesAfterClose(t *testing.T) {
	hub := NewHub(nil, nil)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, nil)
	}))
	t.Cleanup(ts.Close)

	hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Equal(t, 0, hub.ClientCount())
}
