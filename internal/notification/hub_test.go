package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gigmarket/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversToEverySessionOfUser(t *testing.T) {
	hub := NewHub(nil)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, 7)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer first.Close()
	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer second.Close()

	require.Eventually(t, func() bool { return hub.Online(7) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), &domain.Notification{ID: 1, UserID: 7, Title: "hello"}))
	assert.Equal(t, 0, hub.Deliver(8, Event{Type: EventNotification}))

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got struct {
			Type    string              `json:"type"`
			Payload domain.Notification `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, EventNotification, got.Type)
		assert.Equal(t, "hello", got.Payload.Title)
	}

	_ = first.Close()
	require.Eventually(t, func() bool { return hub.Online(7) == 1 }, 2*time.Second, 10*time.Millisecond)
}
