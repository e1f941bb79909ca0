package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rtl-layout-auditor/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func readEvent(t *testing.T, conn *websocket.Conn, eventType string) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		// heartbeats may interleave with audit events
		if msg["type"] == eventType {
			return msg
		}
	}
}

func TestWebSocketHub_StreamsAuditEvents(t *testing.T) {
	hub := NewWebSocketHub(arbor.NewLogger())
	defer hub.Close()

	server := httptest.NewServer(http.HandlerFunc(hub.WebSocketHandler))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.CheckStarted("Text direction")
	msg := readEvent(t, conn, EventCheckStarted)
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "Text direction", data["name"])

	hub.CheckFinished(models.NewCheckResult("Text direction", 5, []string{"home: document direction is ltr"}, nil))
	msg = readEvent(t, conn, EventCheckFinished)
	data = msg["data"].(map[string]interface{})
	assert.Equal(t, 5.0, data["score"])
	assert.Equal(t, false, data["passed"])

	hub.AuditFinished(&models.AggregateReport{OverallScore: 7.5, Summary: "Good RTL support, 1 minor issue(s)", Pages: []string{"home"}})
	msg = readEvent(t, conn, EventAuditFinished)
	data = msg["data"].(map[string]interface{})
	assert.Equal(t, 7.5, data["overall_score"])
}

func TestWebSocketHub_SendWithoutClients(t *testing.T) {
	hub := NewWebSocketHub(arbor.NewLogger())
	defer hub.Close()

	// Must not block even when nobody listens
	for i := 0; i < 1000; i++ {
		hub.PageCaptured(models.PageTarget{ID: "home"}, 3)
	}
	assert.Zero(t, hub.ClientCount())
}
