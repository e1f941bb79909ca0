package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"rtl-layout-auditor/internal/models"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
)

// Event types pushed to websocket clients
const (
	EventStatus        = "status"
	EventPageCaptured  = "page_captured"
	EventCheckStarted  = "check_started"
	EventCheckFinished = "check_finished"
	EventAuditFinished = "audit_finished"
)

// WebSocketHub manages active WebSocket connections and streams audit
// progress to them. It satisfies interfaces.AuditObserver.
type WebSocketHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	mutex      sync.RWMutex
	logger     arbor.ILogger
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub(logger arbor.ILogger) *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
	go hub.run()
	return hub
}

// run manages client connections and broadcasts
func (h *WebSocketHub) run() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Debug().Msg("WebSocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Debug().Msg("WebSocket client disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					h.logger.Warn().Err(err).Msg("Failed to send WebSocket message")
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()

		case <-ticker.C:
			h.SendStatus("online")
		}
	}
}

// Close disconnects every client and stops the hub
func (h *WebSocketHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// SendStatus broadcasts server status to all clients
func (h *WebSocketHub) SendStatus(status string) {
	h.send(map[string]interface{}{
		"type":      EventStatus,
		"status":    status,
		"timestamp": time.Now().Unix(),
	})
}

// SendEvent broadcasts an audit event to all clients
func (h *WebSocketHub) SendEvent(eventType string, data interface{}) {
	h.send(map[string]interface{}{
		"type":      eventType,
		"data":      data,
		"timestamp": time.Now().Unix(),
	})
}

// send never blocks the audit; events are dropped when the queue is full
func (h *WebSocketHub) send(msg map[string]interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to encode WebSocket message")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn().Str("type", msg["type"].(string)).Msg("WebSocket queue full, dropping event")
	}
}

func (h *WebSocketHub) PageCaptured(page models.PageTarget, observations int) {
	h.SendEvent(EventPageCaptured, map[string]interface{}{
		"page":         page.ID,
		"url":          page.URL,
		"observations": observations,
	})
}

func (h *WebSocketHub) CheckStarted(name string) {
	h.SendEvent(EventCheckStarted, map[string]string{"name": name})
}

func (h *WebSocketHub) CheckFinished(result models.CheckResult) {
	h.SendEvent(EventCheckFinished, result)
}

func (h *WebSocketHub) AuditFinished(report *models.AggregateReport) {
	h.SendEvent(EventAuditFinished, map[string]interface{}{
		"overall_score": report.OverallScore,
		"summary":       report.Summary,
		"pages":         report.Pages,
		"failed":        report.FailedCount(),
	})
}

// Upgrader for WebSocket connections
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards may be served from another origin
	},
}

// WebSocketHandler handles WebSocket connection requests
func (h *WebSocketHub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Keep connection alive until the client goes away
	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.done:
			}
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}
