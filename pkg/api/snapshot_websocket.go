package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/vibetunnel/screenengine/pkg/terminal"
	"github.com/vibetunnel/screenengine/pkg/termsocket"
)

// SnapshotWebSocketHandler streams binary BufferSnapshot frames
// (pkg/terminal.SerializeToBinary) for one session, debounced and
// deduplicated by pkg/termsocket.Manager.
type SnapshotWebSocketHandler struct {
	manager *termsocket.Manager
}

func NewSnapshotWebSocketHandler(manager *termsocket.Manager) *SnapshotWebSocketHandler {
	return &SnapshotWebSocketHandler{manager: manager}
}

func (h *SnapshotWebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SnapshotWebSocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	send := make(chan []byte, 32)
	done := make(chan struct{})
	var closeOnce func()
	closeOnce = func() {
		select {
		case <-done:
		default:
			close(done)
		}
	}

	if snapshot, err := h.manager.GetBufferSnapshot(sessionID); err == nil {
		safeSend(send, snapshot.SerializeToBinary(), done)
	}

	unsubscribe, err := h.manager.SubscribeToBufferChanges(sessionID, func(_ string, snapshot *terminal.BufferSnapshot) {
		safeSend(send, snapshot.SerializeToBinary(), done)
	})
	if err != nil {
		log.Printf("[SnapshotWebSocket] subscribe failed: %v", err)
		return
	}
	defer unsubscribe()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	go h.writer(conn, send, ticker, done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeOnce()
			return
		}
	}
}

func (h *SnapshotWebSocketHandler) writer(conn *websocket.Conn, send chan []byte, ticker *time.Ticker, done chan struct{}) {
	defer close(send)
	for {
		select {
		case message, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
