// Package api exposes the screen storage engine over HTTP and
// WebSocket: a binary snapshot feed (pkg/termsocket's pub/sub) and a
// raw PTY passthrough for interactive input, both behind gorilla/mux
// routes and gorilla/websocket connections.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// safeSend writes msg to send without blocking forever once done has
// been closed.
func safeSend(send chan []byte, msg []byte, done chan struct{}) bool {
	select {
	case send <- msg:
		return true
	case <-done:
		return false
	}
}
