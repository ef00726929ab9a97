package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"content_assistant/generator"
	"content_assistant/logger"
)

const writeWait = 10 * time.Second

// Origin is checked against Host by the default policy.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// hub fans controller snapshots out to every open page.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) add(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl] = struct{}{}
}

func (h *hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, cl)
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(snap generator.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		logger.Error("failed to encode snapshot", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		cl.offer(msg)
	}
}

// offer queues msg, replacing a queued message the writer has not picked up.
// Pages only care about the newest state.
func (cl *client) offer(msg []byte) {
	select {
	case cl.send <- msg:
		return
	default:
	}
	select {
	case <-cl.send:
	default:
	}
	select {
	case cl.send <- msg:
	default:
	}
}

// serve pumps queued snapshots to conn until the peer goes away.
func (h *hub) serve(conn *websocket.Conn, initial []byte) {
	cl := &client{conn: conn, send: make(chan []byte, 1)}
	cl.offer(initial)
	h.add(cl)
	defer func() {
		h.remove(cl)
		conn.Close()
	}()

	// Incoming frames are ignored; reading detects the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debugw("websocket write failed", "err", err)
				return
			}
		case <-done:
			return
		}
	}
}
