// Package debugserver streams raw (uncompressed) save-state snapshots to
// connected debugger clients over a websocket, grounded on the teacher's
// pkg/display/web hub/client register-unregister-broadcast pattern
// (hub.go, client.go), reworked from a frame-streaming player hub into a
// snapshot-streaming debug hub.
package debugserver

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/haldorsen/gbz80core/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1 << 20,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshotter describes a source of the snapshots handed to Publish; the
// Hub itself does not call it. internal/gameboy's GameBoy satisfies this
// via its Stater Save.
type Snapshotter interface {
	Snapshot() []byte
}

// Hub owns the set of connected debugger clients and the broadcast loop.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	log log.Logger
}

func NewHub(l log.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 8),
		log:        l,
	}
}

// Run processes register/unregister/broadcast events until stop is
// closed. Call it in its own goroutine.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// Publish queues a new state snapshot for every connected client without
// blocking: up to 8 snapshots wait in the broadcast queue, and a snapshot
// published while the queue is full is dropped.
func (h *Hub) Publish(snapshot []byte) {
	select {
	case h.broadcast <- snapshot:
	default:
	}
}

// ServeHTTP upgrades the connection and spawns the client's read/write
// pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("debugserver: upgrade failed: %v", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, 4)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}
