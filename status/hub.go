package status

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait = 200 * time.Millisecond
	// sendBuffer is how many lines a slow client may fall behind before
	// newer lines are dropped for it.
	sendBuffer = 8
)

type message struct {
	T    int64  `json:"t"`
	Line string `json:"line"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts status lines to websocket clients. New clients receive the
// latest line on connect. Each client has its own writer goroutine, so
// Report never blocks on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
	last    []byte
	server  *http.Server
	log     zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: map[*client]bool{},
		log:     logger.With().Str("component", "status-hub").Logger(),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("upgrade")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()

	go h.writeLoop(c)
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) writeLoop(c *client) {
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug().Err(err).Msg("write status")
			c.conn.Close()
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// Report implements Sink.
func (h *Hub) Report(line string) {
	b, _ := json.Marshal(message{T: time.Now().UnixNano(), Line: line})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = b
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.log.Debug().Msg("client behind; status line dropped")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Listen serves the hub at /status on addr in the background.
func (h *Hub) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/status", h)

	h.mu.Lock()
	h.server = &http.Server{Handler: mux}
	srv := h.server
	h.mu.Unlock()

	h.log.Info().Str("addr", ln.Addr().String()).Msg("status hub listening")
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error().Err(err).Msg("status hub stopped")
		}
	}()
	return nil
}

// Close stops the listener and disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	srv := h.server
	h.server = nil
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		c.conn.Close()
	}
	h.mu.Unlock()

	if srv != nil {
		return srv.Close()
	}
	return nil
}
