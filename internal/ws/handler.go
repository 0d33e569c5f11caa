package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/coordinator"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS layer
	},
}

const writeWait = 10 * time.Second

// Handler streams coordinator events to WebSocket observers. Each
// connection gets its own subscription; detaching one observer never
// affects another.
type Handler struct {
	coord   *coordinator.Coordinator
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(coord *coordinator.Coordinator, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	return &Handler{coord: coord, metrics: metrics, log: log.Named("ws")}
}

// client serializes writes to one connection; events and read replies
// come from different goroutines.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cl *client) send(payload interface{}) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteJSON(payload)
}

// HandleConnection upgrades the request and pumps events until the
// client disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.WSConnections.Inc()
	defer h.metrics.WSConnections.Dec()

	cl := &client{conn: conn}
	events, cancel := h.coord.Subscribe()
	defer cancel()

	// Current state first, so the observer does not wait for the next
	// transition to learn where things stand.
	cl.send(gin.H{"type": "status", "payload": h.coord.Status()})

	done := make(chan struct{})
	go h.readLoop(cl, done)

	for {
		select {
		case <-done:
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := cl.send(evt); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client messages: ping keep-alives and on-demand
// status requests.
func (h *Handler) readLoop(cl *client, done chan<- struct{}) {
	defer close(done)
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := cl.conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "ping":
			cl.send(gin.H{"type": "pong"})
		case "status":
			cl.send(gin.H{"type": "status", "payload": h.coord.Status()})
		}
	}
}
