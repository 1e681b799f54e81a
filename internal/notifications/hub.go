package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DevS-25/Paperless/internal/auth"
)

// Hub fans notification events out to connected clients. A user may hold
// several connections (multiple tabs); events go to all of them.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]map[*connection]bool
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

type connection struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan Event
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]map[*connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Auth happens on the bearer token, not the origin.
				return true
			},
		},
		logger: logger,
	}
}

// RegisterRoutes mounts the websocket endpoint. The connection belongs to
// the authenticated user; there are no shared channels.
func (h *Hub) RegisterRoutes(r *gin.Engine, m *auth.Middleware) {
	r.GET("/ws/notifications", m.Authenticate(), h.serve)
}

func (h *Hub) serve(c *gin.Context) {
	user := auth.CurrentUser(c)
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := &connection{
		userID: user.ID,
		conn:   ws,
		send:   make(chan Event, 64),
	}
	h.register(conn)
	go h.writePump(conn)
	go h.readPump(conn)
}

// Send delivers the event to every connection the user has. Without a
// connection the event is dropped; pending work is recoverable from the
// dashboards, the socket is a convenience.
func (h *Hub) Send(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.connections[event.UserID] {
		select {
		case conn.send <- event:
		default:
			h.logger.Warn("notification dropped, slow consumer",
				zap.String("user_id", event.UserID.String()))
		}
	}
}

func (h *Hub) register(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connections[conn.userID] == nil {
		h.connections[conn.userID] = make(map[*connection]bool)
	}
	h.connections[conn.userID][conn] = true
}

func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set := h.connections[conn.userID]; set[conn] {
		delete(set, conn)
		close(conn.send)
		if len(set) == 0 {
			delete(h.connections, conn.userID)
		}
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// readPump drains the connection so close frames and pongs are processed.
// Clients never send application messages.
func (h *Hub) readPump(conn *connection) {
	defer func() {
		h.unregister(conn)
		conn.conn.Close()
	}()
	conn.conn.SetReadLimit(512)
	conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.conn.Close()
	}()
	for {
		select {
		case event, ok := <-conn.send:
			conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
