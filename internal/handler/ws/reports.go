package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"TrendPull/internal/domain/models"
	applogger "TrendPull/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Hub pushes every broadcast report to connected websocket subscribers.
// A subscriber may narrow the feed with ?stock_id=A,B. Slow subscribers drop frames.
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	log          *applogger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	stocks map[string]struct{}
}

func NewHub(pingInterval time.Duration, l *applogger.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		log:          l,
		clients:      make(map[*client]struct{}),
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/reports", h.serve)
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes r once and queues it for every interested subscriber.
func (h *Hub) Broadcast(r *models.StockReport) {
	if r == nil {
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		h.log.Error("ws encode report", applogger.String("stock_id", r.StockID), applogger.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(r.StockID) {
			continue
		}
		select {
		case c.send <- b:
		default:
			// drop on backpressure
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", applogger.Error(err))
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer), stocks: parseStocks(c.QueryParam("stock_id"))}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("ws subscriber joined", applogger.Int("subscribers", h.Len()))

	go h.write(cl)
	h.read(cl)
	return nil
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
}

// read discards inbound frames until the peer goes away.
func (h *Hub) read(cl *client) {
	defer func() {
		h.remove(cl)
		_ = cl.conn.Close()
	}()
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(cl *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) wants(stockID string) bool {
	if len(c.stocks) == 0 {
		return true
	}
	_, ok := c.stocks[strings.ToUpper(stockID)]
	return ok
}

func parseStocks(q string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, s := range strings.Split(q, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}
