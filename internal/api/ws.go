package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"communitybot/internal/service"
	"communitybot/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const feedInterval = 15 * time.Second

// feedConn serializes writes to one client. The underlying connection
// allows a single writer at a time, and the initial snapshot from the
// handler can overlap a broadcast tick.
type feedConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *feedConn) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

type feedRoutes struct {
	lb *service.LeaderboardService

	mu    sync.RWMutex
	conns map[*feedConn]struct{}
}

// NewFeedRoutes exposes a live leaderboard feed. Each connected client
// gets the current standings immediately and then a refresh on every
// tick. No auth: the feed carries only what the public leaderboard shows.
func NewFeedRoutes(handler *gin.RouterGroup, lb *service.LeaderboardService) *feedRoutes {
	r := &feedRoutes{
		lb:    lb,
		conns: make(map[*feedConn]struct{}),
	}

	handler.GET("/ws/leaderboard", r.handleWebSocket)

	go r.broadcastLoop()

	return r
}

type feedMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (r *feedRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &feedConn{ws: ws}

	r.mu.Lock()
	r.conns[conn] = struct{}{}
	r.mu.Unlock()

	if err := r.sendSnapshot(conn); err != nil {
		r.drop(conn)
		return
	}

	go r.readLoop(conn)
}

func (r *feedRoutes) readLoop(conn *feedConn) {
	defer r.drop(conn)

	for {
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Logger().Info("websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func (r *feedRoutes) drop(conn *feedConn) {
	conn.ws.Close()
	r.mu.Lock()
	delete(r.conns, conn)
	r.mu.Unlock()
}

func (r *feedRoutes) broadcastLoop() {
	ticker := time.NewTicker(feedInterval)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.RLock()
		conns := make([]*feedConn, 0, len(r.conns))
		for conn := range r.conns {
			conns = append(conns, conn)
		}
		r.mu.RUnlock()

		if len(conns) == 0 {
			continue
		}

		for _, conn := range conns {
			if err := r.sendSnapshot(conn); err != nil {
				r.drop(conn)
			}
		}
	}
}

func (r *feedRoutes) sendSnapshot(conn *feedConn) error {
	lb, err := r.lb.Get(context.Background(), 0, time.Now().UTC())
	if err != nil {
		logger.Logger().Error("failed to build leaderboard snapshot", zap.Error(err))
		return nil
	}

	payload, err := json.Marshal(feedMessage{Type: "leaderboard", Data: lb})
	if err != nil {
		return err
	}
	return conn.write(payload)
}
