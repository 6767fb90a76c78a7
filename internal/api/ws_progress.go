package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"sdgtrack/internal/auth"
	"sdgtrack/internal/config"
	"sdgtrack/internal/tracker"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) Close() error {
	return s.conn.Close()
}

type wsProgressEvent struct {
	Event     string                     `json:"event"`
	Indicator *tracker.IndicatorProgress `json:"indicator,omitempty"`
	Overall   float64                    `json:"overall,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// GET /ws/goals/:id/progress
//
// Upgrades to a WebSocket and resolves every indicator bound to the goal,
// pushing one "indicator" event as each settles and a final "end" event
// carrying the goal overall. Closing the socket cancels the resolution.
func WSGoalProgressHandler(cfg *config.Config, rdb *redis.Client, svc *tracker.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing JWT"})
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")
		claims, err := auth.ParseJWT(cfg.Server.JWTSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid JWT"})
			return
		}
		if rdb != nil {
			sessionToken, err := auth.GetSession(rdb, claims.UserID)
			if err != nil || sessionToken != token {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
		}

		goalID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil || goalID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
			return
		}

		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade failed:", err)
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Any read error (including close) cancels the resolution.
		go func() {
			for {
				if _, _, err := rawConn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		overall, err := svc.StreamGoalProgress(ctx, uint(goalID), func(p tracker.IndicatorProgress) {
			row := p
			if werr := conn.WriteJSON(wsProgressEvent{Event: "indicator", Indicator: &row}); werr != nil {
				cancel()
			}
		})
		if err != nil {
			conn.WriteJSON(wsProgressEvent{Event: "error", Error: err.Error()})
			return
		}
		conn.WriteJSON(wsProgressEvent{Event: "end", Overall: overall})
	}
}
