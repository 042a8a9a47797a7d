package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/middleware"
	"github.com/pasteldream/pastel-backend/internal/realtime"
	"github.com/pasteldream/pastel-backend/internal/session"
	"github.com/pasteldream/pastel-backend/internal/watcher"
	ws "github.com/pasteldream/pastel-backend/internal/websocket"
)

type RealtimeController struct {
	auth          service.AuthService
	admins        session.AdminChecker
	notifications watcher.UnreadChecker
	feed          realtime.Feed
	hub           *ws.Hub
	refreshMargin time.Duration
	upgrader      websocket.Upgrader
}

func NewRealtimeController(
	auth service.AuthService,
	admins session.AdminChecker,
	notifications watcher.UnreadChecker,
	feed realtime.Feed,
	hub *ws.Hub,
	refreshMargin time.Duration,
	allowedOrigins []string,
) *RealtimeController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &RealtimeController{
		auth:          auth,
		admins:        admins,
		notifications: notifications,
		feed:          feed,
		hub:           hub,
		refreshMargin: refreshMargin,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// WebSocketHandler opens a per-connection session and notification stream.
// The token query parameter is optional; without it the socket starts
// anonymous and can sign in later with a resume message.
// GET /ws?token=
func (ctrl *RealtimeController) WebSocketHandler(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	provider := session.New(ctrl.auth, ctrl.admins, ctrl.feed, session.WithRefreshMargin(ctrl.refreshMargin))
	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, provider, watcher.New(ctrl.feed, ctrl.notifications))
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	if err := provider.Load(c.Request.Context(), c.Query("token")); err != nil {
		log.Warn("WebSocket token rejected", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": client.UserID(),
	})
}

// Online reports how many sockets are open and whether a user has one.
// GET /api/v1/admin/realtime?user_id=
func (ctrl *RealtimeController) Online(c *gin.Context) {
	resp := gin.H{"clients": ctrl.hub.ClientCount()}
	if userID := c.Query("user_id"); userID != "" {
		resp["user_online"] = ctrl.hub.IsUserOnline(userID)
	}
	c.JSON(http.StatusOK, resp)
}
