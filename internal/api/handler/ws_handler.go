package handler

import (
	"Watchtower/internal/pkg/cron"
	"Watchtower/internal/pkg/response"
	"Watchtower/internal/pkg/security"
	"Watchtower/internal/service"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsHandler 同步状态推送：每隔几秒把调度器/配额状态推给监控面板
type WsHandler struct {
	cronMgr *cron.Manager
}

func NewWsHandler(cronMgr *cron.Manager) *WsHandler {
	return &WsHandler{cronMgr: cronMgr}
}

func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权：ws 没法带 Authorization 头，token 走查询参数
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	if _, err := security.ValidateToken(token); err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	// 连上先推一次，之后按节拍推
	if err := conn.WriteJSON(s.cronMgr.Status()); err != nil {
		return
	}
	for range ticker.C {
		if err := conn.WriteJSON(s.cronMgr.Status()); err != nil {
			return
		}
	}
}
