package api

import "Watchtower/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	AuthHandler   *handler.AuthHandler
	OrgHandler    *handler.OrgHandler
	PostHandler   *handler.PostHandler
	GrowthHandler *handler.GrowthHandler
	SyncHandler   *handler.SyncHandler
	WsHandler     *handler.WsHandler
}
