package api

import (
	"Watchtower/internal/api/middleware"
	"Watchtower/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/login", group.AuthHandler.Login)

			loggedIn := authGroup.Group("")
			loggedIn.Use(middleware.AuthMiddleware())
			{
				loggedIn.POST("/logout", group.AuthHandler.Logout)
			}
		}

		orgGroup := apiGroup.Group("/org")
		{
			// 只读接口无需登录
			orgGroup.GET("", group.OrgHandler.List)
			orgGroup.GET("/:org_id", group.OrgHandler.Get)
			orgGroup.GET("/:org_id/posts", group.PostHandler.ListByOrg)
			orgGroup.GET("/:org_id/growth/window", group.GrowthHandler.Window)
			orgGroup.GET("/:org_id/growth/calendar", group.GrowthHandler.Calendar)
			orgGroup.GET("/:org_id/growth/periods", group.GrowthHandler.Periods)
			orgGroup.GET("/:org_id/snapshots", group.GrowthHandler.Snapshots)

			adminGroup := orgGroup.Group("")
			adminGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles("admin"))
			{
				adminGroup.POST("", group.OrgHandler.Create)
				adminGroup.PUT("/:org_id", group.OrgHandler.Update)
				adminGroup.DELETE("/:org_id", group.OrgHandler.Delete)
			}
		}

		apiGroup.GET("/posts/search", group.PostHandler.Search)
		apiGroup.GET("/growth/top", group.GrowthHandler.TopK)

		syncGroup := apiGroup.Group("/sync")
		{
			syncGroup.GET("/status", group.SyncHandler.Status)
			syncGroup.GET("/ws", group.WsHandler.Connect)

			adminGroup := syncGroup.Group("")
			adminGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles("admin"))
			{
				adminGroup.POST("/trigger", group.SyncHandler.Trigger)
				adminGroup.POST("/scheduler/start", group.SyncHandler.Start)
				adminGroup.POST("/scheduler/stop", group.SyncHandler.Stop)
				adminGroup.GET("/runs", group.SyncHandler.Runs)
			}
		}
	}

	return r
}
