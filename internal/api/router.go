package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"sdgtrack/internal/auth"
	"sdgtrack/internal/config"
	"sdgtrack/internal/report"
	"sdgtrack/internal/tracker"
)

func SetupRouter(cfg *config.Config, rdb *redis.Client, svc *tracker.Service) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/sdgtrack" or any custom path, always starts with '/'

	gen := report.NewGenerator(svc, cfg.Report.OutputDir)

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(cfg))

		// Setup: only if no users
		group.POST("/setup", SetupHandler())

		// Auth
		group.POST("/auth/login", LoginHandler(cfg, rdb))
		group.POST("/auth/logout", auth.AuthMiddleware(cfg, rdb, false), LogoutHandler(rdb))
		group.GET("/auth/me", auth.AuthMiddleware(cfg, rdb, false), MeHandler())

		// Admin: users
		group.GET("/users", auth.AuthMiddleware(cfg, rdb, true), ListUsersHandler())
		group.POST("/users", auth.AuthMiddleware(cfg, rdb, true), CreateUserHandler())

		// Goal dashboards
		group.GET("/goals/:id/progress", auth.AuthMiddleware(cfg, rdb, false), GoalProgressHandler(svc))
		group.GET("/goals/:id/indicators/:gi/tree", auth.AuthMiddleware(cfg, rdb, false), IndicatorTreeHandler(svc))
		group.GET("/goals/:id/indicators/:gi/trend", auth.AuthMiddleware(cfg, rdb, false), IndicatorTrendHandler(svc))

		// Project dashboards
		group.GET("/projects/:id/progress", auth.AuthMiddleware(cfg, rdb, false), ProjectProgressHandler(svc))

		// PDF reports
		group.POST("/goals/:id/report", auth.AuthMiddleware(cfg, rdb, false), GoalReportHandler(gen))

		// Live progress stream
		group.GET("/ws/goals/:id/progress", WSGoalProgressHandler(cfg, rdb, svc))
	}
	return r
}
