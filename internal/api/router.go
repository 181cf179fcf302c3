package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/velotrack/rides-backend-go/internal/config"
	"github.com/velotrack/rides-backend-go/internal/handler"
	"github.com/velotrack/rides-backend-go/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, recorderHandler *handler.RecorderHandler, rideHandler *handler.RideHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Rides Backend API is running",
		})
	})

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		// 录制引擎接口
		recorder := api.Group("/recorder")
		{
			recorder.POST("/start", recorderHandler.Start)
			recorder.POST("/pause", recorderHandler.Pause)
			recorder.POST("/resume", recorderHandler.Resume)
			recorder.POST("/stop", recorderHandler.Stop)
			recorder.POST("/save", recorderHandler.Save)
			recorder.POST("/discard", recorderHandler.Discard)
			recorder.GET("/state", recorderHandler.State)

			// 引擎只读配置
			recorder.GET("/config", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"autoPause":           cfg.AutoPause,
					"gpsUpdateIntervalMs": cfg.GPSUpdateInterval.Milliseconds(),
				})
			})

			// GPS 轨迹点上传（限流）
			recorder.POST("/fixes", middleware.RateLimit(10, time.Second), recorderHandler.IngestFixes)
		}

		// 骑行记录接口
		rides := api.Group("/rides")
		{
			rides.GET("", rideHandler.GetRides)
			rides.GET("/:id", rideHandler.GetRideByID)
			rides.GET("/:id/track", rideHandler.GetTrack)
			rides.GET("/:id/bounds", rideHandler.GetBounds)
			rides.DELETE("/:id", rideHandler.DeleteRide)
		}
	}

	return r
}
