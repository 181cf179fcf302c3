package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/velotrack/rides-backend-go/internal/api"
	"github.com/velotrack/rides-backend-go/internal/config"
	"github.com/velotrack/rides-backend-go/internal/database"
	"github.com/velotrack/rides-backend-go/internal/engine"
	"github.com/velotrack/rides-backend-go/internal/handler"
	"github.com/velotrack/rides-backend-go/internal/location"
	"github.com/velotrack/rides-backend-go/internal/logger"
	"github.com/velotrack/rides-backend-go/internal/repository"
	"github.com/velotrack/rides-backend-go/internal/service"
	"github.com/velotrack/rides-backend-go/internal/statestore"
)

func main() {
	// 加载配置
	cfg := config.Load()
	logger.Configure(logger.Config{Level: cfg.LogLevel})
	log := logger.WithComponent("main")

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	// 录制状态快照存储
	states, err := statestore.Open(cfg.StatePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state store")
	}
	defer states.Close()

	// 存储层
	db := database.GetDB()
	rides := repository.NewRideRepository(db)
	points := repository.NewTrackPointRepository(db)
	rideService := service.NewRideService(rides, points)

	// 录制引擎：单一事件循环，崩溃后自动恢复
	source := location.NewPushSource()
	recorder := engine.NewRecorder(engine.Config{
		AutoPause:    cfg.AutoPause,
		TickInterval: cfg.TickInterval,
	}, rideService, states, source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := recorder.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start recorder")
	}
	defer recorder.Close()

	// 初始化路由
	recorderHandler := handler.NewRecorderHandler(recorder, source)
	rideHandler := handler.NewRideHandler(rideService)
	router := api.SetupRouter(cfg, recorderHandler, rideHandler)

	// 启动服务器
	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
