package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"pnodewatch/config"
	"pnodewatch/handlers"
	"pnodewatch/metrics"
	"pnodewatch/middleware"
	"pnodewatch/services"
	"pnodewatch/utils"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	store := services.NewStore(cfg, logger)
	defer store.Stop()

	history := services.NewHistoryTracker(store, logger)

	geo, err := utils.NewGeoResolver(cfg.GeoIP.DBPath)
	if err != nil {
		logger.WithError(err).Warn("Geo resolver unavailable")
	}
	defer geo.Close()

	mongo, err := services.NewMongoDBService(cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("MongoDB unavailable, node registry disabled")
		mongo = &services.MongoDBService{}
	}
	defer mongo.Close()

	discord, err := services.NewDiscordService(cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("Discord unavailable, alert delivery disabled")
		discord = &services.DiscordService{}
	}
	defer discord.Close()

	alerts := services.NewAlertService(cfg, discord, logger)
	fetcher := services.NewPRPCClient(cfg, logger)

	poller := services.NewPoller(cfg, fetcher, history, geo, mongo, alerts, logger)
	poller.Start()
	defer poller.Stop()

	h := handlers.NewHandler(poller, history, store, mongo, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	e.GET("/health", h.GetHealth)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")
	api.GET("/status", h.GetStatus)
	api.GET("/nodes", h.GetNodes)
	api.GET("/nodes/recent", h.GetRecentNodes)
	api.GET("/nodes/:id", h.GetNode)
	api.POST("/nodes/refresh", h.RefreshNodes)
	api.GET("/stats", h.GetNetworkStats)
	api.GET("/history", h.GetNetworkHistory)
	api.DELETE("/history", h.ClearHistory)
	api.GET("/rewards/rate", h.GetRewardRate)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()
	logger.WithField("address", addr).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
}
