// Package main runs the DOMjudge provisioning HTTP server with graceful
// shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bircpc/domjudge-automation/config"
	"github.com/bircpc/domjudge-automation/internal/domjudge"
	"github.com/bircpc/domjudge-automation/internal/middleware"
	"github.com/bircpc/domjudge-automation/internal/observability"
	"github.com/bircpc/domjudge-automation/internal/provisioning"
	"github.com/bircpc/domjudge-automation/pkg/response"
)

const serviceName = "domjudge-automation-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	if cfg.DOMjudge.Password == "" {
		logger.Warn("DOMJUDGE_PASSWORD is not set")
	}

	dir := domjudge.NewClient(cfg.DOMjudge, cfg.Contest.Country, logger)
	metrics := observability.New(prometheus.DefaultRegisterer)
	svc := provisioning.NewService(dir, cfg.Contest.GroupID, metrics, logger)
	handler := provisioning.NewHandler(svc, dir, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Secure())
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{
			"status":    "ok",
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/teams", handler.CreateTeam)
		api.POST("/teams/bulk", handler.CreateTeamsBulk)
		api.GET("/teams", handler.ListTeams)
		api.GET("/organizations", handler.ListOrganizations)
		api.GET("/users", handler.ListUsers)
	}

	router.NoRoute(func(c *gin.Context) { response.NotFound(c, "not found") })

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("domjudge_api", cfg.DOMjudge.APIBase),
			zap.String("contest_id", cfg.DOMjudge.ContestID),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := cfg.Build()
	return logger
}
