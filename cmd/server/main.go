package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/ledgerline/auditlog/configs"
	"github.com/ledgerline/auditlog/internal/application/services"
	"github.com/ledgerline/auditlog/internal/core/ports"
	"github.com/ledgerline/auditlog/internal/infrastructure/db"
	"github.com/ledgerline/auditlog/internal/infrastructure/email"
	"github.com/ledgerline/auditlog/internal/infrastructure/health"
	"github.com/ledgerline/auditlog/internal/infrastructure/httpserver"
	"github.com/ledgerline/auditlog/internal/infrastructure/redis"
	"github.com/ledgerline/auditlog/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting auditlog service...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Initialize Redis client
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	logger.Info("Connected to Redis successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Initialize repositories
	logRepo := repositories.NewLogRepository(database, logger)
	exportStore := repositories.NewExportRedisRepository(redisClient, logger)

	// Critical-entry alerting is optional; leave it off unless configured.
	var alertSender ports.AlertSender
	if cfg.Alert.SendGridAPIKey != "" && cfg.Alert.AlertEmail != "" {
		alertConfig := &email.AlertConfig{
			SendGridAPIKey: cfg.Alert.SendGridAPIKey,
			FromEmail:      cfg.Alert.FromEmail,
			FromName:       cfg.Alert.FromName,
			AlertEmail:     cfg.Alert.AlertEmail,
		}
		alertSender, err = email.NewAlertService(alertConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize alert service:", err)
		}
		logger.Info("Critical-entry alerting enabled")
	}

	// Wire services
	logService := services.NewLogService(logRepo, alertSender, &services.LogServiceConfig{
		MaxPageSize:     cfg.Audit.MaxPageSize,
		DefaultPageSize: cfg.Audit.DefaultPageSize,
		MaxDataBytes:    cfg.Audit.MaxDataBytes,
	}, logger)

	exportService := services.NewExportService(logRepo, exportStore, &services.ExportServiceConfig{
		MaxExportRecords: cfg.Audit.MaxExportRecords,
		MaxPageSize:      cfg.Audit.MaxPageSize,
		DefaultPageSize:  cfg.Audit.DefaultPageSize,
		ExportTTL:        cfg.Audit.ExportTTL,
	}, logger)

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewRedisHealthChecker(redisClient)}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	deps := httpserver.ServerDeps{
		LogService:     logService,
		ExportService:  exportService,
		HealthCheckers: hcSlice,
	}

	server := httpserver.NewServer(serverConfig, cfg.JWT.Secret, cfg.Audit.InternalTokenHash, logger, deps)

	// Start server in a goroutine so shutdown signals can be handled
	go func() {
		if err := server.Start(); err != nil {
			logger.Info("Server stopped:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
