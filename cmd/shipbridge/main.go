package main

import (
	"fmt"
	"os"

	"github.com/shipbridge/shipbridge/internal/auth"
	"github.com/shipbridge/shipbridge/internal/config"
	"github.com/shipbridge/shipbridge/internal/db"
	"github.com/shipbridge/shipbridge/internal/events"
	"github.com/shipbridge/shipbridge/internal/excel"
	httphandler "github.com/shipbridge/shipbridge/internal/http"
	"github.com/shipbridge/shipbridge/internal/http/middleware"
	"github.com/shipbridge/shipbridge/internal/logger"
	"github.com/shipbridge/shipbridge/internal/pdf"
	"github.com/shipbridge/shipbridge/internal/repository"
	"github.com/shipbridge/shipbridge/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	publisher, err := events.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect event broker")
	}
	defer publisher.Close()

	shipmentRepo := repository.NewShipmentRepository(database)
	bidRepo := repository.NewBidRepository(database)
	userRepo := repository.NewUserRepository(database)

	tokenManager := auth.NewManager(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)

	shipmentService := service.NewShipmentService(
		shipmentRepo, bidRepo, userRepo, publisher,
		excel.NewGenerator(), pdf.NewGenerator(),
	)
	bidService := service.NewBidService(bidRepo, shipmentRepo, publisher)
	authService := service.NewAuthService(userRepo, tokenManager, cfg.Auth.RefreshTTL)

	handler := httphandler.NewHandler(
		shipmentService, bidService, authService,
		log, cfg.Uploads.Dir, cfg.Uploads.MaxFileSizeMB,
	)
	authMiddleware := middleware.Auth(tokenManager)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting shipbridge service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
