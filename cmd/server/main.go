package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"skillswap-backend/internal/api"
	"skillswap-backend/internal/api/handlers"
	"skillswap-backend/internal/barter"
	"skillswap-backend/internal/chat"
	"skillswap-backend/internal/config"
	"skillswap-backend/internal/match"
	"skillswap-backend/internal/notify"
	"skillswap-backend/internal/reviews"
	"skillswap-backend/internal/storage"
	"skillswap-backend/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Initialize storage
	store, err := storage.NewStorage(ctx, cfg.Database, cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	if err := store.DB.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Best-effort notification pipeline
	enqueuer, err := notify.NewEnqueuer(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to initialize notification enqueuer: %v", err)
	}
	defer enqueuer.Close()

	processor, err := notify.NewProcessor(cfg.Redis.URL, cfg.Notify.Concurrency, store.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize notification processor: %v", err)
	}
	if err := processor.Start(); err != nil {
		log.Fatalf("Failed to start notification processor: %v", err)
	}
	defer processor.Stop()

	// Services
	barterService := barter.NewService(store.DB, store.DB, enqueuer)
	chatService := chat.NewService(store.DB, store.DB, store.Redis, enqueuer)
	matchService := match.NewService(store.DB)
	reviewService := reviews.NewService(store.DB, store.DB)

	wsManager := ws.NewManager(store.Redis, cfg.Notify.PresenceTTL)

	deps := &api.Dependencies{
		UserHandler:      handlers.NewUserHandler(store.DB, matchService),
		BarterHandler:    handlers.NewBarterHandler(barterService),
		ChatHandler:      handlers.NewChatHandler(chatService),
		ReviewHandler:    handlers.NewReviewHandler(reviewService),
		CommunityHandler: handlers.NewCommunityHandler(store.DB),
		AdminHandler:     handlers.NewAdminHandler(store.DB),
		WSManager:        wsManager,
	}

	r := api.NewRouter(deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Notify.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
