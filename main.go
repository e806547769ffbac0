package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/richd0tcom/sensoria/core/server"
	"github.com/richd0tcom/sensoria/internal/config"
	"github.com/richd0tcom/sensoria/internal/db"
)

func main() {
	cfg := config.Load()

	client, err := db.NewMongoConnection(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	srv, err := server.NewServer(
		server.WithMongo(client, cfg.MongoDB),
		server.WithPort(cfg.Port),
		server.WithEnv(cfg.Env),
		server.WithCORSOrigins(cfg.CORSOrigins),
	)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received...")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	srv.Close()
	log.Println("Server shutdown complete")
}
