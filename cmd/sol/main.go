package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fawazpw/Project-Sol/internal/infrastructure/config"
	"github.com/Fawazpw/Project-Sol/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the environment
	flag.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "Control API address")
	flag.StringVar(&cfg.Storage.DataDir, "data", cfg.Storage.DataDir, "Data directory")
	flag.StringVar(&cfg.Surface.Driver, "surface", cfg.Surface.Driver, "Surface driver (headless or rod)")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development logging")
	flag.Parse()
	if cfg.Surface.Driver != "headless" && cfg.Surface.Driver != "rod" {
		log.Fatalf("Unknown surface driver %q", cfg.Surface.Driver)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := srv.Start(ctx); err != nil {
		shutdown(srv)
		log.Fatalf("Failed to start: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
	case <-srv.Quit():
	case err := <-errChan:
		if err != nil {
			shutdown(srv)
			log.Fatalf("Server error: %v", err)
		}
	}
	shutdown(srv)
}

func shutdown(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Close(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
