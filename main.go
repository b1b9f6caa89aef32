package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examguard/api"
	"examguard/detection"
	"examguard/embedding"
	"examguard/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := loadServerConfig()

	provider, err := embedding.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}
	defer provider.Close()

	builder, err := detection.NewBuilder(provider, detection.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Invalid analysis configuration: %v", err)
	}

	var reports api.ReportStore
	if cfg.StoreEnabled {
		st, err := store.OpenFromEnv()
		if err != nil {
			log.Printf("Warning: report store disabled: %v", err)
		} else {
			defer st.Close()
			reports = st
		}
	}

	r := api.NewRouter(api.NewServer(builder, reports))
	srv := &http.Server{Addr: cfg.Addr, Handler: r}

	log.Printf("Starting API server on %s (model %s)", cfg.Addr, builder.ModelName())
	log.Println("API endpoints available:")
	log.Println("  GET  /api/health")
	log.Println("  POST /api/analysis/report")
	log.Println("  POST /api/analysis/compare")
	log.Println("  POST /api/analysis/segments")
	log.Println("  POST /api/analysis/statistics")
	log.Println("  GET  /api/reports")
	log.Println("  GET  /api/reports/:id")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down API server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Warning: graceful shutdown failed: %v", err)
	}
}
