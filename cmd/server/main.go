package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/vendata/vendata/internal/config"
	"github.com/vendata/vendata/internal/db"
	"github.com/vendata/vendata/internal/ingestion"
	"github.com/vendata/vendata/internal/logging"
	"github.com/vendata/vendata/internal/mapping"
	"github.com/vendata/vendata/internal/middleware"
	"github.com/vendata/vendata/internal/pipeline"
	"github.com/vendata/vendata/internal/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := logging.New(os.Getenv("VENDATA_ENV") != "production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, cfg.Pipeline.MigrationsPath); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	vendorRepo := repository.NewVendorRepository(conn.Pool)
	recordRepo := repository.NewRecordRepository(conn.Pool)
	errorRepo := repository.NewErrorLogRepository(conn.Pool)

	service := ingestion.NewService(mapping.NewCache(), logger)
	processor := pipeline.NewProcessor(service, nil, logger)
	processor.QualityThreshold = cfg.Pipeline.QualityThreshold
	processor.Stores = pipeline.Stores{
		Records: recordRepo,
		Vendors: vendorRepo,
		Errors:  errorRepo,
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})
	logged := middleware.LoggingMiddleware(logger)

	mux := http.NewServeMux()
	mux.Handle("/api/ingest", pipeline.NewHTTPHandler(processor))
	mux.Handle("/api/diagnose", pipeline.NewDiagnoseHandler(processor))
	mux.HandleFunc("/api/vendors", func(w http.ResponseWriter, r *http.Request) {
		profiles, err := vendorRepo.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, profiles)
	})
	mux.HandleFunc("/api/records", func(w http.ResponseWriter, r *http.Request) {
		vendorID := r.URL.Query().Get("vendor")
		if vendorID == "" {
			http.Error(w, "vendor is required", http.StatusBadRequest)
			return
		}
		records, total, err := recordRepo.List(r.Context(), vendorID, 0, 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"total": total, "records": records})
	})
	mux.HandleFunc("/api/errors", func(w http.ResponseWriter, r *http.Request) {
		vendorID := r.URL.Query().Get("vendor")
		if vendorID == "" {
			http.Error(w, "vendor is required", http.StatusBadRequest)
			return
		}
		entries, err := errorRepo.List(r.Context(), vendorID, 0, 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, entries)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      corsHandler.Handler(logged(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
