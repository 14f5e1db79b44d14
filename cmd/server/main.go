package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kaminfo102/form-insert-student/internal/platform/config"
	"github.com/kaminfo102/form-insert-student/internal/platform/httpserver"
	"github.com/kaminfo102/form-insert-student/internal/platform/logger"
	"github.com/kaminfo102/form-insert-student/internal/platform/metrics"
	"github.com/kaminfo102/form-insert-student/internal/platform/middleware"
	"github.com/kaminfo102/form-insert-student/internal/registration/filestore"
	"github.com/kaminfo102/form-insert-student/internal/registration/handler"
	"github.com/kaminfo102/form-insert-student/internal/registration/service"
	"github.com/kaminfo102/form-insert-student/internal/registration/store"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the registration packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()
	if err := db.PingContext(startupCtx); err != nil {
		log.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}
	if err := store.RunMigrations(startupCtx, db); err != nil {
		log.Error("apply migrations", "error", err.Error())
		os.Exit(1)
	}

	m := metrics.New()
	registrations := store.NewPostgres(db)
	files := filestore.New(cfg.UploadDir, cfg.PublicPrefix)
	svc := service.New(registrations, files, log, m)
	h := handler.New(svc, log, cfg.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))
	h.Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// Stored uploads are addressable by the same root-relative paths the
	// records reference.
	r.Handle(cfg.PublicPrefix+"/*", http.StripPrefix(cfg.PublicPrefix+"/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	srv := httpserver.New(cfg.Addr, r)

	log.Info("starting registration server", "addr", cfg.Addr, "upload_dir", cfg.UploadDir)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
