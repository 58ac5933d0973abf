package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"jobagent-backend/internal/bootstrap"
	"jobagent-backend/internal/dispatch"
	"jobagent-backend/internal/shared/config"
	"jobagent-backend/internal/shared/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	go func() {
		log.Printf("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	// In-process runs keep going after the listener closes; give them the
	// rest of the shutdown window.
	if local, ok := app.Runner.(*dispatch.LocalRunner); ok {
		done := make(chan struct{})
		go func() {
			local.WaitIdle()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			log.Printf("shutdown timeout reached; exiting with in-flight runs")
		}
	}

	if app.DB != nil {
		_ = app.DB.Close()
	}
}
