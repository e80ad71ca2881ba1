package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-docview/internal/bootstrap"
	"ai-docview/internal/config"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/server"
	"ai-docview/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	sysLogger := logger.NewZapLogger(cfg.MockAPI.LogFilePath, cfg.IsProduction(), cfg.App.Verbose)

	// 2. Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing, "docview-mockapi", sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewMockContainer(cfg, clock.Real(), sysLogger)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go container.ProcessingService.Run(ctx)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("Server", "Shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		sysLogger.Error("Server", "Server stopped", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
