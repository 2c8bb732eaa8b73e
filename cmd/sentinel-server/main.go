package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sentinel-dc/sentinel/internal/config"
	"github.com/sentinel-dc/sentinel/internal/db"
	"github.com/sentinel-dc/sentinel/internal/httpapi"
	"github.com/sentinel-dc/sentinel/internal/sentinel/service"
	"github.com/sentinel-dc/sentinel/internal/sentinel/store/sqlite"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "sentinel-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" && cfg.SeedFile != "" {
		if err := db.SeedFromFile(ctx, conn, cfg.SeedFile); err != nil {
			logger.Fatalf("seed: %v", err)
		}
		logger.Printf("seeded from %s", cfg.SeedFile)
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	userStore := sqlite.NewUserStore(conn)
	gateStore := sqlite.NewGateStore(conn, writer)
	taskStore := sqlite.NewTaskStore(conn, writer)
	auditStore := sqlite.NewAuditStore(conn, writer)
	doorEventStore := sqlite.NewDoorEventStore(conn, writer)

	// Services
	clock := service.UTCClock()
	accessSvc := service.NewAccessService(userStore, gateStore, taskStore, auditStore, clock)
	taskSvc := service.NewTaskService(userStore, gateStore, taskStore, clock)
	heartbeatSvc := service.NewHeartbeatService(gateStore, taskStore, clock)
	doorEventSvc := service.NewDoorEventService(gateStore, userStore, doorEventStore, clock)

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:     logger,
		Addr:       cfg.HTTPAddr,
		Access:     accessSvc,
		Tasks:      taskSvc,
		Heartbeats: heartbeatSvc,
		DoorEvents: doorEventSvc,
		Users:      userStore,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
