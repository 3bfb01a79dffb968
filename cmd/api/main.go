package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/kpetrou/villago/internal/adapters/http"
	"github.com/kpetrou/villago/internal/adapters/ipapi"
	"github.com/kpetrou/villago/internal/adapters/localstore"
	natsadapter "github.com/kpetrou/villago/internal/adapters/nats"
	"github.com/kpetrou/villago/internal/adapters/otp"
	"github.com/kpetrou/villago/internal/adapters/static"
	"github.com/kpetrou/villago/internal/adapters/valkey"
	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/core/usecases"
	"github.com/kpetrou/villago/internal/pkg/config"
	"github.com/kpetrou/villago/internal/pkg/logging"
	"github.com/kpetrou/villago/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("villago-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("villago-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Valkey backs the plan/nearby caches and, optionally, the demand
	// ledger. The service runs without it, uncached.
	var vk *valkey.Store
	if cfg.Valkey.Addr != "" {
		vk, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			vk = nil
		} else {
			defer vk.Close()
		}
	}

	// Demand store: valkey or the local file store.
	var demandStore ports.KVStore
	switch cfg.Demand.Backend {
	case "valkey":
		if vk == nil {
			log.Fatalf("demand backend is valkey, but valkey is unavailable")
		}
		demandStore = vk
	default:
		fileStore, err := localstore.New(cfg.Demand.Dir)
		if err != nil {
			log.Fatalf("demand store: %v", err)
		}
		demandStore = fileStore
	}

	// NATS: demand eventing plus the WebSocket relay.
	var events ports.EventPublisher
	var natsConn *nats.Conn
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, demand events disabled", "error", err)
	} else {
		defer publisher.Close()
		events = publisher
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		}
	}

	villageRepo, err := static.NewVillageRepo()
	if err != nil {
		log.Fatalf("village data: %v", err)
	}

	var cache ports.CacheStore
	if vk != nil {
		cache = vk
	}
	planner := otp.NewPlanner(
		cfg.Routing.BaseURL,
		cfg.Routing.MaxItineraries,
		time.Duration(cfg.Routing.TimeoutSeconds)*time.Second,
		cache,
		cfg.Routing.CacheTTLSeconds,
	)

	var locator ports.Locator
	if cfg.Locator.Enabled {
		locator = ipapi.New(cfg.Locator.BaseURL)
	}

	sessions := http.NewSessionManager(planner, time.Duration(cfg.Session.IdleMinutes)*time.Minute)
	defer sessions.Close()

	deps := &http.Dependencies{
		Villages:    usecases.NewVillageService(villageRepo, cache),
		Demand:      usecases.NewDemandService(demandStore, cfg.Demand.Key, events),
		Origins:     usecases.NewOriginService(locator),
		Sessions:    sessions,
		Planner:     planner,
		KV:          demandStore,
		NATS:        natsConn,
		RoutingPing: planner.Ping,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024,
		AppName:      "Villago API",
	})
	app.Use(recover.New())

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
