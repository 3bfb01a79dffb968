// Command seed fills an empty demand ledger with synthetic records so that
// aggregate views have something to show in development environments.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/kpetrou/villago/internal/adapters/localstore"
	"github.com/kpetrou/villago/internal/adapters/static"
	"github.com/kpetrou/villago/internal/adapters/valkey"
	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/core/usecases"
	"github.com/kpetrou/villago/internal/pkg/config"
	"github.com/kpetrou/villago/internal/pkg/logging"
)

func main() {
	force := flag.Bool("force", false, "replace an existing ledger instead of skipping")
	flag.Parse()

	cfg, err := config.Load("villago-seed")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup("villago-seed", "info", "text")

	if !cfg.Demand.AllowSeed {
		slog.Error("seeding is disabled; set VILLAGO_DEMAND_ALLOW_SEED=true to enable")
		os.Exit(1)
	}

	var store ports.KVStore
	switch cfg.Demand.Backend {
	case "valkey":
		vk, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer vk.Close()
		store = vk
	default:
		fileStore, err := localstore.New(cfg.Demand.Dir)
		if err != nil {
			log.Fatalf("demand store: %v", err)
		}
		store = fileStore
	}

	villageRepo, err := static.NewVillageRepo()
	if err != nil {
		log.Fatalf("village data: %v", err)
	}

	ctx := context.Background()
	villages, err := villageRepo.List(ctx)
	if err != nil {
		log.Fatalf("list villages: %v", err)
	}
	ids := make([]string, 0, len(villages))
	for _, v := range villages {
		ids = append(ids, v.ID)
	}

	demand := usecases.NewDemandService(store, cfg.Demand.Key, nil)
	n, err := demand.Seed(ctx, ids, *force)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if n == 0 {
		slog.Info("ledger already populated, nothing seeded (use -force to replace)")
		return
	}
	slog.Info("seeded demand ledger", "records", n, "villages", len(ids))
}
