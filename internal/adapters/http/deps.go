package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/core/usecases"
)

// Dependencies holds everything the HTTP handlers need.
type Dependencies struct {
	Villages *usecases.VillageService
	Demand   *usecases.DemandService
	Origins  *usecases.OriginService
	Sessions *SessionManager

	Planner ports.RoutePlanner
	KV      ports.KVStore
	NATS    *nats.Conn

	// RoutingPing probes the routing engine for the readiness check.
	// Nil means the engine is not health-checked.
	RoutingPing func(ctx context.Context) error
}
