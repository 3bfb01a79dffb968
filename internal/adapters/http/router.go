package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/kpetrou/villago/internal/pkg/metrics"
)

const handlerTimeout = 15 * time.Second

// SetupRoutes registers the middleware chain and every route.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(cors.New())
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP.
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited",
				"too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health checks skip the per-request timeout; they carry their own.
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/villages", timeout.NewWithContext(ListVillagesHandler(deps), handlerTimeout))
	v1.Get("/villages/nearby", timeout.NewWithContext(NearbyVillagesHandler(deps), handlerTimeout))
	v1.Get("/villages/:id", timeout.NewWithContext(GetVillageHandler(deps), handlerTimeout))
	v1.Get("/villages/:id/demand", timeout.NewWithContext(VillageDemandHandler(deps), handlerTimeout))
	v1.Get("/cities", timeout.NewWithContext(ListCitiesHandler(deps), handlerTimeout))

	v1.Get("/journeys/plan", timeout.NewWithContext(PlanJourneyHandler(deps), handlerTimeout))

	v1.Post("/demand", timeout.NewWithContext(SubmitDemandHandler(deps), handlerTimeout))
	v1.Get("/demand/counts", timeout.NewWithContext(DemandCountsHandler(deps), handlerTimeout))

	v1.Get("/session", GetSessionHandler(deps))
	v1.Post("/session/origin", SetOriginHandler(deps))
	v1.Post("/session/village", SelectVillageHandler(deps))
	v1.Delete("/session/village", ClearVillageHandler(deps))
	v1.Post("/session/route", ToggleRouteHandler(deps))

	// WebSocket: live demand ticker.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
