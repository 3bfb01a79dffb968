package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets default Cache-Control headers on GET responses.
// Handlers that set their own win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/v1/cities":
			ttl = "public, max-age=86400" // fixed table

		case strings.HasPrefix(path, "/v1/session"):
			ttl = "no-store" // per-user state

		case strings.HasPrefix(path, "/v1/demand") || strings.HasSuffix(path, "/demand"):
			ttl = "no-cache" // aggregates move with every submission

		case strings.HasPrefix(path, "/v1/journeys/plan"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/villages"):
			ttl = "public, max-age=3600" // static reference set

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}
