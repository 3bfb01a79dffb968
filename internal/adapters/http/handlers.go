package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/core/usecases"
)

// ListVillagesHandler returns the village reference set, paginated.
func ListVillagesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		villages, err := deps.Villages.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset, limit := pageWindow(c, 50, 100)
		page, pg := paginate(villages, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetVillageHandler returns a single village by ID.
func GetVillageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		village, err := deps.Villages.GetByID(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if village == nil {
			return errNotFound(c, "village not found: "+id)
		}
		return c.JSON(village)
	}
}

// NearbyVillagesHandler returns villages within a radius of a point,
// closest first.
func NearbyVillagesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 30000)
		limit := c.QueryInt("limit", 10)

		if !(domain.GeoPoint{Lat: lat, Lon: lon}).Valid() {
			return errBadRequest(c, "lat and lon must be valid coordinates")
		}
		if radius <= 0 || radius > 200000 {
			return errBadRequest(c, "radius must be between 1 and 200000 meters")
		}

		villages, err := deps.Villages.Nearby(c.Context(), lat, lon, radius, limit)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(villages)
	}
}

// ListCitiesHandler returns the fixed reference-city table.
func ListCitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(domain.ReferenceCities)
	}
}

// PlanJourneyHandler is the stateless journey-plan passthrough. The plan
// boundary is total: no route and engine failure both come back as an
// empty itinerary list with a 200.
func PlanJourneyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from := domain.GeoPoint{Lat: c.QueryFloat("fromLat", 0), Lon: c.QueryFloat("fromLon", 0)}
		to := domain.GeoPoint{Lat: c.QueryFloat("toLat", 0), Lon: c.QueryFloat("toLon", 0)}
		if !from.Valid() || !to.Valid() {
			return errBadRequest(c, "fromLat, fromLon, toLat and toLon are required valid coordinates")
		}

		departAt := time.Now()
		if raw := c.Query("time"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return errBadRequest(c, "time must be RFC 3339")
			}
			departAt = t
		}

		itineraries := deps.Planner.Plan(c.Context(), from, to, departAt)
		return c.JSON(fiber.Map{"itineraries": itineraries})
	}
}

// SubmitDemandHandler records one demand submission.
func SubmitDemandHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sub domain.DemandSubmission
		if err := c.BodyParser(&sub); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		if village, err := deps.Villages.GetByID(c.Context(), sub.VillageID); err != nil {
			return errInternal(c, err.Error())
		} else if village == nil {
			return errUnprocessable(c, "unknown village: "+sub.VillageID)
		}

		record, err := deps.Demand.Add(c.Context(), sub)
		if err != nil {
			if usecases.IsValidationError(err) {
				return errUnprocessable(c, err.Error())
			}
			return errInternal(c, "could not store demand: "+err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(record)
	}
}

// DemandCountsHandler returns windowed per-village demand counts.
func DemandCountsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		windowDays := c.QueryInt("window_days", 0)
		counts := deps.Demand.CountsByVillage(c.Context(), windowDays)
		return c.JSON(fiber.Map{
			"window_days": effectiveWindow(windowDays),
			"counts":      counts,
		})
	}
}

// VillageDemandHandler returns the windowed demand count for one village.
func VillageDemandHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		village, err := deps.Villages.GetByID(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if village == nil {
			return errNotFound(c, "village not found: "+id)
		}

		windowDays := c.QueryInt("window_days", 0)
		return c.JSON(fiber.Map{
			"village_id":  id,
			"window_days": effectiveWindow(windowDays),
			"count":       deps.Demand.CountFor(c.Context(), id, windowDays),
		})
	}
}

func effectiveWindow(windowDays int) int {
	if windowDays <= 0 {
		return usecases.DefaultDemandWindowDays
	}
	return windowDays
}

// ---- Session API ----

// sessionState is the snapshot plus its derived phase and session id.
type sessionState struct {
	SessionID string `json:"session_id"`
	domain.JourneyState
	Phase domain.JourneyPhase `json:"phase"`
}

func sessionResponse(c *fiber.Ctx, id string, st domain.JourneyState) error {
	c.Set(HeaderSessionID, id)
	return c.JSON(sessionState{SessionID: id, JourneyState: st, Phase: st.Phase()})
}

// GetSessionHandler returns the journey snapshot, creating the session on
// first contact.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, sess := deps.Sessions.GetOrCreate(c.Get(HeaderSessionID))
		return sessionResponse(c, id, sess.Snapshot())
	}
}

type originRequest struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	City   string   `json:"city"`
	Locate bool     `json:"locate"`
}

// SetOriginHandler sets the session origin from explicit coordinates, a
// reference city, or an IP-geolocation attempt.
func SetOriginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req originRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		id, sess := deps.Sessions.GetOrCreate(c.Get(HeaderSessionID))

		switch {
		case req.Locate:
			if sess.HasLocatedOrigin() {
				break // one successful locate per session
			}
			pt, err := deps.Origins.Locate(c.Context(), c.IP())
			if err != nil {
				// Locate failure leaves the origin as it was; the client
				// falls back to offering the reference cities.
				LoggerFromCtx(c.UserContext()).Warn("geolocation failed", "error", err)
				return newError(c, fiber.StatusFailedDependency, "locate_failed", err.Error())
			}
			if err := sess.SetLocatedOrigin(*pt); err != nil {
				return errUnprocessable(c, err.Error())
			}

		case req.Lat != nil && req.Lon != nil:
			if err := sess.SetLocatedOrigin(domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon}); err != nil {
				return errUnprocessable(c, err.Error())
			}

		case req.City != "":
			city, err := deps.Origins.CityOrigin(req.City)
			if err != nil {
				return errUnprocessable(c, err.Error())
			}
			sess.SetCityOrigin(*city)

		default:
			return errBadRequest(c, "body must carry lat/lon, a city, or locate=true")
		}

		return sessionResponse(c, id, sess.Snapshot())
	}
}

type selectVillageRequest struct {
	VillageID string `json:"village_id"`
}

// SelectVillageHandler makes a village the session destination.
func SelectVillageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req selectVillageRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.VillageID == "" {
			return errBadRequest(c, "village_id is required")
		}

		village, err := deps.Villages.GetByID(c.Context(), req.VillageID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if village == nil {
			return errNotFound(c, "village not found: "+req.VillageID)
		}

		id, sess := deps.Sessions.GetOrCreate(c.Get(HeaderSessionID))
		sess.SelectVillage(*village)
		return sessionResponse(c, id, sess.Snapshot())
	}
}

// ClearVillageHandler drops the destination and its routes.
func ClearVillageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, sess := deps.Sessions.GetOrCreate(c.Get(HeaderSessionID))
		sess.ClearSelection()
		return sessionResponse(c, id, sess.Snapshot())
	}
}

type toggleRouteRequest struct {
	Direction domain.Direction `json:"direction"`
	Index     int              `json:"index"`
}

// ToggleRouteHandler toggles the highlighted route.
func ToggleRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req toggleRouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		id, sess := deps.Sessions.GetOrCreate(c.Get(HeaderSessionID))
		if err := sess.ToggleRoute(req.Direction, req.Index); err != nil {
			return errUnprocessable(c, err.Error())
		}
		return sessionResponse(c, id, sess.Snapshot())
	}
}
