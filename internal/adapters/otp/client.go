// Package otp is the routing-engine client. It queries an OpenTripPlanner
// style journey-plan endpoint and normalizes the response into the domain
// itinerary model.
package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/pkg/metrics"
	"github.com/kpetrou/villago/internal/pkg/telemetry"
)

// Plan outcomes, for logs and metrics only. Callers of Plan cannot
// distinguish them: "no route" and "fetch failed" collapse into an empty
// result at that boundary.
const (
	outcomeSuccess   = "success"
	outcomeNoRoute   = "no_route"
	outcomeTransient = "transient_failure"
)

// Planner implements ports.RoutePlanner against a journey-plan HTTP endpoint.
type Planner struct {
	baseURL        string
	maxItineraries int
	httpClient     *http.Client
	cache          ports.CacheStore // optional
	cacheTTL       int
	retryWait      time.Duration
}

// NewPlanner creates a routing client. cache may be nil.
func NewPlanner(baseURL string, maxItineraries int, timeout time.Duration, cache ports.CacheStore, cacheTTLSeconds int) *Planner {
	if maxItineraries <= 0 {
		maxItineraries = 5
	}
	return &Planner{
		baseURL:        baseURL,
		maxItineraries: maxItineraries,
		httpClient:     &http.Client{Timeout: timeout},
		cache:          cache,
		cacheTTL:       cacheTTLSeconds,
		retryWait:      time.Second,
	}
}

// Plan queries the routing engine for itineraries from one point to another.
//
// Plan is total: every failure mode (no route, network failure, unexpected
// status, malformed body) yields an empty slice, never an error.
func (p *Planner) Plan(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "routing.plan")
	defer span.End()

	// Try cache. Plan responses for the same endpoints within the same
	// few minutes are interchangeable.
	cacheKey := p.cacheKey(from, to, departAt)
	if p.cache != nil {
		if data, err := p.cache.Get(ctx, cacheKey); err == nil {
			var cached []domain.Itinerary
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.PlanCacheHits.Inc()
				return cached
			}
		}
		metrics.PlanCacheMisses.Inc()
	}

	itineraries, outcome := p.plan(ctx, from, to, departAt)

	span.SetAttributes(attribute.String("plan.outcome", outcome),
		attribute.Int("plan.itineraries", len(itineraries)))
	metrics.PlanRequests.WithLabelValues(outcome).Inc()
	metrics.PlanDuration.Observe(time.Since(start).Seconds())

	if outcome == outcomeSuccess && p.cache != nil {
		if data, err := json.Marshal(itineraries); err == nil {
			_ = p.cache.SetTTL(ctx, cacheKey, data, p.cacheTTL)
		}
	}

	return itineraries
}

func (p *Planner) plan(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) ([]domain.Itinerary, string) {
	q := url.Values{}
	q.Set("fromPlace", formatPlace(from))
	q.Set("toPlace", formatPlace(to))
	q.Set("time", departAt.Format(time.RFC3339))
	q.Set("arriveBy", "false")
	q.Set("numItineraries", strconv.Itoa(p.maxItineraries))
	q.Set("mode", "TRANSIT,WALK")
	q.Set("detailedResponse", "true")

	reqURL := p.baseURL + "/plan?" + q.Encode()

	resp, err := p.getWithRetries(ctx, reqURL)
	if err != nil {
		slog.Warn("routing engine unreachable", "error", err)
		return nil, outcomeTransient
	}
	defer resp.Body.Close()

	// The engine answers 404 when no route exists between the endpoints.
	// That is a legitimate empty result, not a failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil, outcomeNoRoute
	}
	if resp.StatusCode != http.StatusOK {
		slog.Warn("routing engine returned unexpected status", "status", resp.StatusCode)
		return nil, outcomeTransient
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("failed to read routing response", "error", err)
		return nil, outcomeTransient
	}

	var raw planResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		slog.Warn("failed to decode routing response", "error", err)
		return nil, outcomeTransient
	}

	if len(raw.Itineraries) == 0 {
		return nil, outcomeNoRoute
	}

	itineraries := make([]domain.Itinerary, 0, len(raw.Itineraries))
	for _, ri := range raw.Itineraries {
		itineraries = append(itineraries, mapItinerary(ri))
	}
	return itineraries, outcomeSuccess
}

// getWithRetries attempts an HTTP GET up to 3 times for transport errors
// and 502/503/504 responses.
func (p *Planner) getWithRetries(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := p.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == 502 || resp.StatusCode == 503 || resp.StatusCode == 504:
			resp.Body.Close()
			lastErr = fmt.Errorf("transient status code: %d", resp.StatusCode)
		default:
			return resp, nil
		}

		if attempt < 2 {
			select {
			case <-time.After(time.Duration(attempt+1) * p.retryWait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("failed after 3 attempts: %w", lastErr)
}

// Ping probes the engine for readiness checks. Any HTTP answer counts as
// reachable; only a transport failure is an error.
func (p *Planner) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (p *Planner) cacheKey(from, to domain.GeoPoint, departAt time.Time) string {
	bucket := departAt.UTC().Truncate(5 * time.Minute)
	return fmt.Sprintf("plan:%s:%s:%d", formatPlace(from), formatPlace(to), bucket.Unix())
}

func formatPlace(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', 5, 64) + "," + strconv.FormatFloat(p.Lon, 'f', 5, 64)
}
