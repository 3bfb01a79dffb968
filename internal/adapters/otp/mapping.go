package otp

import (
	"time"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/pkg/polyline"
)

// Raw wire types for the journey-plan response. Only the fields we map are
// declared; anything else the engine sends is ignored.

type planResponse struct {
	Itineraries []rawItinerary `json:"itineraries"`
}

type rawItinerary struct {
	Duration     int      `json:"duration"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	WalkDistance float64  `json:"walkDistance"`
	Transfers    *int     `json:"transfers"`
	Legs         []rawLeg `json:"legs"`
}

type rawLeg struct {
	Mode           string       `json:"mode"`
	From           rawPlace     `json:"from"`
	To             rawPlace     `json:"to"`
	StartTime      string       `json:"startTime"`
	EndTime        string       `json:"endTime"`
	DepartureTime  string       `json:"departureTime"`
	ArrivalTime    string       `json:"arrivalTime"`
	Duration       int          `json:"duration"`
	Distance       float64      `json:"distance"`
	RouteShortName string       `json:"routeShortName"`
	RouteLongName  string       `json:"routeLongName"`
	AgencyName     string       `json:"agencyName"`
	Headsign       string       `json:"headsign"`
	LegGeometry    *rawGeometry `json:"legGeometry"`
}

type rawPlace struct {
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	StopID string  `json:"stopId"`
}

type rawGeometry struct {
	Points string `json:"points"`
	Length int    `json:"length"`
}

// mapItinerary converts one raw itinerary field-by-field into the domain
// model. Missing optional fields default to empty/zero.
func mapItinerary(ri rawItinerary) domain.Itinerary {
	legs := make([]domain.Leg, 0, len(ri.Legs))
	for _, rl := range ri.Legs {
		legs = append(legs, mapLeg(rl))
	}

	it := domain.Itinerary{
		Legs:         legs,
		Duration:     max(ri.Duration, 0),
		StartTime:    parseTime(ri.StartTime),
		EndTime:      parseTime(ri.EndTime),
		WalkDistance: ri.WalkDistance,
	}

	if ri.Transfers != nil && *ri.Transfers >= 0 {
		it.Transfers = *ri.Transfers
	} else {
		it.Transfers = domain.DeriveTransfers(legs)
	}
	return it
}

func mapLeg(rl rawLeg) domain.Leg {
	// Anything that is not exactly the walking marker rides a vehicle.
	mode := domain.ModeTransit
	if rl.Mode == "WALK" {
		mode = domain.ModeWalk
	}

	departure := rl.DepartureTime
	if departure == "" {
		departure = rl.StartTime
	}
	arrival := rl.ArrivalTime
	if arrival == "" {
		arrival = rl.EndTime
	}

	leg := domain.Leg{
		Mode:           mode,
		From:           mapPlace(rl.From),
		To:             mapPlace(rl.To),
		DepartureTime:  parseTime(departure),
		ArrivalTime:    parseTime(arrival),
		Duration:       max(rl.Duration, 0),
		Distance:       rl.Distance,
		RouteShortName: rl.RouteShortName,
		RouteLongName:  rl.RouteLongName,
		AgencyName:     rl.AgencyName,
		Headsign:       rl.Headsign,
	}

	if rl.LegGeometry != nil {
		leg.Polyline = polyline.Decode(rl.LegGeometry.Points)
	}
	return leg
}

func mapPlace(rp rawPlace) domain.Place {
	return domain.Place{
		Name:     rp.Name,
		Location: domain.GeoPoint{Lat: rp.Lat, Lon: rp.Lon},
		StopID:   rp.StopID,
	}
}

// parseTime accepts the timestamp layouts the engine is known to emit.
// An unparseable value maps to the zero time rather than failing the whole
// itinerary.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
