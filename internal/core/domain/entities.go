package domain

import (
	"strings"
	"time"
)

// Village is a point of interest a shuttle could serve.
type Village struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	District    string   `json:"district"`
	Location    GeoPoint `json:"location"`
	Description string   `json:"description,omitempty"`
	Distance    *float64 `json:"distance,omitempty"` // computed field, meters
}

// City is a reference origin with a fixed coordinate.
type City struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// ReferenceCities is the fixed fallback-origin table.
var ReferenceCities = []City{
	{Name: "Nicosia", Location: GeoPoint{Lat: 35.1856, Lon: 33.3823}},
	{Name: "Limassol", Location: GeoPoint{Lat: 34.7071, Lon: 33.0226}},
	{Name: "Larnaca", Location: GeoPoint{Lat: 34.9167, Lon: 33.6333}},
	{Name: "Paphos", Location: GeoPoint{Lat: 34.7754, Lon: 32.4218}},
}

// CityByName looks up a reference city, case-insensitively.
func CityByName(name string) (City, bool) {
	for _, c := range ReferenceCities {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return City{}, false
}

// TravelMode distinguishes walking from riding a transit vehicle.
type TravelMode string

const (
	ModeWalk    TravelMode = "WALK"
	ModeTransit TravelMode = "TRANSIT"
)

// Place is an itinerary leg endpoint.
type Place struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	StopID   string   `json:"stop_id,omitempty"`
}

// Leg is one uninterrupted segment of an itinerary in a single mode.
type Leg struct {
	Mode           TravelMode `json:"mode"`
	From           Place      `json:"from"`
	To             Place      `json:"to"`
	DepartureTime  time.Time  `json:"departure_time"`
	ArrivalTime    time.Time  `json:"arrival_time"`
	Duration       int        `json:"duration"` // seconds
	Distance       float64    `json:"distance,omitempty"`
	RouteShortName string     `json:"route_short_name,omitempty"`
	RouteLongName  string     `json:"route_long_name,omitempty"`
	AgencyName     string     `json:"agency_name,omitempty"`
	Headsign       string     `json:"headsign,omitempty"`
	Polyline       []GeoPoint `json:"polyline,omitempty"`
}

// Itinerary is one complete proposed journey. Itineraries are immutable
// snapshots returned per query; there is no cross-query identity.
type Itinerary struct {
	Legs         []Leg     `json:"legs"`
	Duration     int       `json:"duration"` // seconds
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	WalkDistance float64   `json:"walk_distance"` // meters
	Transfers    int       `json:"transfers"`
}

// DeriveTransfers computes the transfer count from the leg sequence when the
// routing engine does not supply one.
func DeriveTransfers(legs []Leg) int {
	transit := 0
	for _, l := range legs {
		if l.Mode == ModeTransit {
			transit++
		}
	}
	if transit <= 1 {
		return 0
	}
	return transit - 1
}

// DemandRecord is a user-submitted expression of desire for shuttle service
// to a village. Records are never mutated or individually deleted.
type DemandRecord struct {
	ID          string    `json:"id"`
	VillageID   string    `json:"village_id"`
	OriginCity  string    `json:"origin_city"`
	DesiredDate string    `json:"desired_date"` // calendar date, YYYY-MM-DD
	PartySize   int       `json:"party_size"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DemandSubmission is the user-provided part of a demand record.
type DemandSubmission struct {
	VillageID   string `json:"village_id" validate:"required"`
	OriginCity  string `json:"origin_city" validate:"required"`
	DesiredDate string `json:"desired_date" validate:"required,datetime=2006-01-02"`
	PartySize   int    `json:"party_size" validate:"required,min=1,max=8"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}
