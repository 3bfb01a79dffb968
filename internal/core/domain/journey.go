package domain

// Direction identifies which leg of the round trip a route list belongs to.
type Direction string

const (
	DirectionForward Direction = "forward" // origin → village
	DirectionReturn  Direction = "return"  // village → origin
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionForward || d == DirectionReturn
}

// RouteRef points at one itinerary inside a direction's route list.
type RouteRef struct {
	Direction Direction `json:"direction"`
	Index     int       `json:"index"`
}

// OriginSource records which authority supplied the session origin.
type OriginSource string

const (
	OriginNone    OriginSource = ""
	OriginLocated OriginSource = "located" // device/IP geolocation
	OriginCity    OriginSource = "city"    // user-chosen reference city
)

// JourneyPhase is the derived state of a journey session.
type JourneyPhase string

const (
	PhaseNoOrigin    JourneyPhase = "no_origin"
	PhaseNoSelection JourneyPhase = "no_selection"
	PhaseLoading     JourneyPhase = "loading"
	PhaseReady       JourneyPhase = "ready"
	PhaseError       JourneyPhase = "error"
)

// JourneyState is a point-in-time snapshot of a journey session.
type JourneyState struct {
	Origin        *GeoPoint    `json:"origin,omitempty"`
	OriginSource  OriginSource `json:"origin_source,omitempty"`
	OriginCity    string       `json:"origin_city,omitempty"`
	Village       *Village     `json:"village,omitempty"`
	Forward       []Itinerary  `json:"routes_forward"`
	Return        []Itinerary  `json:"routes_return"`
	Loading       bool         `json:"loading"`
	Error         string       `json:"error,omitempty"`
	SelectedRoute *RouteRef    `json:"selected_route,omitempty"`
}

// Phase derives the conceptual state-machine state from the snapshot.
func (s JourneyState) Phase() JourneyPhase {
	switch {
	case s.Error != "":
		return PhaseError
	case s.Loading:
		return PhaseLoading
	case s.Village == nil:
		return PhaseNoSelection
	case s.Origin == nil:
		return PhaseNoOrigin
	default:
		return PhaseReady
	}
}
