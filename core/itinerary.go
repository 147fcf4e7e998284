package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Unresolved marks a place the geocoder could not find. It must never be
// rendered as a real position.
var Unresolved = LatLng{}

// IsResolved is false only for the Unresolved sentinel.
func (l LatLng) IsResolved() bool {
	return l != Unresolved
}

// MarshalJSON adds a resolved flag so clients do not plot (0,0).
func (l LatLng) MarshalJSON() ([]byte, error) {
	type plain LatLng
	return json.Marshal(struct {
		plain
		Resolved bool `json:"resolved"`
	}{plain(l), l.IsResolved()})
}

func (l LatLng) String() string {
	if !l.IsResolved() {
		return "unresolved"
	}
	return fmt.Sprintf("%.5f,%.5f", l.Lat, l.Lng)
}

// PlaceCategory drives the provider place-type hint.
type PlaceCategory string

const (
	CategoryStay       PlaceCategory = "stay"
	CategoryFood       PlaceCategory = "food"
	CategoryAttraction PlaceCategory = "attraction"
	CategoryActivity   PlaceCategory = "activity"
)

// ParsePlaceCategory defaults unknown categories to activity.
func ParsePlaceCategory(s string) PlaceCategory {
	switch c := PlaceCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryStay, CategoryFood, CategoryAttraction, CategoryActivity:
		return c
	case "hotel", "lodging", "accommodation":
		return CategoryStay
	case "restaurant", "cafe", "dining":
		return CategoryFood
	case "sight", "sightseeing", "landmark", "museum":
		return CategoryAttraction
	default:
		return CategoryActivity
	}
}

// GeocodedPlace is a named point of interest.
type GeocodedPlace struct {
	Name        string        `json:"name"`
	Category    PlaceCategory `json:"category"`
	Coordinates LatLng        `json:"coordinates"`
	Address     string        `json:"address,omitempty"`
	ProviderID  string        `json:"providerId,omitempty"`
	// Inherited is set when the coordinates were copied from the day location.
	Inherited bool `json:"inherited,omitempty"`
}

// Location is a base city of the trip.
type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Coordinates LatLng `json:"coordinates"`
	Timezone    string `json:"timezone,omitempty"`
}

type Activities struct {
	Morning   string `json:"morning,omitempty"`
	Afternoon string `json:"afternoon,omitempty"`
	Evening   string `json:"evening,omitempty"`
}

type Day struct {
	DayNumber  int             `json:"dayNumber"`
	Location   string          `json:"location"`
	Title      string          `json:"title"`
	Activities Activities      `json:"activities"`
	Places     []GeocodedPlace `json:"places"`
}

// Itinerary is the aggregate produced by the itinerary tool and stored in
// trip preferences.
type Itinerary struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Country   string     `json:"country,omitempty"`
	TotalDays int        `json:"totalDays"`
	Locations []Location `json:"locations"`
	Days      []Day      `json:"days"`
}

// LocationByName finds a base location case-insensitively.
func (it *Itinerary) LocationByName(name string) (*Location, bool) {
	for i := range it.Locations {
		if strings.EqualFold(it.Locations[i].Name, name) {
			return &it.Locations[i], true
		}
	}
	return nil, false
}
