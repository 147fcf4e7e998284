// Package itinerary turns model-proposed day plans into geocoded
// itineraries.
package itinerary

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/va6996/tripchat/concurrency"
	logcontext "github.com/va6996/tripchat/context"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
	"golang.org/x/time/rate"
)

// Geocoder is the external lookup. A nil place with a nil error is a miss.
type Geocoder interface {
	TextSearch(ctx context.Context, query string, category core.PlaceCategory, region string) (*core.GeocodedPlace, error)
	Geocode(ctx context.Context, address string) (*core.GeocodedPlace, error)
}

// PlaceInput is a point of interest proposed for a day.
type PlaceInput struct {
	Name     string `json:"name" mapstructure:"name"`
	Category string `json:"category" mapstructure:"category"`
}

// DayInput is one proposed day.
type DayInput struct {
	DayNumber  int             `json:"dayNumber" mapstructure:"dayNumber"`
	Location   string          `json:"location" mapstructure:"location"`
	Title      string          `json:"title" mapstructure:"title"`
	Activities core.Activities `json:"activities" mapstructure:"activities"`
	Places     []PlaceInput    `json:"places" mapstructure:"places"`
}

// Hints narrow provider lookups.
type Hints struct {
	// Region is an ISO2 country code used as the provider region bias.
	Region string
	// Country is appended to location queries.
	Country string
}

// Stats is the resolution summary logged and returned to the model.
type Stats struct {
	LocationsResolved int `json:"locationsResolved"`
	LocationsTotal    int `json:"locationsTotal"`
	PlacesResolved    int `json:"placesResolved"`
	PlacesInherited   int `json:"placesInherited"`
	PlacesTotal       int `json:"placesTotal"`
}

// Resolution is the geocoded form of the input.
type Resolution struct {
	Locations []core.Location
	Days      []core.Day
}

// Pipeline resolves locations and places one call at a time. All pipelines
// built from the same limiter share one provider budget.
type Pipeline struct {
	geocoder Geocoder
	limiter  *rate.Limiter
	sessions *concurrency.KeyedMutex
}

// NewLimiter paces provider calls delay apart. A non-positive delay
// disables pacing.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func NewPipeline(geocoder Geocoder, limiter *rate.Limiter) *Pipeline {
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &Pipeline{
		geocoder: geocoder,
		limiter:  limiter,
		sessions: concurrency.NewKeyedMutex(),
	}
}

// ResolveItinerary geocodes every distinct location, then every place.
// Locations fall back text search → geocode → Unresolved. Places use the
// same chain scoped by their day location and inherit that location's
// coordinates on a total miss.
func (p *Pipeline) ResolveItinerary(ctx context.Context, locations []string, days []DayInput, hints Hints) (Resolution, Stats) {
	if sessionID := logcontext.SessionIDFromContext(ctx); sessionID != "" {
		unlock := p.sessions.Lock(sessionID)
		defer unlock()
	}

	names := append(append([]string{}, locations...), lo.Map(days, func(d DayInput, _ int) string { return d.Location })...)
	names = lo.Filter(names, func(n string, _ int) bool { return strings.TrimSpace(n) != "" })
	names = lo.UniqBy(names, func(n string) string { return normalize(n) })

	var stats Stats
	res := Resolution{Locations: make([]core.Location, 0, len(names))}
	byName := make(map[string]core.LatLng, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		query := name
		if hints.Country != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(hints.Country)) {
			query = name + ", " + hints.Country
		}
		coords := p.lookup(ctx, query, name, core.CategoryActivity, hints.Region)
		if coords.IsResolved() {
			stats.LocationsResolved++
		}
		stats.LocationsTotal++
		byName[normalize(name)] = coords
		res.Locations = append(res.Locations, core.Location{Name: name, Coordinates: coords})
	}

	seen := make(map[string]*core.GeocodedPlace)
	res.Days = make([]core.Day, 0, len(days))
	for i, d := range days {
		day := core.Day{
			DayNumber:  d.DayNumber,
			Location:   strings.TrimSpace(d.Location),
			Title:      d.Title,
			Activities: d.Activities,
			Places:     make([]core.GeocodedPlace, 0, len(d.Places)),
		}
		if day.DayNumber == 0 {
			day.DayNumber = i + 1
		}
		dayCoords := byName[normalize(day.Location)]

		for _, pl := range d.Places {
			name := strings.TrimSpace(pl.Name)
			if name == "" {
				continue
			}
			stats.PlacesTotal++
			category := core.ParsePlaceCategory(pl.Category)
			key := normalize(name) + "|" + normalize(day.Location)

			found, ok := seen[key]
			if !ok {
				found = p.lookupPlace(ctx, name, day.Location, category, hints.Region)
				seen[key] = found
			}

			place := core.GeocodedPlace{Name: name, Category: category, Coordinates: core.Unresolved}
			switch {
			case found != nil:
				place.Coordinates = found.Coordinates
				place.Address = found.Address
				place.ProviderID = found.ProviderID
				stats.PlacesResolved++
			case dayCoords.IsResolved():
				place.Coordinates = dayCoords
				place.Inherited = true
				stats.PlacesInherited++
			}
			day.Places = append(day.Places, place)
		}
		res.Days = append(res.Days, day)
	}

	log.Infof(ctx, "Geocoded itinerary: locations %d/%d, places %d/%d (%d inherited)",
		stats.LocationsResolved, stats.LocationsTotal, stats.PlacesResolved, stats.PlacesTotal, stats.PlacesInherited)
	return res, stats
}

// lookup returns Unresolved on a total miss.
func (p *Pipeline) lookup(ctx context.Context, query, address string, category core.PlaceCategory, region string) core.LatLng {
	if place := p.search(ctx, query, category, region); place != nil {
		return place.Coordinates
	}
	if place := p.geocode(ctx, address); place != nil {
		return place.Coordinates
	}
	log.Warnf(ctx, "Could not geocode %q", address)
	return core.Unresolved
}

func (p *Pipeline) lookupPlace(ctx context.Context, name, dayLocation string, category core.PlaceCategory, region string) *core.GeocodedPlace {
	query := name
	if dayLocation != "" {
		query = name + ", " + dayLocation
	}
	if place := p.search(ctx, query, category, region); place != nil {
		return place
	}
	if place := p.geocode(ctx, query); place != nil {
		return place
	}
	return nil
}

func (p *Pipeline) search(ctx context.Context, query string, category core.PlaceCategory, region string) *core.GeocodedPlace {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil
	}
	place, err := p.geocoder.TextSearch(ctx, query, category, region)
	if err != nil {
		logProviderError(ctx, "text search", query, err)
		return nil
	}
	if place == nil || !place.Coordinates.IsResolved() {
		return nil
	}
	return place
}

func (p *Pipeline) geocode(ctx context.Context, address string) *core.GeocodedPlace {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil
	}
	place, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		logProviderError(ctx, "geocode", address, err)
		return nil
	}
	if place == nil || !place.Coordinates.IsResolved() {
		return nil
	}
	return place
}

func logProviderError(ctx context.Context, op, query string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Debugf(ctx, "%s %q abandoned: %v", op, query, err)
		return
	}
	log.Errorf(ctx, "%s %q failed: %v", op, query, err)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
