package itinerary

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/va6996/tripchat/concurrency"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

// TimezoneFinder maps coordinates to an IANA zone name. tzf.F satisfies it.
type TimezoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// BuildRequest is the model's proposed itinerary.
type BuildRequest struct {
	Title     string
	Country   string
	Locations []string
	Days      []DayInput
}

// Builder assembles a complete core.Itinerary.
type Builder struct {
	pipeline  *Pipeline
	timezones *concurrency.Future[TimezoneFinder]
	newID     func() string
}

// NewBuilder wires the pipeline with an optional timezone finder.
func NewBuilder(pipeline *Pipeline, timezones *concurrency.Future[TimezoneFinder]) *Builder {
	return &Builder{
		pipeline:  pipeline,
		timezones: timezones,
		newID:     uuid.NewString,
	}
}

// Build geocodes the request and returns the aggregate with its stats.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*core.Itinerary, Stats) {
	hints := Hints{Country: strings.TrimSpace(req.Country)}
	if code, ok := core.CountryISO2(req.Country); ok {
		hints.Region = code.String()
	} else if len(req.Locations) > 0 {
		if code, ok := core.CountryISO2(req.Locations[0]); ok {
			hints.Region = code.String()
		}
	}

	res, stats := b.pipeline.ResolveItinerary(ctx, req.Locations, req.Days, hints)

	var finder TimezoneFinder
	if b.timezones != nil {
		f, err := b.timezones.Get(ctx)
		if err != nil {
			log.Warnf(ctx, "Timezone lookup unavailable: %v", err)
		} else {
			finder = f
		}
	}

	for i := range res.Locations {
		loc := &res.Locations[i]
		loc.ID = b.newID()
		if finder != nil && loc.Coordinates.IsResolved() {
			loc.Timezone = finder.GetTimezoneName(loc.Coordinates.Lng, loc.Coordinates.Lat)
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" && len(res.Locations) > 0 {
		title = "Trip to " + res.Locations[0].Name
	}

	it := &core.Itinerary{
		ID:        b.newID(),
		Title:     title,
		Country:   hints.Country,
		TotalDays: len(res.Days),
		Locations: res.Locations,
		Days:      res.Days,
	}
	return it, stats
}
