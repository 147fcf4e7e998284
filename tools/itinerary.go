package tools

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/itinerary"
)

// ItineraryBuilder resolves a drafted itinerary. *itinerary.Builder
// satisfies it.
type ItineraryBuilder interface {
	Build(ctx context.Context, req itinerary.BuildRequest) (*core.Itinerary, itinerary.Stats)
}

type CreateItineraryInput struct {
	Title     string               `json:"title,omitempty"`
	Country   string               `json:"country" description:"Country of the trip, used to disambiguate place names"`
	Locations []string             `json:"locations" description:"Distinct cities or towns, in visiting order"`
	Days      []itinerary.DayInput `json:"days" description:"One entry per day with location, title, morning/afternoon/evening activities and named places"`
}

func (in CreateItineraryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Locations, validation.Required),
		validation.Field(&in.Days, validation.Required, validation.Length(1, core.MaxStayNights+1)),
	)
}

type CreateItineraryOutput struct {
	Itinerary *core.Itinerary `json:"itinerary"`
	Stats     itinerary.Stats `json:"stats"`
	Summary   string          `json:"summary"`
}

// ItineraryTools geocodes a drafted day-by-day plan.
type ItineraryTools struct {
	builder ItineraryBuilder
}

func NewItineraryTools(builder ItineraryBuilder, registry *Registry) *ItineraryTools {
	t := &ItineraryTools{builder: builder}
	if registry == nil {
		return t
	}
	Define(registry, "create_itinerary",
		"Turn a day-by-day plan into a map-ready itinerary. Every location and named place is geocoded; places that cannot be found reuse their day's coordinates. Pass the result to create_trip to save it.",
		t.Create)
	return t
}

func (t *ItineraryTools) Create(ctx context.Context, in *CreateItineraryInput) (*CreateItineraryOutput, error) {
	it, stats := t.builder.Build(ctx, itinerary.BuildRequest{
		Title:     in.Title,
		Country:   in.Country,
		Locations: in.Locations,
		Days:      in.Days,
	})
	if it == nil {
		return nil, fmt.Errorf("%w: itinerary could not be built", core.ErrProvider)
	}
	return &CreateItineraryOutput{
		Itinerary: it,
		Stats:     stats,
		Summary: fmt.Sprintf("%d of %d locations and %d of %d places located (%d placed at their day's location)",
			stats.LocationsResolved, stats.LocationsTotal, stats.PlacesResolved, stats.PlacesTotal, stats.PlacesInherited),
	}, nil
}
