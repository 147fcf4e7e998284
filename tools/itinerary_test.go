package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/itinerary"
	"github.com/va6996/tripchat/tools"
)

type stubBuilder struct {
	got itinerary.BuildRequest
}

func (s *stubBuilder) Build(ctx context.Context, req itinerary.BuildRequest) (*core.Itinerary, itinerary.Stats) {
	s.got = req
	return &core.Itinerary{Title: "Trip to Jaipur", TotalDays: len(req.Days)}, itinerary.Stats{
		LocationsResolved: 1, LocationsTotal: 1, PlacesResolved: 2, PlacesInherited: 1, PlacesTotal: 3,
	}
}

func TestItineraryTools_CreateThroughRegistry(t *testing.T) {
	builder := &stubBuilder{}
	reg := tools.NewRegistry(nil)
	tools.NewItineraryTools(builder, reg)

	env := reg.Execute(testTurn(context.Background()), "create_itinerary", map[string]interface{}{
		"country":   "India",
		"locations": []interface{}{"Jaipur"},
		"days": []interface{}{
			map[string]interface{}{
				"dayNumber":  "1",
				"location":   "Jaipur",
				"title":      "Forts",
				"activities": map[string]interface{}{"morning": "Amber Fort"},
				"places": []interface{}{
					map[string]interface{}{"name": "Amber Fort", "category": "attraction"},
				},
			},
		},
	})
	require.True(t, env.Success, env.Error)

	require.Len(t, builder.got.Days, 1)
	assert.Equal(t, 1, builder.got.Days[0].DayNumber)
	assert.Equal(t, "Amber Fort", builder.got.Days[0].Activities.Morning)
	assert.Equal(t, "Amber Fort", builder.got.Days[0].Places[0].Name)

	out := env.Data.(*tools.CreateItineraryOutput)
	assert.Equal(t, 1, out.Itinerary.TotalDays)
	assert.Contains(t, out.Summary, "2 of 3 places")
}

func TestItineraryTools_RequiresDays(t *testing.T) {
	reg := tools.NewRegistry(nil)
	tools.NewItineraryTools(&stubBuilder{}, reg)

	env := reg.Execute(context.Background(), "create_itinerary", map[string]interface{}{
		"locations": []interface{}{"Jaipur"},
	})
	assert.False(t, env.Success)
	assert.Equal(t, tools.CodeValidation, env.Code)
}
