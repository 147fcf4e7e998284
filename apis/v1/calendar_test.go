package v1_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/orm"
)

func saveTrip(t *testing.T, store *orm.Store, start *time.Time) *orm.Trip {
	trip := &orm.Trip{UserID: "user-1", Title: "Rajasthan", Status: orm.StatusPlanned, StartDate: start}
	trip.SetPrefs(orm.Preferences{Itinerary: &core.Itinerary{
		Title:     "Rajasthan",
		TotalDays: 2,
		Locations: []core.Location{
			{Name: "Jaipur", Coordinates: core.LatLng{Lat: 26.9124, Lng: 75.7873}},
			{Name: "Pushkar", Coordinates: core.Unresolved},
		},
		Days: []core.Day{
			{DayNumber: 1, Location: "Jaipur", Title: "Forts", Activities: core.Activities{Morning: "Amber Fort"},
				Places: []core.GeocodedPlace{{Name: "Amber Fort", Category: core.CategoryAttraction, Coordinates: core.LatLng{Lat: 26.9855, Lng: 75.8513}}}},
			{DayNumber: 2, Location: "Pushkar",
				Places: []core.GeocodedPlace{{Name: "Pushkar Lake", Category: core.CategoryAttraction, Coordinates: core.Unresolved}}},
		},
	}})
	require.NoError(t, store.CreateTrip(context.Background(), trip))
	return trip
}

func getCalendar(srv http.Handler, id, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips/"+id+"/calendar.ics", nil)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestCalendarExport(t *testing.T) {
	srv, store := newServer(t, &toolThenAnswer{})
	start := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	trip := saveTrip(t, store, &start)
	routes := srv.Routes()

	rec := getCalendar(routes, trip.ID, "user-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")

	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Day 1: Forts")
	assert.Contains(t, body, "SUMMARY:Day 2: Pushkar")
	assert.Contains(t, body, "20261120")
	assert.Contains(t, body, "20261121")
	assert.Contains(t, body, "GEO:26.912400;75.787300")
	assert.Equal(t, 1, strings.Count(body, "GEO:"))
}

func TestCalendarExport_Errors(t *testing.T) {
	srv, store := newServer(t, &toolThenAnswer{})
	routes := srv.Routes()
	undated := saveTrip(t, store, nil)

	assert.Equal(t, http.StatusUnauthorized, getCalendar(routes, undated.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, getCalendar(routes, undated.ID, "user-2").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, getCalendar(routes, undated.ID, "user-1").Code)
}
