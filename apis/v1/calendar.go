package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/go-chi/chi/v5"
	logcontext "github.com/va6996/tripchat/context"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
	"github.com/va6996/tripchat/orm"
)

func (s *Server) calendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := logcontext.UserIDFromContext(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "missing "+headerUserID)
		return
	}

	trip, err := s.store.GetTrip(ctx, userID, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "trip not found")
		return
	case err != nil:
		log.Errorf(ctx, "Loading trip for calendar: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not load trip")
		return
	}

	cal, err := TripCalendar(trip, s.now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.ics"`, trip.ID))
	_, _ = io.WriteString(w, cal.Serialize())
}

// TripCalendar renders one all-day event per itinerary day, starting on
// the trip's start date. Unresolved coordinates are left out.
func TripCalendar(trip *orm.Trip, now time.Time) (*ics.Calendar, error) {
	it := trip.Prefs().Itinerary
	if it == nil || len(it.Days) == 0 {
		return nil, fmt.Errorf("%w: trip has no itinerary", core.ErrValidation)
	}
	if trip.StartDate == nil {
		return nil, fmt.Errorf("%w: trip has no start date", core.ErrValidation)
	}
	start := core.DateOf(*trip.StartDate)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tripchat//itinerary//EN")
	cal.SetXWRCalName(trip.Title)

	for _, day := range it.Days {
		date := start.AddDays(day.DayNumber - 1).Time()
		event := cal.AddEvent(fmt.Sprintf("%s-day-%d@tripchat", trip.ID, day.DayNumber))
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(date)
		event.SetAllDayEndAt(date.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("Day %d: %s", day.DayNumber, orDefault(day.Title, day.Location)))
		event.SetLocation(day.Location)
		if loc, ok := it.LocationByName(day.Location); ok && loc.Coordinates.IsResolved() {
			event.SetProperty(ics.ComponentPropertyGeo, fmt.Sprintf("%f;%f", loc.Coordinates.Lat, loc.Coordinates.Lng))
		}
		event.SetDescription(dayDescription(day))
	}
	return cal, nil
}

func orDefault(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}

func dayDescription(day core.Day) string {
	var b strings.Builder
	for _, part := range []struct{ label, text string }{
		{"Morning", day.Activities.Morning},
		{"Afternoon", day.Activities.Afternoon},
		{"Evening", day.Activities.Evening},
	} {
		if part.text != "" {
			fmt.Fprintf(&b, "%s: %s\n", part.label, part.text)
		}
	}
	for _, p := range day.Places {
		if p.Coordinates.IsResolved() {
			fmt.Fprintf(&b, "- %s (%s) %s\n", p.Name, p.Category, p.Coordinates)
		} else {
			fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Category)
		}
	}
	return strings.TrimSpace(b.String())
}
