package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
	"github.com/va6996/tripchat/orm"
)

// TripStore is the persistence the trip and wishlist tools need.
// *orm.Store satisfies it.
type TripStore interface {
	CreateTrip(ctx context.Context, trip *orm.Trip) error
	GetTrip(ctx context.Context, userID, id string) (*orm.Trip, error)
	ListTrips(ctx context.Context, userID string, statuses ...orm.TripStatus) ([]orm.Trip, error)
	UpdateTrip(ctx context.Context, userID, id string, mutate func(*orm.Trip) error) (*orm.Trip, error)
	DeleteTrip(ctx context.Context, userID, id string) error
	AddToWishlist(ctx context.Context, entry *orm.Trip, destination string) (*orm.Trip, bool, error)
}

// TripView is what the model sees of a stored trip.
type TripView struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Status         string   `json:"status"`
	StartDate      string   `json:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty"`
	Country        string   `json:"country,omitempty"`
	CountryISO2    string   `json:"countryIso2,omitempty"`
	Destinations   []string `json:"destinations,omitempty"`
	Days           int      `json:"days,omitempty"`
	Nights         int      `json:"nights,omitempty"`
	TripType       string   `json:"tripType,omitempty"`
	NumberOfPeople int      `json:"numberOfPeople"`
	TotalBudget    *float64 `json:"totalBudget,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	HasItinerary   bool     `json:"hasItinerary"`
}

func viewOf(t *orm.Trip) TripView {
	p := t.Prefs()
	v := TripView{
		ID:             t.ID,
		Title:          t.Title,
		Status:         string(t.Status),
		Country:        p.Country,
		CountryISO2:    p.CountryISO2,
		Destinations:   p.Destinations,
		Days:           p.Days,
		Nights:         p.Nights,
		TripType:       t.TripType,
		NumberOfPeople: t.NumberOfPeople,
		TotalBudget:    t.TotalBudget,
		Currency:       p.Currency,
		Interests:      p.Interests,
		Notes:          p.Notes,
		HasItinerary:   p.Itinerary != nil,
	}
	if t.StartDate != nil {
		v.StartDate = core.DateOf(*t.StartDate).String()
	}
	if t.EndDate != nil {
		v.EndDate = core.DateOf(*t.EndDate).String()
	}
	return v
}

type CreateTripInput struct {
	Title          string          `json:"title" description:"Short trip title"`
	Country        string          `json:"country,omitempty" description:"Destination country name"`
	Destinations   []string        `json:"destinations,omitempty" description:"Cities or regions in visiting order"`
	StartDate      string          `json:"startDate,omitempty" description:"YYYY-MM-DD"`
	EndDate        string          `json:"endDate,omitempty" description:"YYYY-MM-DD"`
	TripType       string          `json:"tripType,omitempty" description:"leisure, business, honeymoon, family..."`
	NumberOfPeople int             `json:"numberOfPeople,omitempty"`
	Status         string          `json:"status,omitempty" description:"planned (default) or completed"`
	TotalBudget    float64         `json:"totalBudget,omitempty" description:"In the conversation currency"`
	Interests      []string        `json:"interests,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Itinerary      *core.Itinerary `json:"itinerary,omitempty" description:"Itinerary returned by create_itinerary"`
}

func (in CreateTripInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.NumberOfPeople, validation.Min(0), validation.Max(100)),
		validation.Field(&in.TotalBudget, validation.Min(0.0)),
		validation.Field(&in.Status, validation.In("", "planned", "completed").
			Error("must be planned or completed; use add_to_wishlist for wishlist entries")),
	)
}

type ListTripsInput struct {
	Status string `json:"status,omitempty" description:"planned, completed or wishlist; empty lists everything"`
}

type ListTripsOutput struct {
	Trips []TripView `json:"trips"`
	Count int        `json:"count"`
}

type UpdateTripInput struct {
	TripID         string   `json:"tripId"`
	Title          string   `json:"title,omitempty"`
	StartDate      string   `json:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty"`
	Status         string   `json:"status,omitempty"`
	TripType       string   `json:"tripType,omitempty"`
	NumberOfPeople int      `json:"numberOfPeople,omitempty"`
	TotalBudget    *float64 `json:"totalBudget,omitempty"`
	Destinations   []string `json:"destinations,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

func (in UpdateTripInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.TripID, validation.Required),
		validation.Field(&in.NumberOfPeople, validation.Min(0), validation.Max(100)),
	)
}

type TripIDInput struct {
	TripID string `json:"tripId"`
}

func (in TripIDInput) Validate() error {
	return validation.ValidateStruct(&in, validation.Field(&in.TripID, validation.Required))
}

type DeleteTripOutput struct {
	Deleted bool   `json:"deleted"`
	TripID  string `json:"tripId"`
}

// TripTools persists trips for the calling user.
type TripTools struct {
	store TripStore
}

func NewTripTools(store TripStore, registry *Registry) *TripTools {
	t := &TripTools{store: store}
	if registry == nil {
		return t
	}
	Define(registry, "create_trip",
		"Save a planned or completed trip. Country, day and night counts are derived from destinations, dates or the itinerary when omitted.",
		t.Create, Mutating())
	Define(registry, "list_trips", "List the user's saved trips, newest first.", t.List)
	Define(registry, "update_trip", "Change fields of a saved trip. Omitted fields are left unchanged.", t.Update, Mutating())
	Define(registry, "delete_trip", "Delete a saved trip by id.", t.Delete, Mutating())
	return t
}

func (t *TripTools) Create(ctx context.Context, in *CreateTripInput) (*TripView, error) {
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}
	turn := TurnFromContext(ctx)

	status := orm.StatusPlanned
	if in.Status != "" {
		if status, err = orm.ParseTripStatus(in.Status); err != nil {
			return nil, err
		}
	}

	trip := &orm.Trip{
		UserID:         userID,
		Title:          strings.TrimSpace(in.Title),
		TripType:       in.TripType,
		NumberOfPeople: lo.Ternary(in.NumberOfPeople > 0, in.NumberOfPeople, 1),
		Status:         status,
	}
	if in.TotalBudget > 0 {
		budget := in.TotalBudget
		trip.TotalBudget = &budget
	}

	prefs := orm.Preferences{
		Destinations: cleanList(in.Destinations),
		Interests:    cleanList(in.Interests),
		Notes:        in.Notes,
		Itinerary:    in.Itinerary,
	}
	if !turn.Currency.IsZero() {
		prefs.Currency = turn.Currency.Currency.String()
	}
	if len(prefs.Destinations) == 0 && in.Itinerary != nil {
		prefs.Destinations = lo.Map(in.Itinerary.Locations, func(l core.Location, _ int) string { return l.Name })
	}
	if len(prefs.Destinations) > 0 {
		prefs.Destination = prefs.Destinations[0]
	}
	prefs.Country, prefs.CountryISO2 = deriveCountry(in, prefs.Destinations)

	start, end, err := tripDates(turn.Dates, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	trip.StartDate, trip.EndDate = start, end
	prefs.Days, prefs.Nights = tripLength(start, end, in.Itinerary)

	trip.SetPrefs(prefs)
	if err := t.store.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}
	log.Infof(ctx, "Created trip %s (%s) for %s", trip.ID, trip.Title, prefs.Country)
	v := viewOf(trip)
	return &v, nil
}

func (t *TripTools) List(ctx context.Context, in *ListTripsInput) (*ListTripsOutput, error) {
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}
	var statuses []orm.TripStatus
	if in.Status != "" {
		st, err := orm.ParseTripStatus(in.Status)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	trips, err := t.store.ListTrips(ctx, userID, statuses...)
	if err != nil {
		return nil, err
	}
	views := lo.Map(trips, func(tr orm.Trip, _ int) TripView { return viewOf(&tr) })
	return &ListTripsOutput{Trips: views, Count: len(views)}, nil
}

func (t *TripTools) Update(ctx context.Context, in *UpdateTripInput) (*TripView, error) {
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}
	dates := TurnFromContext(ctx).Dates

	updated, err := t.store.UpdateTrip(ctx, userID, in.TripID, func(trip *orm.Trip) error {
		if in.Title != "" {
			trip.Title = strings.TrimSpace(in.Title)
		}
		if in.Status != "" {
			st, err := orm.ParseTripStatus(in.Status)
			if err != nil {
				return err
			}
			trip.Status = st
		}
		if in.TripType != "" {
			trip.TripType = in.TripType
		}
		if in.NumberOfPeople > 0 {
			trip.NumberOfPeople = in.NumberOfPeople
		}
		if in.TotalBudget != nil {
			trip.TotalBudget = in.TotalBudget
		}

		prefs := trip.Prefs()
		if len(in.Destinations) > 0 {
			prefs.Destinations = cleanList(in.Destinations)
			prefs.Destination = prefs.Destinations[0]
		}
		if len(in.Interests) > 0 {
			prefs.Interests = cleanList(in.Interests)
		}
		if in.Notes != "" {
			prefs.Notes = in.Notes
		}

		startIn, endIn := in.StartDate, in.EndDate
		if startIn == "" && trip.StartDate != nil {
			startIn = core.DateOf(*trip.StartDate).String()
		}
		if endIn == "" && trip.EndDate != nil {
			endIn = core.DateOf(*trip.EndDate).String()
		}
		if in.StartDate != "" || in.EndDate != "" {
			start, end, err := tripDates(dates, startIn, endIn)
			if err != nil {
				return err
			}
			trip.StartDate, trip.EndDate = start, end
			prefs.Days, prefs.Nights = tripLength(start, end, prefs.Itinerary)
		}
		trip.SetPrefs(prefs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof(ctx, "Updated trip %s", updated.ID)
	v := viewOf(updated)
	return &v, nil
}

func (t *TripTools) Delete(ctx context.Context, in *TripIDInput) (*DeleteTripOutput, error) {
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.store.DeleteTrip(ctx, userID, in.TripID); err != nil {
		return nil, err
	}
	log.Infof(ctx, "Deleted trip %s", in.TripID)
	return &DeleteTripOutput{Deleted: true, TripID: in.TripID}, nil
}

func deriveCountry(in *CreateTripInput, destinations []string) (string, string) {
	if in.Country != "" {
		if code, ok := core.CountryISO2(in.Country); ok {
			return core.CountryName(code), code.String()
		}
		return in.Country, ""
	}
	for _, d := range destinations {
		if name, code, ok := CountryForDestination(d); ok {
			return name, code.String()
		}
	}
	if in.Itinerary != nil && in.Itinerary.Country != "" {
		if code, ok := core.CountryISO2(in.Itinerary.Country); ok {
			return core.CountryName(code), code.String()
		}
		return in.Itinerary.Country, ""
	}
	return "", ""
}

// tripDates parses optional start and end dates. Past dates are allowed since
// completed trips are recorded too.
func tripDates(v *core.DateValidator, startIn, endIn string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startIn != "" {
		d, ok := v.Parse(startIn)
		if !ok {
			return nil, nil, fmt.Errorf("%w: invalid start date %q", core.ErrValidation, startIn)
		}
		t := d.Time()
		start = &t
	}
	if endIn != "" {
		d, ok := v.Parse(endIn)
		if !ok {
			return nil, nil, fmt.Errorf("%w: invalid end date %q", core.ErrValidation, endIn)
		}
		t := d.Time()
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("%w: end date must not be before start date", core.ErrValidation)
	}
	return start, end, nil
}

func tripLength(start, end *time.Time, it *core.Itinerary) (days, nights int) {
	if start != nil && end != nil {
		nights = core.DateOf(*start).DaysUntil(core.DateOf(*end))
		return nights + 1, nights
	}
	if it != nil {
		days = it.TotalDays
		if days == 0 {
			days = len(it.Days)
		}
		if days > 0 {
			nights = days - 1
		}
	}
	return days, nights
}

func cleanList(in []string) []string {
	out := lo.Filter(lo.Map(in, func(s string, _ int) string { return strings.TrimSpace(s) }),
		func(s string, _ int) bool { return s != "" })
	if len(out) == 0 {
		return nil
	}
	return lo.Uniq(out)
}
