package tools_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	logcontext "github.com/va6996/tripchat/context"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/testutils"
	"github.com/va6996/tripchat/tools"
)

func userCtx(userID string) context.Context {
	return testTurn(logcontext.WithUserID(context.Background(), userID))
}

func TestTripTools_CreateDerivesFields(t *testing.T) {
	store := testutils.SetupTestStore(t)
	trips := tools.NewTripTools(store, nil)
	ctx := userCtx("user-1")

	view, err := trips.Create(ctx, &tools.CreateTripInput{
		Title:        "Temples and tea",
		Destinations: []string{"Kyoto", " Tokyo ", "Kyoto", ""},
		StartDate:    "2026-11-01",
		EndDate:      "Nov 5 2026",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "planned", view.Status)
	assert.Equal(t, "Japan", view.Country)
	assert.Equal(t, "JP", view.CountryISO2)
	assert.Equal(t, []string{"Kyoto", "Tokyo"}, view.Destinations)
	assert.Equal(t, "2026-11-01", view.StartDate)
	assert.Equal(t, "2026-11-05", view.EndDate)
	assert.Equal(t, 5, view.Days)
	assert.Equal(t, 4, view.Nights)
	assert.Equal(t, 1, view.NumberOfPeople)
	assert.Equal(t, "INR", view.Currency)
}

func TestTripTools_CreateFromItinerary(t *testing.T) {
	store := testutils.SetupTestStore(t)
	trips := tools.NewTripTools(store, nil)

	it := &core.Itinerary{
		Country:   "Portugal",
		TotalDays: 3,
		Locations: []core.Location{{Name: "Lisbon"}, {Name: "Sintra"}},
	}
	view, err := trips.Create(userCtx("user-1"), &tools.CreateTripInput{Title: "Portugal", Itinerary: it})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lisbon", "Sintra"}, view.Destinations)
	assert.Equal(t, "PT", view.CountryISO2)
	assert.Equal(t, 3, view.Days)
	assert.Equal(t, 2, view.Nights)
	assert.True(t, view.HasItinerary)
}

func TestTripTools_CreateRejects(t *testing.T) {
	store := testutils.SetupTestStore(t)
	trips := tools.NewTripTools(store, nil)

	_, err := trips.Create(testTurn(context.Background()), &tools.CreateTripInput{Title: "x"})
	assert.ErrorIs(t, err, core.ErrNotAuthenticated)

	_, err = trips.Create(userCtx("u"), &tools.CreateTripInput{Title: "x", StartDate: "2026-11-05", EndDate: "2026-11-01"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = trips.Create(userCtx("u"), &tools.CreateTripInput{Title: "x", StartDate: "someday"})
	assert.ErrorIs(t, err, core.ErrValidation)

	assert.Error(t, tools.CreateTripInput{Title: "x", Status: "wishlist"}.Validate())
	assert.Error(t, tools.CreateTripInput{}.Validate())
}

func TestTripTools_ListUpdateDelete(t *testing.T) {
	store := testutils.SetupTestStore(t)
	trips := tools.NewTripTools(store, nil)
	ctx := userCtx("user-1")

	created, err := trips.Create(ctx, &tools.CreateTripInput{Title: "Rome", Destinations: []string{"Rome"}})
	require.NoError(t, err)
	_, err = trips.Create(userCtx("user-2"), &tools.CreateTripInput{Title: "Not mine"})
	require.NoError(t, err)

	list, err := trips.List(ctx, &tools.ListTripsInput{})
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.ID, list.Trips[0].ID)

	budget := 1500.0
	updated, err := trips.Update(ctx, &tools.UpdateTripInput{
		TripID:      created.ID,
		Status:      "completed",
		StartDate:   "2025-05-01",
		EndDate:     "2025-05-04",
		TotalBudget: &budget,
		Notes:       "loved it",
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, "Rome", updated.Title)
	assert.Equal(t, 3, updated.Nights)
	assert.Equal(t, "loved it", updated.Notes)
	require.NotNil(t, updated.TotalBudget)
	assert.Equal(t, 1500.0, *updated.TotalBudget)

	completed, err := trips.List(ctx, &tools.ListTripsInput{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, 1, completed.Count)

	_, err = trips.Update(userCtx("user-2"), &tools.UpdateTripInput{TripID: created.ID, Title: "stolen"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = trips.List(ctx, &tools.ListTripsInput{Status: "someday"})
	assert.ErrorIs(t, err, core.ErrValidation)

	out, err := trips.Delete(ctx, &tools.TripIDInput{TripID: created.ID})
	require.NoError(t, err)
	assert.True(t, out.Deleted)

	_, err = trips.Delete(ctx, &tools.TripIDInput{TripID: created.ID})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestWishlistTools(t *testing.T) {
	store := testutils.SetupTestStore(t)
	wishlist := tools.NewWishlistTools(store, nil)
	ctx := userCtx("user-1")

	first, err := wishlist.Add(ctx, &tools.AddToWishlistInput{Destination: "Bali"})
	require.NoError(t, err)
	assert.False(t, first.AlreadyExists)
	assert.Equal(t, "wishlist", first.Entry.Status)
	assert.Equal(t, "ID", first.Entry.CountryISO2)

	again, err := wishlist.Add(ctx, &tools.AddToWishlistInput{Destination: "  bali "})
	require.NoError(t, err)
	assert.True(t, again.AlreadyExists)
	assert.Equal(t, first.Entry.ID, again.Entry.ID)

	_, err = wishlist.Add(ctx, &tools.AddToWishlistInput{Destination: "Cape Town"})
	require.NoError(t, err)

	list, err := wishlist.List(ctx, &tools.ListWishlistInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)

	removed, err := wishlist.Remove(ctx, &tools.RemoveFromWishlistInput{Name: "CAPE"})
	require.NoError(t, err)
	require.Len(t, removed.Removed, 1)
	assert.Equal(t, "Cape Town", removed.Removed[0].Title)

	_, err = wishlist.Remove(ctx, &tools.RemoveFromWishlistInput{Name: "Paris"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	removed, err = wishlist.Remove(ctx, &tools.RemoveFromWishlistInput{ID: first.Entry.ID})
	require.NoError(t, err)
	assert.Len(t, removed.Removed, 1)

	list, err = wishlist.List(ctx, &tools.ListWishlistInput{})
	require.NoError(t, err)
	assert.Zero(t, list.Count)

	assert.Error(t, tools.RemoveFromWishlistInput{}.Validate())
}

func TestWishlistTools_RemoveByIDRejectsPlannedTrip(t *testing.T) {
	store := testutils.SetupTestStore(t)
	trips := tools.NewTripTools(store, nil)
	wishlist := tools.NewWishlistTools(store, nil)
	ctx := userCtx("user-1")

	trip, err := trips.Create(ctx, &tools.CreateTripInput{Title: "Goa"})
	require.NoError(t, err)

	_, err = wishlist.Remove(ctx, &tools.RemoveFromWishlistInput{ID: trip.ID})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestWishlistTools_RemoveRejectsBlankName(t *testing.T) {
	store := testutils.SetupTestStore(t)
	wishlist := tools.NewWishlistTools(store, nil)
	ctx := userCtx("user-1")

	for _, dest := range []string{"Paris", "Kyoto", "Lima"} {
		_, err := wishlist.Add(ctx, &tools.AddToWishlistInput{Destination: dest})
		require.NoError(t, err)
	}

	in := &tools.RemoveFromWishlistInput{Name: "   "}
	assert.Error(t, in.Validate())
	_, err := wishlist.Remove(ctx, in)
	assert.ErrorIs(t, err, core.ErrValidation)

	list, err := wishlist.List(ctx, &tools.ListWishlistInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Count)
}

func TestTripTools_StatusChangesKeepWishlistUnique(t *testing.T) {
	store := testutils.SetupTestStore(t)
	trips := tools.NewTripTools(store, nil)
	wishlist := tools.NewWishlistTools(store, nil)
	ctx := userCtx("user-1")

	// Out of the wishlist: the destination can be wishlisted again.
	paris, err := wishlist.Add(ctx, &tools.AddToWishlistInput{Destination: "Paris"})
	require.NoError(t, err)
	_, err = trips.Update(ctx, &tools.UpdateTripInput{TripID: paris.Entry.ID, Status: "planned"})
	require.NoError(t, err)

	readded, err := wishlist.Add(ctx, &tools.AddToWishlistInput{Destination: "Paris"})
	require.NoError(t, err)
	assert.False(t, readded.AlreadyExists)
	assert.Equal(t, "wishlist", readded.Entry.Status)

	// Into the wishlist: the trip claims its destination.
	rome, err := trips.Create(ctx, &tools.CreateTripInput{Title: "Rome", Destinations: []string{"Rome"}})
	require.NoError(t, err)
	_, err = trips.Update(ctx, &tools.UpdateTripInput{TripID: rome.ID, Status: "wishlist"})
	require.NoError(t, err)

	again, err := wishlist.Add(ctx, &tools.AddToWishlistInput{Destination: "rome"})
	require.NoError(t, err)
	assert.True(t, again.AlreadyExists)
	assert.Equal(t, rome.ID, again.Entry.ID)

	// A second Paris trip cannot join the wishlist next to the first.
	second, err := trips.Create(ctx, &tools.CreateTripInput{Title: "Paris again", Destinations: []string{"Paris"}})
	require.NoError(t, err)
	_, err = trips.Update(ctx, &tools.UpdateTripInput{TripID: second.ID, Status: "wishlist"})
	assert.ErrorIs(t, err, core.ErrValidation)

	list, err := wishlist.List(ctx, &tools.ListWishlistInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
}

func TestWishlistTools_ConcurrentAdds(t *testing.T) {
	store := testutils.SetupTestStore(t)
	wishlist := tools.NewWishlistTools(store, nil)
	ctx := userCtx("user-1")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := wishlist.Add(ctx, &tools.AddToWishlistInput{Destination: "Lisbon"})
			if assert.NoError(t, err) && !out.AlreadyExists {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}
