package tools

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
	"github.com/va6996/tripchat/orm"
)

type AddToWishlistInput struct {
	Destination string   `json:"destination" description:"City, region or country the user wants to visit"`
	Country     string   `json:"country,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

func (in AddToWishlistInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Destination, validation.Required, validation.Length(1, 200)),
	)
}

type AddToWishlistOutput struct {
	Entry         TripView `json:"entry"`
	AlreadyExists bool     `json:"alreadyExists"`
}

type RemoveFromWishlistInput struct {
	ID   string `json:"id,omitempty" description:"Wishlist entry id"`
	Name string `json:"name,omitempty" description:"Part of the destination name"`
}

func (in RemoveFromWishlistInput) Validate() error {
	in.ID, in.Name = strings.TrimSpace(in.ID), strings.TrimSpace(in.Name)
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, validation.Required.When(in.Name == "").Error("provide id or name")),
	)
}

type RemoveFromWishlistOutput struct {
	Removed []TripView `json:"removed"`
}

type ListWishlistInput struct{}

// WishlistTools manages wishlist entries, which are trips with the wishlist
// status and a per-user unique destination.
type WishlistTools struct {
	store TripStore
}

func NewWishlistTools(store TripStore, registry *Registry) *WishlistTools {
	t := &WishlistTools{store: store}
	if registry == nil {
		return t
	}
	Define(registry, "add_to_wishlist",
		"Add a destination to the user's wishlist. Adding the same destination twice returns the existing entry.",
		t.Add, Mutating())
	Define(registry, "list_wishlist", "List the user's wishlist.", t.List)
	Define(registry, "remove_from_wishlist",
		"Remove wishlist entries by id, or every entry whose destination contains name.",
		t.Remove, Mutating())
	return t
}

func (t *WishlistTools) Add(ctx context.Context, in *AddToWishlistInput) (*AddToWishlistOutput, error) {
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}
	destination := strings.Join(strings.Fields(in.Destination), " ")

	prefs := orm.Preferences{
		Destination:  destination,
		Destinations: []string{destination},
		Interests:    cleanList(in.Interests),
		Notes:        in.Notes,
	}
	country := in.Country
	if country == "" {
		country = destination
	}
	if name, code, ok := CountryForDestination(country); ok {
		prefs.Country, prefs.CountryISO2 = name, code.String()
	}
	if turn := TurnFromContext(ctx); !turn.Currency.IsZero() {
		prefs.Currency = turn.Currency.Currency.String()
	}

	entry := &orm.Trip{UserID: userID, Title: destination, NumberOfPeople: 1}
	entry.SetPrefs(prefs)

	saved, created, err := t.store.AddToWishlist(ctx, entry, destination)
	if err != nil {
		return nil, err
	}
	if created {
		log.Infof(ctx, "Wishlisted %s", destination)
	}
	return &AddToWishlistOutput{Entry: viewOf(saved), AlreadyExists: !created}, nil
}

func (t *WishlistTools) List(ctx context.Context, _ *ListWishlistInput) (*ListTripsOutput, error) {
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := t.store.ListTrips(ctx, userID, orm.StatusWishlist)
	if err != nil {
		return nil, err
	}
	out := &ListTripsOutput{Trips: make([]TripView, 0, len(entries))}
	for i := range entries {
		out.Trips = append(out.Trips, viewOf(&entries[i]))
	}
	out.Count = len(out.Trips)
	return out, nil
}

func (t *WishlistTools) Remove(ctx context.Context, in *RemoveFromWishlistInput) (*RemoveFromWishlistOutput, error) {
	userID, err := CallerID(ctx)
	if err != nil {
		return nil, err
	}

	id, needle := strings.TrimSpace(in.ID), strings.ToLower(strings.TrimSpace(in.Name))
	if id == "" && needle == "" {
		return nil, fmt.Errorf("%w: provide id or name", core.ErrValidation)
	}

	var targets []orm.Trip
	if id != "" {
		trip, err := t.store.GetTrip(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if trip.Status != orm.StatusWishlist {
			return nil, fmt.Errorf("%w: trip %s is not a wishlist entry", core.ErrValidation, id)
		}
		targets = append(targets, *trip)
	} else {
		entries, err := t.store.ListTrips(ctx, userID, orm.StatusWishlist)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Prefs().Destination), needle) ||
				strings.Contains(strings.ToLower(e.Title), needle) {
				targets = append(targets, e)
			}
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("%w: nothing on the wishlist matches %q", core.ErrNotFound, in.Name)
		}
	}

	out := &RemoveFromWishlistOutput{}
	for i := range targets {
		if err := t.store.DeleteTrip(ctx, userID, targets[i].ID); err != nil {
			return out, err
		}
		out.Removed = append(out.Removed, viewOf(&targets[i]))
	}
	log.Infof(ctx, "Removed %d wishlist entries", len(out.Removed))
	return out, nil
}
