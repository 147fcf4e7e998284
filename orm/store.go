package orm

import (
	"context"
	"errors"
	"fmt"

	"github.com/va6996/tripchat/concurrency"
	"github.com/va6996/tripchat/core"
	"gorm.io/gorm"
)

// Store is the persistence gateway used by the tools. Writes to one trip
// are serialized; the last writer wins.
type Store struct {
	db    *gorm.DB
	locks *concurrency.KeyedMutex
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, locks: concurrency.NewKeyedMutex()}
}

// DB exposes the handle for callers that need raw access (calendar export).
func (s *Store) DB() *gorm.DB { return s.db }

// CreateTrip inserts trip. A trip created straight into the wishlist takes
// its destination's key and fails if that destination is already there.
func (s *Store) CreateTrip(ctx context.Context, trip *Trip) error {
	if trip.UserID == "" {
		return core.ErrNotAuthenticated
	}
	db := s.db.WithContext(ctx)
	if trip.Status == StatusWishlist {
		defer s.locks.Lock(wishlistLock(trip.UserID, wishlistKeyOf(trip)))()
	}
	if err := claimWishlistKey(db, trip); err != nil {
		return err
	}
	return duplicateAsValidation(CreateTrip(db, trip))
}

func (s *Store) GetTrip(ctx context.Context, userID, id string) (*Trip, error) {
	if userID == "" {
		return nil, core.ErrNotAuthenticated
	}
	return GetTrip(s.db.WithContext(ctx), userID, id)
}

func (s *Store) ListTrips(ctx context.Context, userID string, statuses ...TripStatus) ([]Trip, error) {
	if userID == "" {
		return nil, core.ErrNotAuthenticated
	}
	return ListTrips(s.db.WithContext(ctx), userID, statuses...)
}

// UpdateTrip loads the trip, applies mutate and saves it while holding the
// trip's lock.
func (s *Store) UpdateTrip(ctx context.Context, userID, id string, mutate func(*Trip) error) (*Trip, error) {
	if userID == "" {
		return nil, core.ErrNotAuthenticated
	}
	unlock := s.locks.Lock("trip:" + id)
	defer unlock()

	db := s.db.WithContext(ctx)
	trip, err := GetTrip(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(trip); err != nil {
		return nil, err
	}
	if trip.Status == StatusWishlist {
		defer s.locks.Lock(wishlistLock(userID, wishlistKeyOf(trip)))()
	}
	if err := claimWishlistKey(db, trip); err != nil {
		return nil, err
	}
	if err := duplicateAsValidation(UpdateTrip(db, trip)); err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *Store) DeleteTrip(ctx context.Context, userID, id string) error {
	if userID == "" {
		return core.ErrNotAuthenticated
	}
	unlock := s.locks.Lock("trip:" + id)
	defer unlock()
	return DeleteTrip(s.db.WithContext(ctx), userID, id)
}

// AddToWishlist inserts entry unless the user already wishlisted the same
// destination, in which case the existing row is returned with created=false.
func (s *Store) AddToWishlist(ctx context.Context, entry *Trip, destination string) (*Trip, bool, error) {
	if entry.UserID == "" {
		return nil, false, core.ErrNotAuthenticated
	}
	key := WishlistKey(destination)
	if key == "" {
		return nil, false, fmt.Errorf("%w: destination is required", core.ErrValidation)
	}
	unlock := s.locks.Lock(wishlistLock(entry.UserID, key))
	defer unlock()

	db := s.db.WithContext(ctx)
	if existing, err := FindWishlistEntry(db, entry.UserID, key); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, false, err
	}

	entry.Status = StatusWishlist
	entry.WishlistKey = &key
	if err := CreateTrip(db, entry); err != nil {
		// Another process won the race; the unique index is authoritative.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := FindWishlistEntry(db, entry.UserID, key)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return entry, true, nil
}

func wishlistLock(userID, key string) string {
	return "wishlist:" + userID + ":" + key
}

// claimWishlistKey keeps WishlistKey in step with Status. Only wishlist
// trips hold a key, and a key held by another trip of the same user is a
// conflict.
func claimWishlistKey(db *gorm.DB, trip *Trip) error {
	if trip.Status != StatusWishlist {
		trip.WishlistKey = nil
		return nil
	}
	key := wishlistKeyOf(trip)
	if key == "" {
		return fmt.Errorf("%w: a wishlist entry needs a destination", core.ErrValidation)
	}
	existing, err := FindWishlistEntry(db, trip.UserID, key)
	switch {
	case err == nil && existing.ID != trip.ID:
		return fmt.Errorf("%w: %q is already on the wishlist as %s", core.ErrValidation, key, existing.ID)
	case err != nil && !errors.Is(err, core.ErrNotFound):
		return err
	}
	trip.WishlistKey = &key
	return nil
}

func duplicateAsValidation(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: destination is already on the wishlist", core.ErrValidation)
	}
	return err
}
