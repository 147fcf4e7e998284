package orm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/va6996/tripchat/core"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TripStatus string

const (
	StatusPlanned   TripStatus = "planned"
	StatusCompleted TripStatus = "completed"
	StatusWishlist  TripStatus = "wishlist"
)

// ParseTripStatus accepts the three known statuses, case-insensitively.
func ParseTripStatus(s string) (TripStatus, error) {
	switch st := TripStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPlanned, StatusCompleted, StatusWishlist:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown trip status %q", core.ErrValidation, s)
	}
}

// PreferencesVersion is the current layout of the preferences blob.
const PreferencesVersion = 2

// Preferences is the free-form part of a trip. Version 0 rows predate the
// structured layout and are upgraded when read.
type Preferences struct {
	Version      int             `json:"version"`
	Country      string          `json:"country,omitempty"`
	CountryISO2  string          `json:"countryIso2,omitempty"`
	Destinations []string        `json:"destinations,omitempty"`
	Days         int             `json:"days,omitempty"`
	Nights       int             `json:"nights,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	Interests    []string        `json:"interests,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Destination  string          `json:"destination,omitempty"`
	Itinerary    *core.Itinerary `json:"itinerary,omitempty"`
}

// Upgrade brings an older blob to PreferencesVersion.
func (p Preferences) Upgrade() Preferences {
	if p.Version >= PreferencesVersion {
		return p
	}
	if len(p.Destinations) == 0 && p.Destination != "" {
		p.Destinations = []string{p.Destination}
	}
	if p.Destination == "" && len(p.Destinations) > 0 {
		p.Destination = p.Destinations[0]
	}
	if p.CountryISO2 == "" && p.Country != "" {
		if code, ok := core.CountryISO2(p.Country); ok {
			p.CountryISO2 = code.String()
		}
	}
	if p.Days == 0 && p.Itinerary != nil {
		p.Days = p.Itinerary.TotalDays
	}
	p.Version = PreferencesVersion
	return p
}

// Trip is a planned, completed or wishlisted trip. Wishlist rows carry a
// WishlistKey that is unique per user.
type Trip struct {
	ID             string                          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string                          `gorm:"not null;uniqueIndex:idx_trips_user_wishlist,priority:1" json:"userId"`
	Title          string                          `json:"title"`
	StartDate      *time.Time                      `json:"startDate,omitempty"`
	EndDate        *time.Time                      `json:"endDate,omitempty"`
	TripType       string                          `json:"tripType,omitempty"`
	NumberOfPeople int                             `gorm:"default:1" json:"numberOfPeople"`
	Status         TripStatus                      `gorm:"index;not null" json:"status"`
	Preferences    datatypes.JSONType[Preferences] `json:"preferences"`
	TotalBudget    *float64                        `json:"totalBudget,omitempty"`
	WishlistKey    *string                         `gorm:"uniqueIndex:idx_trips_user_wishlist,priority:2" json:"-"`
	CreatedAt      time.Time                       `json:"createdAt"`
	UpdatedAt      time.Time                       `json:"updatedAt"`
}

// BeforeCreate assigns the UUID.
func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// AfterFind upgrades legacy preference blobs in memory.
func (t *Trip) AfterFind(tx *gorm.DB) error {
	prefs := t.Preferences.Data()
	if prefs.Version < PreferencesVersion {
		t.Preferences = datatypes.NewJSONType(prefs.Upgrade())
	}
	return nil
}

// Prefs is a shortcut for t.Preferences.Data().
func (t *Trip) Prefs() Preferences {
	return t.Preferences.Data()
}

// SetPrefs stores p at the current version.
func (t *Trip) SetPrefs(p Preferences) {
	p.Version = PreferencesVersion
	t.Preferences = datatypes.NewJSONType(p)
}

// WishlistKey normalizes a destination for the per-user uniqueness rule.
func WishlistKey(destination string) string {
	return strings.ToLower(strings.Join(strings.Fields(destination), " "))
}

// wishlistKeyOf is the key a trip would hold as a wishlist entry: its main
// destination, else the key it already holds, else its title.
func wishlistKeyOf(t *Trip) string {
	if key := WishlistKey(t.Prefs().Destination); key != "" {
		return key
	}
	if t.WishlistKey != nil && *t.WishlistKey != "" {
		return *t.WishlistKey
	}
	return WishlistKey(t.Title)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: trip", core.ErrNotFound)
	default:
		return err
	}
}

// CreateTrip inserts a trip and writes back its ID.
func CreateTrip(db *gorm.DB, trip *Trip) error {
	if trip.UserID == "" {
		return core.ErrNotAuthenticated
	}
	return db.Create(trip).Error
}

// GetTrip loads a trip owned by userID.
func GetTrip(db *gorm.DB, userID, id string) (*Trip, error) {
	var trip Trip
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&trip).Error
	if err != nil {
		return nil, translate(err)
	}
	return &trip, nil
}

// ListTrips returns the user's trips, newest first, optionally filtered.
func ListTrips(db *gorm.DB, userID string, statuses ...TripStatus) ([]Trip, error) {
	var trips []Trip
	q := db.Where("user_id = ?", userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Order("created_at DESC").Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

// UpdateTrip saves every column of an existing trip.
func UpdateTrip(db *gorm.DB, trip *Trip) error {
	res := db.Model(&Trip{}).
		Where("id = ? AND user_id = ?", trip.ID, trip.UserID).
		Select("*").Omit("id", "user_id", "created_at").
		Updates(trip)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: trip %s", core.ErrNotFound, trip.ID)
	}
	return nil
}

// DeleteTrip removes a trip owned by userID.
func DeleteTrip(db *gorm.DB, userID, id string) error {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&Trip{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: trip %s", core.ErrNotFound, id)
	}
	return nil
}

// FindWishlistEntry looks up a wishlist row by its normalized key.
func FindWishlistEntry(db *gorm.DB, userID, key string) (*Trip, error) {
	var trip Trip
	err := db.Where("user_id = ? AND wishlist_key = ? AND status = ?", userID, key, StatusWishlist).First(&trip).Error
	if err != nil {
		return nil, translate(err)
	}
	return &trip, nil
}
