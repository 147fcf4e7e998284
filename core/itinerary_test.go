package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnresolvedSentinel(t *testing.T) {
	assert.False(t, Unresolved.IsResolved())
	assert.True(t, LatLng{Lat: 48.8566, Lng: 2.3522}.IsResolved())
	assert.Equal(t, "unresolved", Unresolved.String())

	b, err := json.Marshal(GeocodedPlace{Name: "Nowhere", Coordinates: Unresolved})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"resolved":false`)
}

func TestParsePlaceCategory(t *testing.T) {
	assert.Equal(t, CategoryStay, ParsePlaceCategory("Hotel"))
	assert.Equal(t, CategoryFood, ParsePlaceCategory("food"))
	assert.Equal(t, CategoryAttraction, ParsePlaceCategory("museum"))
	assert.Equal(t, CategoryActivity, ParsePlaceCategory("kayaking"))
}

func TestLocationByName(t *testing.T) {
	it := Itinerary{Locations: []Location{{ID: "1", Name: "Kyoto"}}}
	loc, ok := it.LocationByName("kyoto")
	require.True(t, ok)
	assert.Equal(t, "1", loc.ID)

	_, ok = it.LocationByName("Osaka")
	assert.False(t, ok)
}
