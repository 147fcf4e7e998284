package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/tripchat/concurrency"
	logcontext "github.com/va6996/tripchat/context"
	"github.com/va6996/tripchat/core"
)

// fakeGeocoder answers from fixed tables and records every call.
type fakeGeocoder struct {
	mu       sync.Mutex
	text     map[string]core.LatLng
	geocode  map[string]core.LatLng
	failText bool
	calls    []string
	inFlight int
	maxIn    int
}

func (f *fakeGeocoder) enter(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.inFlight++
	if f.inFlight > f.maxIn {
		f.maxIn = f.inFlight
	}
}

func (f *fakeGeocoder) leave() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
}

func (f *fakeGeocoder) TextSearch(ctx context.Context, query string, category core.PlaceCategory, region string) (*core.GeocodedPlace, error) {
	f.enter("text:" + query)
	defer f.leave()
	time.Sleep(time.Millisecond)
	if f.failText {
		return nil, fmt.Errorf("%w: quota", core.ErrProvider)
	}
	if c, ok := f.text[query]; ok {
		return &core.GeocodedPlace{Name: query, Category: category, Coordinates: c, ProviderID: "t-" + query}, nil
	}
	return nil, nil
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (*core.GeocodedPlace, error) {
	f.enter("geo:" + address)
	defer f.leave()
	if c, ok := f.geocode[address]; ok {
		return &core.GeocodedPlace{Name: address, Coordinates: c}, nil
	}
	return nil, nil
}

var (
	kyoto   = core.LatLng{Lat: 35.0116, Lng: 135.7681}
	osaka   = core.LatLng{Lat: 34.6937, Lng: 135.5023}
	fushimi = core.LatLng{Lat: 34.9671, Lng: 135.7727}
)

func TestResolveItineraryFallbacks(t *testing.T) {
	geo := &fakeGeocoder{
		text: map[string]core.LatLng{
			"Kyoto, Japan":         kyoto,
			"Fushimi Inari, Kyoto": fushimi,
		},
		geocode: map[string]core.LatLng{
			"Osaka": osaka,
		},
	}
	p := NewPipeline(geo, nil)

	days := []DayInput{
		{Location: "Kyoto", Places: []PlaceInput{
			{Name: "Fushimi Inari", Category: "attraction"},
			{Name: "Secret Tea House", Category: "food"},
		}},
		{Location: "Osaka"},
		{Location: "Atlantis", Places: []PlaceInput{{Name: "Lost Temple"}}},
	}
	res, stats := p.ResolveItinerary(context.Background(), []string{"Kyoto", "kyoto "}, days, Hints{Country: "Japan", Region: "JP"})

	require.Len(t, res.Locations, 3)
	assert.Equal(t, kyoto, res.Locations[0].Coordinates)
	assert.Equal(t, osaka, res.Locations[1].Coordinates, "geocode fallback")
	assert.Equal(t, core.Unresolved, res.Locations[2].Coordinates)

	require.Len(t, res.Days, 3)
	assert.Equal(t, 1, res.Days[0].DayNumber)
	assert.Equal(t, 3, res.Days[2].DayNumber)

	places := res.Days[0].Places
	require.Len(t, places, 2)
	assert.Equal(t, fushimi, places[0].Coordinates)
	assert.False(t, places[0].Inherited)
	assert.Equal(t, kyoto, places[1].Coordinates, "miss inherits the day location")
	assert.True(t, places[1].Inherited)

	lost := res.Days[2].Places[0]
	assert.False(t, lost.Coordinates.IsResolved(), "unresolved day location cannot be inherited")

	assert.Equal(t, Stats{
		LocationsResolved: 2,
		LocationsTotal:    3,
		PlacesResolved:    1,
		PlacesInherited:   1,
		PlacesTotal:       3,
	}, stats)
}

func TestResolveItineraryProviderFailureDegrades(t *testing.T) {
	geo := &fakeGeocoder{
		failText: true,
		geocode:  map[string]core.LatLng{"Kyoto": kyoto},
	}
	p := NewPipeline(geo, nil)

	res, stats := p.ResolveItinerary(context.Background(), []string{"Kyoto"},
		[]DayInput{{Location: "Kyoto", Places: []PlaceInput{{Name: "Nishiki Market"}}}}, Hints{})

	assert.Equal(t, kyoto, res.Locations[0].Coordinates)
	assert.True(t, res.Days[0].Places[0].Inherited)
	assert.Equal(t, 1, stats.LocationsResolved)
}

func TestResolveItinerarySequentialAndPaced(t *testing.T) {
	geo := &fakeGeocoder{}
	delay := 20 * time.Millisecond
	p := NewPipeline(geo, NewLimiter(delay))

	start := time.Now()
	p.ResolveItinerary(context.Background(), []string{"A", "B"}, nil, Hints{})
	elapsed := time.Since(start)

	// Two locations, two calls each, first call is free.
	assert.Len(t, geo.calls, 4)
	assert.GreaterOrEqual(t, elapsed, 3*delay-5*time.Millisecond)
	assert.Equal(t, 1, geo.maxIn)
}

func TestResolveItinerarySerializedPerSession(t *testing.T) {
	geo := &fakeGeocoder{}
	p := NewPipeline(geo, nil)
	ctx := logcontext.WithSessionID(context.Background(), "sess-1")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.ResolveItinerary(ctx, []string{fmt.Sprintf("City %d", i)}, nil, Hints{})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, geo.maxIn)
}

func TestResolveItineraryCancelledContext(t *testing.T) {
	geo := &fakeGeocoder{text: map[string]core.LatLng{"Kyoto": kyoto}}
	p := NewPipeline(geo, NewLimiter(time.Hour))
	// Exhaust the burst so the next Wait would block.
	p.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, stats := p.ResolveItinerary(ctx, []string{"Kyoto"}, nil, Hints{})
	assert.Equal(t, core.Unresolved, res.Locations[0].Coordinates)
	assert.Equal(t, 0, stats.LocationsResolved)
	assert.Empty(t, geo.calls)
}

type fixedZone string

func (z fixedZone) GetTimezoneName(lng, lat float64) string { return string(z) }

func TestBuilder(t *testing.T) {
	geo := &fakeGeocoder{text: map[string]core.LatLng{"Kyoto, Japan": kyoto}}
	tz := concurrency.NewFuture(func(ctx context.Context) (TimezoneFinder, error) {
		return fixedZone("Asia/Tokyo"), nil
	}, nil)
	b := NewBuilder(NewPipeline(geo, nil), tz)
	n := 0
	b.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }

	it, stats := b.Build(context.Background(), BuildRequest{
		Country:   "Japan",
		Locations: []string{"Kyoto", "Atlantis"},
		Days:      []DayInput{{Location: "Kyoto", Title: "Temples"}},
	})

	assert.Equal(t, "Trip to Kyoto", it.Title)
	assert.Equal(t, "id-3", it.ID)
	assert.Equal(t, 1, it.TotalDays)
	assert.Equal(t, "Asia/Tokyo", it.Locations[0].Timezone)
	assert.Empty(t, it.Locations[1].Timezone, "no zone for unresolved location")
	assert.Equal(t, 1, stats.LocationsResolved)
	assert.True(t, strings.HasPrefix(geo.calls[0], "text:Kyoto"))
}

func TestBuilderTimezoneFailure(t *testing.T) {
	geo := &fakeGeocoder{text: map[string]core.LatLng{"Kyoto": kyoto}}
	tz := concurrency.NewFuture(func(ctx context.Context) (TimezoneFinder, error) {
		return nil, errors.New("no data")
	}, nil)
	b := NewBuilder(NewPipeline(geo, nil), tz)

	it, _ := b.Build(context.Background(), BuildRequest{Locations: []string{"Kyoto"}})
	assert.Equal(t, kyoto, it.Locations[0].Coordinates)
	assert.Empty(t, it.Locations[0].Timezone)
}
