package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
	"googlemaps.github.io/maps"
)

// Cache persists provider answers between requests. Misses are cached too,
// as a JSON null.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Client handles Google Maps API requests
type Client struct {
	MapsClient *maps.Client
	cache      Cache
	cacheTTL   time.Duration
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL  string
	cache    Cache
	cacheTTL time.Duration
}

// WithBaseURL points the SDK at another host, used by tests.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithCache enables the response cache.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(o *options) { o.cache, o.cacheTTL = c, ttl }
}

// NewClient creates a new Google Maps API client
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google maps API key is required")
	}
	o := options{cacheTTL: 24 * time.Hour}
	for _, opt := range opts {
		opt(&o)
	}

	mapsOpts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		mapsOpts = append(mapsOpts, maps.WithBaseURL(o.baseURL))
	}
	c, err := maps.NewClient(mapsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	return &Client{
		MapsClient: c,
		cache:      o.cache,
		cacheTTL:   o.cacheTTL,
	}, nil
}

// placeType maps an itinerary category to the Places type filter.
func placeType(category core.PlaceCategory) maps.PlaceType {
	switch category {
	case core.CategoryStay:
		return maps.PlaceTypeLodging
	case core.CategoryFood:
		return maps.PlaceTypeRestaurant
	case core.CategoryAttraction:
		return maps.PlaceTypeTouristAttraction
	default:
		return ""
	}
}

// TextSearch runs a Places text search. A nil place with a nil error is a
// miss.
func (c *Client) TextSearch(ctx context.Context, query string, category core.PlaceCategory, region string) (*core.GeocodedPlace, error) {
	if c.MapsClient == nil {
		return nil, fmt.Errorf("%w: maps client not initialized", core.ErrProvider)
	}

	req := &maps.TextSearchRequest{
		Query:  query,
		Type:   placeType(category),
		Region: strings.ToLower(region),
	}
	key := fmt.Sprintf("gmaps:text:%s|%s|%s", strings.ToLower(query), req.Type, req.Region)

	return c.cached(ctx, key, func() (*core.GeocodedPlace, error) {
		resp, err := c.MapsClient.TextSearch(ctx, req)
		if err != nil {
			if isZeroResults(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: text search %q: %v", core.ErrProvider, query, err)
		}
		if len(resp.Results) == 0 {
			return nil, nil
		}
		r := resp.Results[0]
		return &core.GeocodedPlace{
			Name:     r.Name,
			Category: category,
			Coordinates: core.LatLng{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Address:    r.FormattedAddress,
			ProviderID: r.PlaceID,
		}, nil
	})
}

// Geocode retrieves the coordinates for a free-form address.
func (c *Client) Geocode(ctx context.Context, address string) (*core.GeocodedPlace, error) {
	if c.MapsClient == nil {
		return nil, fmt.Errorf("%w: maps client not initialized", core.ErrProvider)
	}

	key := "gmaps:geocode:" + strings.ToLower(address)
	return c.cached(ctx, key, func() (*core.GeocodedPlace, error) {
		results, err := c.MapsClient.Geocode(ctx, &maps.GeocodingRequest{Address: address})
		if err != nil {
			if isZeroResults(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: geocode %q: %v", core.ErrProvider, address, err)
		}
		if len(results) == 0 {
			return nil, nil
		}
		r := results[0]
		return &core.GeocodedPlace{
			Name: address,
			Coordinates: core.LatLng{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Address:    r.FormattedAddress,
			ProviderID: r.PlaceID,
		}, nil
	})
}

func (c *Client) cached(ctx context.Context, key string, fetch func() (*core.GeocodedPlace, error)) (*core.GeocodedPlace, error) {
	if c.cache != nil {
		if raw, ok := c.cache.Get(ctx, key); ok {
			var place *core.GeocodedPlace
			if err := json.Unmarshal(raw, &place); err == nil {
				log.Debugf(ctx, "Maps cache hit for %s", key)
				return place, nil
			}
		}
	}

	place, err := fetch()
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		raw, _ := json.Marshal(place)
		if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
			log.Warnf(ctx, "Failed to cache %s: %v", key, err)
		}
	}
	return place, nil
}

func isZeroResults(err error) bool {
	return strings.Contains(err.Error(), "ZERO_RESULTS")
}
