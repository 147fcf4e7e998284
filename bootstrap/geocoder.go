package bootstrap

import (
	"context"
	"fmt"

	"github.com/va6996/tripchat/concurrency"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/plugins/googlemaps"
)

// lazyGeocoder builds the Maps client on the first lookup. A missing API
// key surfaces as a provider error, which the pipeline treats as a miss.
type lazyGeocoder struct {
	future *concurrency.Future[*googlemaps.Client]
}

func (g *lazyGeocoder) client(ctx context.Context) (*googlemaps.Client, error) {
	c, err := g.future.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProvider, err)
	}
	return c, nil
}

func (g *lazyGeocoder) TextSearch(ctx context.Context, query string, category core.PlaceCategory, region string) (*core.GeocodedPlace, error) {
	c, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.TextSearch(ctx, query, category, region)
}

func (g *lazyGeocoder) Geocode(ctx context.Context, address string) (*core.GeocodedPlace, error) {
	c, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.Geocode(ctx, address)
}
