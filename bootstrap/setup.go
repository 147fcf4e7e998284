// Package bootstrap wires configuration into a running application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/ringsaturn/tzf"
	"github.com/va6996/tripchat/agents"
	v1 "github.com/va6996/tripchat/apis/v1"
	"github.com/va6996/tripchat/concurrency"
	"github.com/va6996/tripchat/config"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/itinerary"
	"github.com/va6996/tripchat/log"
	"github.com/va6996/tripchat/orm"
	"github.com/va6996/tripchat/plugins/amadeus"
	"github.com/va6996/tripchat/plugins/googlemaps"
	"github.com/va6996/tripchat/plugins/llm"
	"github.com/va6996/tripchat/plugins/nager"
	"github.com/va6996/tripchat/plugins/tavily"
	"github.com/va6996/tripchat/tools"
	"gorm.io/gorm"
)

// App holds the initialized components of the application
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Store    *orm.Store
	Cache    *orm.CacheStore
	Genkit   *genkit.Genkit
	Registry *tools.Registry
	Resolver *core.Resolver
	Driver   *agents.Driver
	Location *time.Location

	maps      *concurrency.Future[*googlemaps.Client]
	timezones *concurrency.Future[itinerary.TimezoneFinder]
}

// ModelFactory builds the conversation model once the tool registry exists.
type ModelFactory func(registry *tools.Registry) agents.Model

// Setup initializes the application components based on the configuration
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	gk, model, err := llm.Init(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, gk, func(registry *tools.Registry) agents.Model {
		return llm.NewModel(gk, model, registry)
	})
}

// New wires everything except the model provider. gk may be nil when the
// model does not go through genkit.
func New(ctx context.Context, cfg *config.Config, gk *genkit.Genkit, newModel ModelFactory) (*App, error) {
	loc, err := cfg.Agent.Location()
	if err != nil {
		return nil, err
	}
	resolver, err := core.NewResolver(cfg.Currency.Default, cfg.Currency.DefaultCountry)
	if err != nil {
		return nil, fmt.Errorf("currency defaults: %w", err)
	}

	db, err := orm.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:   cfg,
		DB:       db,
		Store:    orm.NewStore(db),
		Cache:    orm.NewCacheStore(db),
		Genkit:   gk,
		Resolver: resolver,
		Location: loc,
	}

	// Both clients are expensive to build and unused by most turns.
	app.maps = concurrency.NewFuture(func(ctx context.Context) (*googlemaps.Client, error) {
		log.Infof(ctx, "Creating Google Maps client")
		return googlemaps.NewClient(cfg.GoogleMaps.APIKey, googlemaps.WithCache(app.Cache, cfg.GoogleMaps.CacheTTL))
	}, nil)
	app.timezones = concurrency.NewFuture(func(ctx context.Context) (itinerary.TimezoneFinder, error) {
		log.Infof(ctx, "Loading timezone finder")
		return tzf.NewDefaultFinder()
	}, nil)

	registry := tools.NewRegistry(gk)
	tools.NewTripTools(app.Store, registry)
	tools.NewWishlistTools(app.Store, registry)
	tools.NewCatalogTools(registry)
	tools.NewDateTools(registry)

	pipeline := itinerary.NewPipeline(&lazyGeocoder{future: app.maps}, itinerary.NewLimiter(cfg.GoogleMaps.RequestDelay))
	tools.NewItineraryTools(itinerary.NewBuilder(pipeline, app.timezones), registry)

	if cfg.Amadeus.ClientID != "" && cfg.Amadeus.ClientSecret != "" {
		client, err := amadeus.NewClient(cfg.Amadeus.ClientID, cfg.Amadeus.ClientSecret,
			cfg.Amadeus.Production, cfg.Amadeus.HotelLimit, cfg.Amadeus.Timeout)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to initialize Amadeus client: %w", err)
		}
		amadeus.NewHotelTool(client, registry)
	} else {
		log.Warnf(ctx, "AMADEUS_CLIENT_ID/AMADEUS_CLIENT_SECRET not set, search_hotels disabled")
	}

	holidays := nager.NewClient(cfg.Nager.BaseURL)
	nager.NewPublicHolidaysTool(holidays, registry)
	nager.NewLongWeekendsTool(holidays, registry)

	if cfg.Tavily.APIKey != "" {
		tavily.NewTravelInfoTool(tavily.NewClient(cfg.Tavily.APIKey, cfg.Tavily.BaseURL, cfg.Tavily.Timeout, cfg.Tavily.CacheTTL), registry)
	}

	app.Registry = registry
	app.Driver = agents.NewDriver(newModel(registry), registry, agents.Options{
		MaxTurns:        cfg.Agent.MaxTurns,
		ToolConcurrency: cfg.Agent.ToolConcurrency,
	})
	log.Infof(ctx, "Registered %d tools: %v", len(registry.Names()), registry.Names())
	return app, nil
}

// APIServer builds the HTTP surface over the app.
func (a *App) APIServer() *v1.Server {
	return v1.NewServer(v1.Deps{
		Driver:      a.Driver,
		Resolver:    a.Resolver,
		Store:       a.Store,
		Location:    a.Location,
		CORSOrigins: a.Config.Server.CORSOrigins,
	})
}

// RunCacheCleanup drops expired provider cache rows every interval until
// ctx is done.
func (a *App) RunCacheCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Cache.Cleanup(ctx); err != nil {
				log.Warnf(ctx, "Cache cleanup failed: %v", err)
			}
		}
	}
}

// Close releases the lazily built clients and the database.
func (a *App) Close() error {
	var errs []error
	if a.maps != nil {
		errs = append(errs, a.maps.Close())
	}
	if a.timezones != nil {
		errs = append(errs, a.timezones.Close())
	}
	if a.DB != nil {
		errs = append(errs, orm.Close(a.DB))
	}
	return errors.Join(errs...)
}
