// Package v1 is the HTTP surface of the assistant: the SSE chat endpoint,
// its Connect streaming twin, calendar export and health.
package v1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/va6996/tripchat/agents"
	"github.com/va6996/tripchat/concurrency"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/orm"
)

// Deps are the collaborators of a Server.
type Deps struct {
	Driver      *agents.Driver
	Resolver    *core.Resolver
	Store       *orm.Store
	Location    *time.Location
	CORSOrigins []string
	// Now overrides the clock used for date validation.
	Now func() time.Time
}

type Server struct {
	driver   *agents.Driver
	resolver *core.Resolver
	store    *orm.Store
	location *time.Location
	origins  []string
	now      func() time.Time
	sessions *concurrency.KeyedMutex
}

func NewServer(d Deps) *Server {
	s := &Server{
		driver:   d.Driver,
		resolver: d.Resolver,
		store:    d.Store,
		location: d.Location,
		origins:  d.CORSOrigins,
		now:      d.Now,
		sessions: concurrency.NewKeyedMutex(),
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestContext)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(newCORSHandler(s.origins))

	r.Get("/healthz", s.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.chat)
		r.Get("/trips/{id}/calendar.ics", s.calendar)
	})

	path, handler := s.connectHandler()
	r.Handle(path, handler)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dates returns a validator pinned to the server clock and timezone.
func (s *Server) dates() *core.DateValidator {
	v := core.NewDateValidator(s.location)
	v.Now = s.now
	return v
}
