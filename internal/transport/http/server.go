package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/agent"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/dispatch"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

type Concierge interface {
	HandleMessage(ctx context.Context, phone, text string) (agent.Reply, error)
}

type Dispatcher interface {
	CreateClient(ctx context.Context, c core.Client) (core.Client, error)
	DeleteClient(ctx context.Context, id string) error
	CreateDriver(ctx context.Context, d core.Driver) (core.Driver, error)
	DeleteDriver(ctx context.Context, id string) error
	UpdateDriverStatus(ctx context.Context, id string, status core.DriverStatus) (core.Driver, error)
	CreateTrip(ctx context.Context, t core.Trip) (core.Trip, error)
	UpdateTrip(ctx context.Context, id string, patch dispatch.TripPatch) (core.Trip, error)
	AssignDriver(ctx context.Context, tripID, driverID string) (core.Trip, error)
	AddDriverNote(ctx context.Context, driverID, note, noteType string) error
	AddClientPreference(ctx context.Context, clientID, preference string) error
}

// Deps is everything the API reads from or writes through.
type Deps struct {
	Concierge Concierge
	Dispatch  Dispatcher
	Clients   core.ClientsRepository
	Drivers   core.DriversRepository
	Trips     core.TripsRepository
	Messages  core.MessagesRepository
	Profiles  core.ProfilesRepository
	Memory    core.Memory

	HistoryLimit int
}

type Server struct {
	router *chi.Mux
	deps   Deps
	srv    *http.Server
}

func New(ctx context.Context, addr string, deps Deps) *Server {
	r := chi.NewRouter()
	s := &Server{router: r, deps: deps}

	base := log.WithComponent(ctx, "http")
	r.Use(middleware.RequestID)
	r.Use(withLogger(base))
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)

		r.Get("/clients", s.handleListClients)
		r.Post("/clients", s.handleCreateClient)
		r.Get("/clients/{id}", s.handleGetClient)
		r.Delete("/clients/{id}", s.handleDeleteClient)

		r.Get("/drivers", s.handleListDrivers)
		r.Post("/drivers", s.handleCreateDriver)
		r.Patch("/drivers/{id}/status", s.handleDriverStatus)
		r.Delete("/drivers/{id}", s.handleDeleteDriver)

		r.Get("/trips", s.handleListTrips)
		r.Post("/trips", s.handleCreateTrip)
		r.Patch("/trips/{id}", s.handleUpdateTrip)
		r.Post("/trips/{id}/assign", s.handleAssignDriver)

		r.Get("/messages/{participantId}", s.handleListMessages)
		r.Post("/messages", s.handleCreateMessage)

		r.Route("/rag", func(r chi.Router) {
			r.Get("/stats", s.handleRagStats)
			r.Get("/client/{id}", s.handleClientHistory)
			r.Post("/client/{id}/search", s.handleClientSearch)
			r.Post("/client/{id}/preference", s.handleClientPreference)
			r.Get("/driver/{id}", s.handleDriverHistory)
			r.Post("/driver/{id}/search", s.handleDriverSearch)
			r.Post("/driver/{id}/note", s.handleDriverNote)
			r.Delete("/client/{id}", s.handlePurge(core.EntityClient))
			r.Delete("/driver/{id}", s.handlePurge(core.EntityDriver))
		})
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.srv.Addr).Msg("starting http api")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// withLogger installs the component logger on each request context, tagged
// with the chi request id.
func withLogger(base context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.FromCtx(base).With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
		})
	}
}

func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.FromCtx(r.Context()).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("access")
		}()

		next.ServeHTTP(ww, r)
	})
}
