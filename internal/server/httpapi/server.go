// Package httpapi exposes the user service over HTTP. It owns routing,
// request decoding, bearer-token authentication, and the mapping from the
// error taxonomy to status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkarlovs/uservault/internal/logging"
	"github.com/dkarlovs/uservault/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// userService is the surface of services.UserService the handlers need.
type userService interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, email string) error
	DeleteUser(ctx context.Context, email string) error
	UpdatePreferences(ctx context.Context, email string, preferences map[string]any) error
}

// pinger reports storage reachability for the health endpoint.
type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	address string
	users   userService
	store   pinger
	logger  logging.Logger
}

func NewServer(address string, logger logging.Logger, users userService, store pinger) *Server {
	return &Server{
		address: address,
		users:   users,
		store:   store,
		logger:  logger.With("module", "http_server"),
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", s.register)
		r.Post("/sessions", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/users/me", s.getSelf)
			r.Patch("/users/me/preferences", s.updatePreferences)
			r.Delete("/users/me", s.deleteSelf)
			r.Delete("/sessions", s.logout)
		})
	})

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
