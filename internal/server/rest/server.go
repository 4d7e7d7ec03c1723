// Package rest exposes the JSON HTTP API on a chi router.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/logging"
	"github.com/dmitrijs2005/fplassistant/internal/server/fixtures"
	"github.com/dmitrijs2005/fplassistant/internal/server/models"
	"github.com/dmitrijs2005/fplassistant/internal/server/news"
	"github.com/dmitrijs2005/fplassistant/internal/server/services"
	"github.com/go-playground/validator/v10"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	IsSpecialUser(user *models.User) bool
}

type ManagerService interface {
	History(ctx context.Context, user *models.User) (*services.ManagerHistory, error)
}

// LeagueData is the league API surface served without transformation.
type LeagueData interface {
	CurrentGameweek(ctx context.Context) (int, error)
	Bootstrap(ctx context.Context) ([]byte, error)
}

type FixtureService interface {
	Previous(ctx context.Context) (*fixtures.Previous, error)
	Upcoming(ctx context.Context) (*fixtures.Upcoming, error)
}

type NewsSource interface {
	Items(ctx context.Context) []news.Item
}

type PredictionStore interface {
	Latest(ctx context.Context) (json.RawMessage, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Users       UserService
	Managers    ManagerService
	League      LeagueData
	Fixtures    FixtureService
	News        NewsSource
	Predictions PredictionStore
}

// Options tune the HTTP surface.
type Options struct {
	Addr          string
	ClientOrigin  string
	WebDir        string
	AuthRateLimit float64
	AuthRateBurst int
	// TrustProxy applies X-Forwarded-For / X-Real-IP before rate limiting.
	TrustProxy bool
}

type Server struct {
	deps     Deps
	opts     Options
	logger   logging.Logger
	validate *validator.Validate
	handler  http.Handler
}

func NewServer(deps Deps, opts Options, l logging.Logger) *Server {
	s := &Server{
		deps:     deps,
		opts:     opts,
		logger:   l.With("module", "http_server"),
		validate: newValidator(),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
