package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(s.opts.ClientOrigin),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limiter := newIPRateLimiter(rate.Limit(s.opts.AuthRateLimit), s.opts.AuthRateBurst)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/register", s.handleRegister)
			r.With(limiter.Middleware).Post("/login", s.handleLogin)
			r.With(s.authenticate).Get("/me", s.handleMe)
		})

		r.Route("/data", func(r chi.Router) {
			r.With(s.authenticate).Get("/manager/history", s.handleManagerHistory)
			r.Get("/gameweek/current", s.handleCurrentGameweek)
			r.Get("/fixtures/previous", s.handlePreviousFixtures)
			r.Get("/fixtures/upcoming", s.handleUpcomingFixtures)
			r.Get("/bootstrap", s.handleBootstrap)
			r.Get("/news", s.handleNews)
		})

		// paths used by the existing client bundle
		r.Route("/fpl", func(r chi.Router) {
			r.With(s.authenticate).Get("/manager/history", s.handleManagerHistory)
			r.Get("/gameweek/current-number", s.handleCurrentGameweek)
			r.Get("/fixtures/previous-gameweek", s.handlePreviousFixtures)
			r.Get("/fixtures/live-gameweek", s.handleUpcomingFixtures)
			r.Get("/bootstrap-static", s.handleBootstrap)
			r.Get("/news", s.handleNews)
		})

		r.With(s.authenticate).Get("/predictions/latest", s.handleLatestPredictions)

		r.NotFound(s.notFound)
		r.MethodNotAllowed(s.notFound)
	})

	if s.opts.WebDir != "" {
		r.NotFound(spaHandler(s.opts.WebDir, s.notFound))
	} else {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("API Running Successfully"))
		})
		r.NotFound(s.notFound)
	}

	return r
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Not Found - "+r.URL.RequestURI())
}

func splitOrigins(v string) []string {
	var origins []string
	for _, p := range strings.Split(v, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
