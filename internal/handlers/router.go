package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/metrics"
	"github.com/ukydev/engineeye/internal/middleware"
)

// RouterConfig collects everything NewRouter mounts.
type RouterConfig struct {
	Metrics  *metrics.Metrics
	Auth     *middleware.AuthMiddleware
	Users    *AuthHandler
	Vehicles *VehicleHandler
	Forum    *ForumHandler
	Chat     *ChatHandler
	// Health reports whether the backing store is reachable. Nil means
	// always healthy.
	Health func(ctx context.Context) error
}

// NewRouter builds the HTTP handler of the API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Observe(cfg.Metrics))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperr.Write(w, r, apperr.NotFound("no route for "+r.Method+" "+r.URL.Path))
	})

	r.Get("/health", health(cfg.Health))
	r.Handle("/metrics", cfg.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(cfg.Auth.Authenticate)
		cfg.Users.Routes(api)
		cfg.Vehicles.Routes(api)
		cfg.Forum.Routes(api)
		cfg.Chat.Routes(api)
	})

	return r
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				apperr.Write(w, r, apperr.StoreUnavailable("database unreachable", err))
				return
			}
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
	}
}
