package apihttp

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/auth"
	"github.com/example/crowdfund/internal/handlers"
	"github.com/example/crowdfund/internal/rate"
	"github.com/example/crowdfund/internal/types"
	"github.com/example/crowdfund/pkg/jsonutil"
)

// Pinger is anything /healthz should check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the handlers and middleware state behind the router. Admin and
// Signup are optional; a nil Keys store disables API key auth.
type Deps struct {
	Campaigns    *handlers.CampaignHandler
	Lookup       *handlers.LookupHandler
	Admin        *handlers.AdminHandler
	Signup       *handlers.SignupHandler
	Keys         auth.APIKeyStore
	Limiter      *rate.LimiterMap
	WriteLimiter *rate.LimiterMap
	Checks       []Pinger
	Backend      string
	Log          *zap.Logger
}

// NewRouter wires routes and middlewares.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(d.Log))
	r.Use(CORS)
	if d.Limiter != nil {
		r.Use(RateLimit(d.Limiter))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		checks := d.Checks
		if d.Keys != nil {
			checks = append([]Pinger{d.Keys}, checks...)
		}
		for _, c := range checks {
			if err := c.Ping(r.Context()); err != nil {
				d.Log.Warn("health_check_failed", zap.Error(err))
				jsonutil.JSON(w, http.StatusInternalServerError, types.HealthResponse{Status: "unhealthy", Backend: d.Backend, Time: types.NowRFC3339()})
				return
			}
		}
		jsonutil.JSON(w, http.StatusOK, types.HealthResponse{Status: "ok", Backend: d.Backend, Time: types.NowRFC3339()})
	})

	r.Route("/api", func(api chi.Router) {
		if d.Keys != nil {
			api.Use(Auth(d.Keys))
		}
		api.Get("/wallet", d.Campaigns.Wallet)
		api.Post("/campaigns/lookup", d.Lookup.ServeHTTP)
		api.Get("/campaigns/{address}", d.Campaigns.Get)
		api.Get("/campaigns/{address}/events", d.Campaigns.Events)

		api.Group(func(wr chi.Router) {
			if d.WriteLimiter != nil {
				wr.Use(RateLimit(d.WriteLimiter))
			}
			wr.Post("/initialize", d.Campaigns.Initialize)
			wr.Post("/campaigns", d.Campaigns.Create)
			wr.Post("/campaigns/{address}/donate", d.Campaigns.Donate)
			wr.Post("/campaigns/{address}/withdraw", d.Campaigns.Withdraw)
		})
	})

	if d.Admin != nil {
		r.Post("/admin/create-key", d.Admin.ServeHTTP)
	}
	if d.Signup != nil {
		r.Post("/public/signup", d.Signup.ServeHTTP)
	}

	return r
}
