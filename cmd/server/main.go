package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/app"
	"github.com/example/crowdfund/internal/auth"
	"github.com/example/crowdfund/internal/cache"
	"github.com/example/crowdfund/internal/campaign"
	"github.com/example/crowdfund/internal/config"
	"github.com/example/crowdfund/internal/events"
	"github.com/example/crowdfund/internal/handlers"
	apihttp "github.com/example/crowdfund/internal/http"
	"github.com/example/crowdfund/internal/logging"
	"github.com/example/crowdfund/internal/rate"
)

type stores struct {
	keys interface {
		auth.APIKeyStore
		auth.APIKeyCreator
	}
	events events.Store
	checks []apihttp.Pinger
	close  func()
}

func main() {
	cfg := config.Load()
	cfg.Normalize()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	env, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open backend", zap.Error(err))
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open stores", zap.Error(err))
	}
	defer st.close()

	svc := campaign.NewService(campaign.Deps{
		Client:         env.Client,
		Cache:          cache.New[campaign.Snapshot](cfg.CacheTTL),
		Events:         st.events,
		Log:            log,
		Timeout:        cfg.RPCTimeout,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	lm := rate.NewLimiterMap(cfg.RateLimitRPM, cfg.RateLimitRPM, 5*time.Minute)
	defer lm.Stop()
	wlm := rate.NewLimiterMap(cfg.WriteLimitRPM, cfg.WriteLimitRPM, 5*time.Minute)
	defer wlm.Stop()

	deps := apihttp.Deps{
		Campaigns:    handlers.NewCampaignHandler(svc, log),
		Lookup:       handlers.NewLookupHandler(svc, lookupTimeout(cfg.RPCTimeout), log),
		Signup:       handlers.NewSignupHandler(st.keys),
		Keys:         st.keys,
		Limiter:      lm,
		WriteLimiter: wlm,
		Checks:       st.checks,
		Backend:      cfg.Backend,
		Log:          log,
	}
	if cfg.AdminToken != "" {
		deps.Admin = handlers.NewAdminHandler(st.keys, cfg.AdminToken)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      apihttp.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ConfirmTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}

// openStores connects to Mongo when MONGO_URI is set and falls back to
// in-memory stores otherwise.
func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	if cfg.MongoURI == "" {
		log.Warn("MONGO_URI is empty; api keys and events are kept in memory")
		return &stores{
			keys:   auth.NewMemoryAPIKeyStore(),
			events: events.NewMemoryStore(),
			close:  func() {},
		}, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }

	keys, err := auth.NewMongoAPIKeyStore(ctx, client, cfg.MongoDB, cfg.KeyCacheTTL)
	if err != nil {
		closeFn()
		return nil, err
	}
	ev, err := events.NewMongoStore(ctx, client, cfg.MongoDB)
	if err != nil {
		closeFn()
		return nil, err
	}
	return &stores{keys: keys, events: ev, checks: []apihttp.Pinger{ev}, close: closeFn}, nil
}
