package apihttp

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/auth"
	"github.com/example/crowdfund/internal/rate"
	"github.com/example/crowdfund/pkg/jsonutil"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "req_id"
	ctxKeyAPIKeyHP  ctxKey = "api_key_hp"
)

const maxRequestIDLen = 64

// RequestID middleware injects a request id into context and response header.
// A caller-supplied X-Request-ID is kept when it is short enough.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" || len(reqID) > maxRequestIDLen {
			reqID = uuid.NewString()
		}
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID))
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// Logger middleware logs one structured line per request.
func Logger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rlw := &respLogger{ResponseWriter: w, status: http.StatusOK}
			// Auth runs further down the chain and records the key hash here.
			var hp string
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyAPIKeyHP, &hp))
			next.ServeHTTP(rlw, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rlw.status),
				zap.Int64("dur_ms", time.Since(start).Milliseconds()),
				zap.String("ip", rate.IPFromRequest(r)),
				zap.String("req_id", RequestIDFrom(r.Context())),
				zap.String("api", hp),
			)
		})
	}
}

type respLogger struct {
	http.ResponseWriter
	status int
}

func (r *respLogger) WriteHeader(code int) { r.status = code; r.ResponseWriter.WriteHeader(code) }

// CORS middleware allows cross-origin requests from browser clients.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Admin-Token, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit middleware enforces per-client rate limiting. Authenticated
// requests are keyed by API key, the rest by IP.
func RateLimit(lm *rate.LimiterMap) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lm.Allow(rate.ClientKey(r, keyHashFrom(r.Context()))) {
				jsonutil.Error(w, http.StatusTooManyRequests, "rate limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Auth middleware validates the X-API-Key header using the provided store.
func Auth(store auth.APIKeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				jsonutil.Error(w, http.StatusUnauthorized, "missing api key")
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			ok, err := store.Validate(ctx, key)
			if err != nil {
				jsonutil.Error(w, http.StatusForbidden, "invalid api key")
				return
			}
			if !ok {
				jsonutil.Error(w, http.StatusForbidden, "invalid or inactive api key")
				return
			}
			hp := auth.HashPrefix(key)
			if slot, ok := r.Context().Value(ctxKeyAPIKeyHP).(*string); ok {
				*slot = hp
			}
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyAPIKeyHP, &hp))
			next.ServeHTTP(w, r)
		})
	}
}

func keyHashFrom(ctx context.Context) string {
	if hp, ok := ctx.Value(ctxKeyAPIKeyHP).(*string); ok && hp != nil {
		return *hp
	}
	return ""
}
