package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/campaign"
	"github.com/example/crowdfund/internal/types"
	"github.com/example/crowdfund/pkg/jsonutil"
)

const maxLookupOwners = 100

// LookupHandler resolves a batch of owners to their campaigns.
type LookupHandler struct {
	Service *campaign.Service
	Timeout time.Duration
	Log     *zap.Logger
}

func NewLookupHandler(svc *campaign.Service, timeout time.Duration, log *zap.Logger) *LookupHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LookupHandler{Service: svc, Timeout: timeout, Log: log}
}

func (h *LookupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.LookupRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	if len(req.Owners) == 0 {
		jsonutil.Error(w, http.StatusBadRequest, "owners required")
		return
	}
	if len(req.Owners) > maxLookupOwners {
		jsonutil.Error(w, http.StatusBadRequest, "too many owners")
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	res := h.Service.Lookup(ctx, req.Owners)
	h.Log.Debug("lookup",
		zap.Int("owners", len(req.Owners)),
		zap.Int("found", len(res.Campaigns)),
		zap.Int("errors", len(res.Errors)),
	)
	jsonutil.JSON(w, http.StatusOK, res)
}
