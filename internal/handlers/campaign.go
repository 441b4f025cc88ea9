package handlers

import (
	"net/http"
	"strconv"

	sol "github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/crowdfund/internal/campaign"
	"github.com/example/crowdfund/internal/crowdfund"
	"github.com/example/crowdfund/internal/types"
	"github.com/example/crowdfund/pkg/jsonutil"
)

// CampaignHandler serves the wallet and single-campaign endpoints. Routes
// under /campaigns/{address} read the address from the chi URL parameter.
type CampaignHandler struct {
	Service *campaign.Service
	Log     *zap.Logger
}

func NewCampaignHandler(svc *campaign.Service, log *zap.Logger) *CampaignHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CampaignHandler{Service: svc, Log: log}
}

func (h *CampaignHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.Wallet(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonutil.JSON(w, http.StatusOK, info)
}

func (h *CampaignHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.Service.Initialize(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonutil.JSON(w, http.StatusOK, receipt)
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCampaignRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	receipt, err := h.Service.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonutil.JSON(w, http.StatusCreated, receipt)
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	address, err := addressParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.Service.Get(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonutil.JSON(w, http.StatusOK, snap)
}

func (h *CampaignHandler) Donate(w http.ResponseWriter, r *http.Request) {
	address, amount, ok := h.amountRequest(w, r)
	if !ok {
		return
	}
	receipt, err := h.Service.Donate(r.Context(), address, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonutil.JSON(w, http.StatusOK, receipt)
}

func (h *CampaignHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	address, amount, ok := h.amountRequest(w, r)
	if !ok {
		return
	}
	receipt, err := h.Service.Withdraw(r.Context(), address, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonutil.JSON(w, http.StatusOK, receipt)
}

func (h *CampaignHandler) Events(w http.ResponseWriter, r *http.Request) {
	address, err := addressParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 || limit > 500 {
			jsonutil.Error(w, http.StatusBadRequest, "limit must be between 0 and 500")
			return
		}
	}
	list, err := h.Service.Events(r.Context(), address, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonutil.JSON(w, http.StatusOK, map[string]interface{}{"events": list})
}

// amountRequest parses the address parameter and the amount body shared by
// donate and withdraw, writing a 400 on failure.
func (h *CampaignHandler) amountRequest(w http.ResponseWriter, r *http.Request) (sol.PublicKey, uint64, bool) {
	address, err := addressParam(r)
	if err != nil {
		writeError(w, err)
		return sol.PublicKey{}, 0, false
	}
	var req types.AmountRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return sol.PublicKey{}, 0, false
	}
	amount, err := crowdfund.ParseAmount(req.Amount.String(), req.Lamports)
	if err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return sol.PublicKey{}, 0, false
	}
	if amount == 0 {
		writeError(w, crowdfund.ErrInvalidAmount)
		return sol.PublicKey{}, 0, false
	}
	return address, amount, true
}

func addressParam(r *http.Request) (sol.PublicKey, error) {
	pk, err := sol.PublicKeyFromBase58(chi.URLParam(r, "address"))
	if err != nil {
		return sol.PublicKey{}, errInvalidAddress
	}
	return pk, nil
}
