package handlers

import (
	"net/http"
	"time"

	sol "github.com/gagliardetto/solana-go"

	"github.com/example/crowdfund/internal/auth"
	"github.com/example/crowdfund/pkg/jsonutil"
)

// SignupHandler issues an API key without admin auth. For testing only.
type SignupHandler struct {
	Store auth.APIKeyCreator
}

func NewSignupHandler(store auth.APIKeyCreator) *SignupHandler {
	return &SignupHandler{Store: store}
}

// signupRequest: Owner, when given, must be a wallet public key.
type signupRequest struct {
	Owner string `json:"owner"`
	Email string `json:"email"`
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req signupRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.Owner != "" {
		if _, err := sol.PublicKeyFromBase58(req.Owner); err != nil {
			jsonutil.Error(w, http.StatusBadRequest, "owner must be a wallet public key")
			return
		}
	}
	key := newAPIKey()
	if err := h.Store.Create(r.Context(), key, true, req.Owner); err != nil {
		jsonutil.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonutil.JSON(w, http.StatusOK, keyResponse{
		Key:     key,
		Active:  true,
		Owner:   req.Owner,
		Email:   req.Email,
		Created: time.Now().UTC().Format(time.RFC3339),
	})
}
