package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/example/crowdfund/internal/auth"
	"github.com/example/crowdfund/pkg/jsonutil"
)

// AdminHandler provides admin-only endpoints like creating API keys.
type AdminHandler struct {
	Store      auth.APIKeyCreator
	AdminToken string
}

func NewAdminHandler(store auth.APIKeyCreator, adminToken string) *AdminHandler {
	return &AdminHandler{Store: store, AdminToken: adminToken}
}

// createKeyRequest: an empty Key is replaced with a random one.
type createKeyRequest struct {
	Key   string `json:"key"`
	Owner string `json:"owner"`
}

type keyResponse struct {
	Key     string `json:"key"`
	Active  bool   `json:"active"`
	Owner   string `json:"owner,omitempty"`
	Email   string `json:"email,omitempty"`
	Created string `json:"created_at"`
}

// ServeHTTP handles POST /admin/create-key
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.AdminToken == "" || r.Header.Get("X-Admin-Token") != h.AdminToken {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createKeyRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	key := req.Key
	if key == "" {
		key = newAPIKey()
	}
	if err := h.Store.Create(r.Context(), key, true, req.Owner); err != nil {
		jsonutil.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonutil.JSON(w, http.StatusOK, keyResponse{
		Key:     key,
		Active:  true,
		Owner:   req.Owner,
		Created: time.Now().UTC().Format(time.RFC3339),
	})
}

// newAPIKey returns 32 random bytes, hex encoded.
func newAPIKey() string {
	var b [32]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
