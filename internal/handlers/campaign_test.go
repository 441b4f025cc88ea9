package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sol "github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/crowdfund/internal/campaign"
	"github.com/example/crowdfund/internal/crowdfund"
	"github.com/example/crowdfund/internal/events"
	"github.com/example/crowdfund/internal/ledger"
	"github.com/example/crowdfund/internal/solana"
)

type fixture struct {
	ledger  *ledger.Ledger
	service *campaign.Service
	router  chi.Router
}

func newService(t *testing.T, l *ledger.Ledger, lamports uint64) *campaign.Service {
	t.Helper()
	wallet := sol.NewWallet().PrivateKey
	if lamports > 0 {
		_, err := l.Airdrop(context.Background(), wallet.PublicKey(), lamports)
		require.NoError(t, err)
	}
	return campaign.NewService(campaign.Deps{Client: crowdfund.NewClient(l, wallet)})
}

func routes(svc *campaign.Service) chi.Router {
	h := NewCampaignHandler(svc, nil)
	r := chi.NewRouter()
	r.Get("/wallet", h.Wallet)
	r.Post("/initialize", h.Initialize)
	r.Post("/campaigns", h.Create)
	r.Post("/campaigns/lookup", NewLookupHandler(svc, 0, nil).ServeHTTP)
	r.Get("/campaigns/{address}", h.Get)
	r.Post("/campaigns/{address}/donate", h.Donate)
	r.Post("/campaigns/{address}/withdraw", h.Withdraw)
	r.Get("/campaigns/{address}/events", h.Events)
	return r
}

func setup(t *testing.T) *fixture {
	t.Helper()
	l := ledger.New()
	svc := newService(t, l, 10*crowdfund.LamportsPerSOL)
	return &fixture{ledger: l, service: svc, router: routes(svc)}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	rec := do(t, f.router, http.MethodPost, "/campaigns", `{"name":"Roof","description":"Fix the roof"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[campaign.Receipt](t, rec).Campaign.Address
}

func TestCampaign_Lifecycle(t *testing.T) {
	f := setup(t)

	rec := do(t, f.router, http.MethodGet, "/wallet", "")
	require.Equal(t, http.StatusOK, rec.Code)
	w := decode[campaign.Wallet](t, rec)
	assert.False(t, w.HasCampaign)
	assert.EqualValues(t, 10*crowdfund.LamportsPerSOL, w.Lamports)

	address := f.create(t)
	assert.Equal(t, w.Campaign, address)

	rec = do(t, f.router, http.MethodPost, "/campaigns/"+address+"/donate", `{"amount":"0.2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	receipt := decode[campaign.Receipt](t, rec)
	assert.NotEmpty(t, receipt.Signature)
	assert.EqualValues(t, 200_000_000, receipt.Campaign.AmountDonated)

	rec = do(t, f.router, http.MethodPost, "/campaigns/"+address+"/withdraw", `{"amount":50000000,"lamports":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 150_000_000, decode[campaign.Receipt](t, rec).Campaign.AmountDonated)

	rec = do(t, f.router, http.MethodGet, "/campaigns/"+address, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[campaign.Snapshot](t, rec)
	assert.Equal(t, "Roof", snap.Name)
	assert.Equal(t, "Fix the roof", snap.Description)
	assert.Equal(t, "0.15", snap.AmountDonatedSOL)

	rec = do(t, f.router, http.MethodGet, "/campaigns/"+address+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Events []events.Event `json:"events"`
	}](t, rec).Events
	require.Len(t, list, 3)
	assert.Equal(t, events.KindWithdraw, list[0].Kind)
	assert.Equal(t, events.KindCreate, list[2].Kind)

	rec = do(t, f.router, http.MethodGet, "/wallet", "")
	assert.True(t, decode[campaign.Wallet](t, rec).HasCampaign)
}

func TestCampaign_Initialize(t *testing.T) {
	f := setup(t)
	rec := do(t, f.router, http.MethodPost, "/initialize", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[campaign.Receipt](t, rec).Signature)
}

func TestCampaign_Errors(t *testing.T) {
	f := setup(t)
	address := f.create(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad address", http.MethodGet, "/campaigns/not-a-key", "", http.StatusBadRequest},
		{"missing campaign", http.MethodGet, "/campaigns/" + sol.NewWallet().PublicKey().String(), "", http.StatusNotFound},
		{"empty name", http.MethodPost, "/campaigns", `{"name":""}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/campaigns", `{bad`, http.StatusBadRequest},
		{"duplicate create", http.MethodPost, "/campaigns", `{"name":"again"}`, http.StatusConflict},
		{"zero amount", http.MethodPost, "/campaigns/" + address + "/donate", `{"amount":"0"}`, http.StatusBadRequest},
		{"bad amount", http.MethodPost, "/campaigns/" + address + "/donate", `{"amount":"abc"}`, http.StatusBadRequest},
		{"overdraw", http.MethodPost, "/campaigns/" + address + "/withdraw", `{"amount":"1"}`, http.StatusConflict},
		{"bad limit", http.MethodGet, "/campaigns/" + address + "/events?limit=-1", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, f.router, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCampaign_WithdrawByStranger(t *testing.T) {
	f := setup(t)
	address := f.create(t)
	rec := do(t, f.router, http.MethodPost, "/campaigns/"+address+"/donate", `{"amount":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stranger := routes(newService(t, f.ledger, crowdfund.LamportsPerSOL))
	rec = do(t, stranger, http.MethodPost, "/campaigns/"+address+"/withdraw", `{"amount":"0.5"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(pkgerrors.Wrap(pkgerrors.Wrap(solana.ErrConfirmTimeout, "sig"), "donate")))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(pkgerrors.Wrap(context.Canceled, "confirm")))
	assert.Equal(t, http.StatusNotFound, statusFor(crowdfund.ErrCampaignNotFound))
	assert.Equal(t, http.StatusBadGateway, statusFor(assert.AnError))
}
