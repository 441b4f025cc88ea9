package jsonutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/crowdfund/internal/types"
)

func TestJSON_WritesHeaderStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	type payload struct {
		Msg string `json:"msg"`
	}
	JSON(rec, http.StatusTeapot, payload{Msg: "hello"})
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("ct=%s", ct)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("code=%d", rec.Code)
	}
	var got payload
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Msg != "hello" {
		t.Fatalf("msg=%s", got.Msg)
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "campaign not found")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code=%d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"error":"campaign not found"}` {
		t.Fatalf("body=%s", body)
	}
	var resp types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error != "campaign not found" {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"roof"}`))
	if err := Decode(httptest.NewRecorder(), r, &v); err != nil || v.Name != "roof" {
		t.Fatalf("v=%+v err=%v", v, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	if err := Decode(httptest.NewRecorder(), r, &v); err == nil {
		t.Fatalf("expected error")
	}

	big := `{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	if err := Decode(httptest.NewRecorder(), r, &v); err == nil {
		t.Fatalf("expected size error")
	}
}
