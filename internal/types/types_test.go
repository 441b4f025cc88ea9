package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNowRFC3339_Format(t *testing.T) {
	v := NowRFC3339()
	if _, err := time.Parse(time.RFC3339, v); err != nil {
		t.Fatalf("not RFC3339: %v", err)
	}
}

func TestAmountRequest_AcceptsStringsAndNumbers(t *testing.T) {
	var a AmountRequest
	if err := json.Unmarshal([]byte(`{"amount":"0.2"}`), &a); err != nil {
		t.Fatalf("string: %v", err)
	}
	if a.Amount.String() != "0.2" || a.Lamports {
		t.Fatalf("unexpected decode: %+v", a)
	}

	var b AmountRequest
	if err := json.Unmarshal([]byte(`{"amount":200000000,"lamports":true}`), &b); err != nil {
		t.Fatalf("number: %v", err)
	}
	if b.Amount.String() != "200000000" || !b.Lamports {
		t.Fatalf("unexpected decode: %+v", b)
	}

	var c AmountRequest
	if err := json.Unmarshal([]byte(`{"amount":"lots"}`), &c); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}
