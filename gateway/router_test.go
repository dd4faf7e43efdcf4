package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"xenochain/native/minting"
	"xenochain/native/staking"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ledger, err := staking.NewLedger(staking.DefaultParams())
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	minter, err := minting.NewEngine(minting.DefaultParams())
	if err != nil {
		t.Fatalf("new minter: %v", err)
	}
	return NewRouter(ledger, minter)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status: got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Fatalf("healthz body: got %q", w.Body.String())
	}
}

func TestStatusSummary(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status code: got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	for _, key := range []string{"version", "stakedMarines", "stakedAliens", "minted", "openSlot"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("status missing %q: %v", key, body)
		}
	}
	if body["openSlot"].(float64) != 1 {
		t.Fatalf("open slot: got %v want 1", body["openSlot"])
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status: got %d", w.Code)
	}
}
