package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"xenochain/native/minting"
	"xenochain/native/staking"
)

// Version is stamped at build time.
var Version = "dev"

// NewRouter builds the operational HTTP surface: health, readiness, metrics
// and a small status summary. Game mutations go through the JSON-RPC server,
// never through here.
func NewRouter(ledger *staking.Ledger, minter *minting.Engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		stats := ledger.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"version":         Version,
			"stakedMarines":   stats.StakedMarines,
			"stakedAliens":    stats.StakedAliens,
			"totalRankWeight": stats.TotalRankWeight,
			"totalEmitted":    stats.TotalEmitted.String(),
			"minted":          minter.Minted(),
			"openSlot":        minter.OpenSlot(),
			"paused":          stats.Paused,
			"rescueMode":      stats.RescueMode,
		})
	})
	return r
}
