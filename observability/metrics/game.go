package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// GameMetrics exposes the staking and minting gauges and counters.
type GameMetrics struct {
	stakedMarines   prometheus.Gauge
	stakedAliens    prometheus.Gauge
	totalRankWeight prometheus.Gauge
	emittedTotal    prometheus.Gauge
	claims          *prometheus.CounterVec
	claimPaid       *prometheus.CounterVec
	mintCommits     prometheus.Counter
	mintReveals     prometheus.Counter
	mintsStolen     prometheus.Counter
}

var (
	gameOnce     sync.Once
	gameRegistry *GameMetrics
)

// Game returns the process-wide game metrics registry.
func Game() *GameMetrics {
	gameOnce.Do(func() {
		gameRegistry = &GameMetrics{
			stakedMarines: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "game_staked_marines",
				Help: "Number of marines currently staked.",
			}),
			stakedAliens: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "game_staked_aliens",
				Help: "Number of aliens currently staked.",
			}),
			totalRankWeight: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "game_total_rank_weight",
				Help: "Sum of ranks over all staked aliens.",
			}),
			emittedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "game_emitted_tokens_total",
				Help: "SCRAP emitted by the reward schedule, in whole tokens.",
			}),
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "game_claims_total",
				Help: "Count of claim settlements by kind.",
			}, []string{"kind"}),
			claimPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "game_claim_paid_units_total",
				Help: "SCRAP paid out by claim settlements, in whole tokens.",
			}, []string{"kind"}),
			mintCommits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "game_mint_commits_total",
				Help: "Count of accepted mint commits.",
			}),
			mintReveals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "game_mint_reveals_total",
				Help: "Count of revealed mint units.",
			}),
			mintsStolen: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "game_mints_stolen_total",
				Help: "Count of revealed units redirected to a staker.",
			}),
		}
		prometheus.MustRegister(
			gameRegistry.stakedMarines,
			gameRegistry.stakedAliens,
			gameRegistry.totalRankWeight,
			gameRegistry.emittedTotal,
			gameRegistry.claims,
			gameRegistry.claimPaid,
			gameRegistry.mintCommits,
			gameRegistry.mintReveals,
			gameRegistry.mintsStolen,
		)
	})
	return gameRegistry
}

// SetStaked records the current pool sizes and weight.
func (m *GameMetrics) SetStaked(marines, aliens int, rankWeight uint64) {
	if m == nil {
		return
	}
	m.stakedMarines.Set(float64(marines))
	m.stakedAliens.Set(float64(aliens))
	m.totalRankWeight.Set(float64(rankWeight))
}

// SetEmitted records the cumulative emission total in whole tokens.
func (m *GameMetrics) SetEmitted(tokens float64) {
	if m == nil {
		return
	}
	m.emittedTotal.Set(tokens)
}

// ObserveClaim records one claim settlement.
func (m *GameMetrics) ObserveClaim(kind string, paidTokens float64) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(kind).Inc()
	m.claimPaid.WithLabelValues(kind).Add(paidTokens)
}

// ObserveCommit records one accepted commit.
func (m *GameMetrics) ObserveCommit() {
	if m == nil {
		return
	}
	m.mintCommits.Inc()
}

// ObserveReveal records revealed units and how many were stolen.
func (m *GameMetrics) ObserveReveal(units, stolen int) {
	if m == nil {
		return
	}
	m.mintReveals.Add(float64(units))
	m.mintsStolen.Add(float64(stolen))
}
