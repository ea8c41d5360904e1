package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_cycles_total", Help: "Execution cycles by result"},
		[]string{"result"},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_cycle_duration_seconds",
			Help:    "Wall time of one pass over all active agents",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
	AgentResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_agent_results_total", Help: "Per-agent cycle results"},
		[]string{"kind", "reason"},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_decisions_total", Help: "Decisions produced by the decision engine"},
		[]string{"action"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_trades_total", Help: "Submitted swaps by final status"},
		[]string{"status"},
	)
	// Fees are denominated in the output mint's smallest unit, so totals only add up per mint.
	FeeUncollectedBaseUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_platform_fee_uncollected_base_units_total",
			Help: "Platform fee computed on trades but not collected on-chain, in output-mint base units",
		},
		[]string{"mint"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, CycleDuration, AgentResultsTotal, DecisionsTotal, TradesTotal, FeeUncollectedBaseUnits)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
