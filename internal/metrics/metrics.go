// Package metrics exposes Prometheus metrics for the trade lifecycle:
//   - bot_buys_total{result}          – buy submissions (created|merged|failed|rejected)
//   - bot_monitor_ticks_total         – monitoring evaluations performed
//   - bot_exits_total{reason}         – sells triggered, split by threshold
//   - bot_ratelimit_deferrals_total   – ticks skipped by the shared rate limiter
//   - bot_active_trades               – currently monitored trades (gauge)
//
// Registered in init() and served at /metrics in the Prometheus text
// exposition format.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	buys = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_buys_total",
			Help: "Buy submissions by outcome",
		},
		[]string{"result"},
	)

	monitorTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_monitor_ticks_total",
			Help: "Monitoring evaluations performed",
		},
	)

	exits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_exits_total",
			Help: "Sells triggered, split by threshold reason",
		},
		[]string{"reason"},
	)

	rateLimitDeferrals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_ratelimit_deferrals_total",
			Help: "Monitoring ticks deferred by the shared rate limiter",
		},
	)

	activeTrades = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_active_trades",
			Help: "Trades currently being monitored",
		},
	)
)

func init() {
	prometheus.MustRegister(buys, monitorTicks, exits, rateLimitDeferrals, activeTrades)
}

// IncBuy counts a buy submission outcome: created, merged, failed or rejected.
func IncBuy(result string) { buys.WithLabelValues(result).Inc() }

// IncMonitorTick counts one monitoring evaluation.
func IncMonitorTick() { monitorTicks.Inc() }

// IncExit counts a triggered sell by threshold reason.
func IncExit(reason string) { exits.WithLabelValues(reason).Inc() }

// IncRateLimitDeferral counts a tick skipped because the limiter denied it.
func IncRateLimitDeferral() { rateLimitDeferrals.Inc() }

// SetActiveTrades reports the size of the live monitoring task set.
func SetActiveTrades(n int) { activeTrades.Set(float64(n)) }
