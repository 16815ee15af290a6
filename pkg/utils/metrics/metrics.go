package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by command and interaction counters
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the process metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Commands            *prometheus.CounterVec
	Interactions        *prometheus.CounterVec
	RosterPlayers       prometheus.Gauge
	RosterJoins         prometheus.Counter
	RosterLeaves        prometheus.Counter
	RosterFetchFailures prometheus.Counter
}

// New creates metrics on a private registry so that tests can build several
// instances without colliding on the global one.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bailiff_commands_total",
			Help: "Slash commands handled, by command and outcome",
		}, []string{"command", "outcome"}),
		Interactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bailiff_interactions_total",
			Help: "Button interactions handled, by action and outcome",
		}, []string{"action", "outcome"}),
		RosterPlayers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bailiff_roster_players",
			Help: "Players observed by the last successful roster fetch",
		}),
		RosterJoins: factory.NewCounter(prometheus.CounterOpts{
			Name: "bailiff_roster_joins_total",
			Help: "Players reported as joined",
		}),
		RosterLeaves: factory.NewCounter(prometheus.CounterOpts{
			Name: "bailiff_roster_leaves_total",
			Help: "Players reported as left",
		}),
		RosterFetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "bailiff_roster_fetch_failures_total",
			Help: "Roster fetches that returned no observation",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCommand records a handled slash command
func (m *Metrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, outcome).Inc()
}

// ObserveInteraction records a handled button interaction
func (m *Metrics) ObserveInteraction(action, outcome string) {
	if m == nil {
		return
	}
	m.Interactions.WithLabelValues(action, outcome).Inc()
}

// ObserveRoster records the result of a successful roster cycle
func (m *Metrics) ObserveRoster(players, joined, left int) {
	if m == nil {
		return
	}
	m.RosterPlayers.Set(float64(players))
	m.RosterJoins.Add(float64(joined))
	m.RosterLeaves.Add(float64(left))
}

// ObserveRosterFailure records a roster fetch that produced no observation
func (m *Metrics) ObserveRosterFailure() {
	if m == nil {
		return
	}
	m.RosterFetchFailures.Inc()
}
