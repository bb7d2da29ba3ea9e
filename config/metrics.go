package config

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	connAcquireFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inventario",
		Name:      "db_conn_acquire_failures_total",
		Help:      "Connection guard acquisitions that timed out or could not find a live connection.",
	})

	CrossMatchRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventario",
		Name:      "cross_match_runs_total",
		Help:      "Cross-match executions by final status.",
	}, []string{"status"})

	RosterRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventario",
		Name:      "roster_refreshes_total",
		Help:      "Roster cache refresh attempts by result.",
	}, []string{"result"})

	CountSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventario",
		Name:      "count_submissions_total",
		Help:      "Accepted count submissions by pass.",
	}, []string{"pass"})
)

func init() {
	prometheus.MustRegister(connAcquireFailures, CrossMatchRuns, RosterRefreshes, CountSubmissions)
}
