package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bandit_adapter"

var (
	Invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Bandit invocations by report format and outcome.",
		},
		[]string{"format", "outcome"},
	)

	SelectedIssues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selected_issues_total",
			Help:      "Issues selected as security vulnerabilities by severity.",
		},
		[]string{"severity"},
	)

	ScanJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_jobs_total",
			Help:      "Scan jobs by final status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(Invocations, SelectedIssues, ScanJobs)
}
