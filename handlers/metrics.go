package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checker_checks_total",
		Help: "Completed checks by checker and verdict",
	}, []string{"checker", "verdict"})

	checkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checker_check_duration_seconds",
		Help:    "Time spent opening and comparing the answer and output files",
		Buckets: prometheus.DefBuckets,
	}, []string{"checker"})
)
