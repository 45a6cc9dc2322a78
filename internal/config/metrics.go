package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Version, Commit, BuildDate string
)

var (
	MqcInfo = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mqc_build_info",
		Help: "MQC build information",
		ConstLabels: map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
		},
	})
)
