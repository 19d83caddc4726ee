package opsmetrics

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	quizAttempts    prometheus.Counter
	referralSignups prometheus.Counter
	quotaRejections prometheus.Counter
	activeSessions  prometheus.Gauge
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		quizAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dermalens",
			Subsystem: "quota",
			Name:      "quiz_attempts_total",
			Help:      "Quiz attempts successfully consumed against a quota.",
		}),
		referralSignups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dermalens",
			Subsystem: "referral",
			Name:      "signups_total",
			Help:      "Signups that arrived through a referral code.",
		}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dermalens",
			Subsystem: "quota",
			Name:      "rejections_total",
			Help:      "Attempt consumptions rejected because the quota was exhausted.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dermalens",
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions with a heartbeat inside the live window.",
		}),
	}

	if registry != nil {
		registry.MustRegister(m.quizAttempts, m.referralSignups, m.quotaRejections, m.activeSessions)
	}
	return m
}
