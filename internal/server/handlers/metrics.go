package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	registrationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registration_attempts_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status"},
	)

	refreshAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_refresh_attempts_total",
			Help: "Total number of refresh-token rotations attempted",
		},
		[]string{"status"},
	)

	logoutAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logout_attempts_total",
			Help: "Total number of logout attempts",
		},
		[]string{"status"},
	)

	loginDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_login_duration_seconds",
			Help:    "Time spent processing login requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_active_sessions_current",
			Help: "Current number of sessions opened minus sessions revoked",
		},
	)
)
