package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thiraiview",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	RefreshAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thiraiview",
		Subsystem: "auth",
		Name:      "refresh_attempts_total",
		Help:      "Refresh attempts by result.",
	}, []string{"result"})

	ReuseDetections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thiraiview",
		Subsystem: "auth",
		Name:      "refresh_reuse_detected_total",
		Help:      "Refresh tokens rejected by the ledger, by cause.",
	}, []string{"cause"})

	RevokedTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thiraiview",
		Subsystem: "auth",
		Name:      "refresh_tokens_revoked_total",
		Help:      "Refresh token ledger rows revoked, by reason.",
	}, []string{"reason"})

	Logouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "thiraiview",
		Subsystem: "auth",
		Name:      "logouts_total",
		Help:      "Logout requests.",
	})
)

// 結果ラベル
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)
