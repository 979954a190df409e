// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "everyonevotes_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// OTPIssued counts send-otp requests by outcome
	OTPIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "everyonevotes_otp_issued_total",
			Help: "Number of OTP challenges issued",
		},
		[]string{"delivery"},
	)

	// OTPVerifications counts verify attempts by result
	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "everyonevotes_otp_verifications_total",
			Help: "Number of OTP verification attempts",
		},
		[]string{"result"},
	)

	// OTPPurged counts challenges removed by the sweeper
	OTPPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "everyonevotes_otp_purged_total",
			Help: "Number of expired OTP challenges purged",
		},
	)

	// Registrations counts registration attempts by result
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "everyonevotes_registrations_total",
			Help: "Number of voter registration attempts",
		},
		[]string{"result"},
	)

	// EligibilityChecks counts eligibility verifications by result
	EligibilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "everyonevotes_eligibility_checks_total",
			Help: "Number of eligibility verifications",
		},
		[]string{"result"},
	)

	// BallotsCast counts accepted ballots by kind (candidate or abstain)
	BallotsCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "everyonevotes_ballots_cast_total",
			Help: "Number of ballots accepted",
		},
		[]string{"kind"},
	)

	// BallotsRejected counts rejected cast attempts by error code
	BallotsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "everyonevotes_ballots_rejected_total",
			Help: "Number of ballot cast attempts rejected",
		},
		[]string{"code"},
	)

	// DashboardConnections tracks connected live dashboards
	DashboardConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "everyonevotes_dashboard_connections",
			Help: "Number of connected dashboard websockets",
		},
	)
)

// Result labels shared by the counters above
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)
