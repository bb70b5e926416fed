package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payway_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payway_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payway_gateway_call_duration_seconds",
			Help:    "Outbound payment gateway call latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"gateway", "operation", "status"},
	)

	ChargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payway_charges_total",
			Help: "Charges created per gateway and result",
		},
		[]string{"gateway", "result"},
	)

	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payway_webhooks_total",
			Help: "Processed gateway callbacks per final state",
		},
		[]string{"gateway", "state"},
	)

	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payway_wallet_ledger_entries_total",
			Help: "Wallet ledger entries per transaction type and result",
		},
		[]string{"type", "result"},
	)

	OTPTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payway_otp_total",
			Help: "Verification code sends and checks per result",
		},
		[]string{"action", "result"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// ObserveGatewayCall matches transport.Observer.
func ObserveGatewayCall(gateway, operation string, status int, elapsed time.Duration) {
	GatewayCallDuration.WithLabelValues(gateway, operation, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Collector implements the metrics interfaces of the payment, wallet and
// otp services on top of the package level vectors.
type Collector struct{}

func (Collector) RecordCharge(gateway, result string) {
	ChargesTotal.WithLabelValues(gateway, result).Inc()
}

func (Collector) RecordWebhook(gateway, state string) {
	WebhooksTotal.WithLabelValues(gateway, state).Inc()
}

func (Collector) RecordLedgerEntry(txType, result string) {
	LedgerEntriesTotal.WithLabelValues(txType, result).Inc()
}

func (Collector) RecordOTP(action, result string) {
	OTPTotal.WithLabelValues(action, result).Inc()
}
