package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentInitiationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kbine_payment_initiations_total",
		Help: "Total number of payment initiation attempts",
	}, []string{"method"})

	PaymentInitiationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kbine_payment_initiation_failures_total",
		Help: "Total number of rejected or failed payment initiations",
	}, []string{"reason"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kbine_webhooks_received_total",
		Help: "Total number of provider webhooks received",
	}, []string{"provider"})

	WebhooksRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kbine_webhooks_rejected_total",
		Help: "Total number of provider webhooks rejected before processing",
	}, []string{"provider", "reason"})

	PaymentsSucceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kbine_payments_succeeded_total",
		Help: "Total number of payments confirmed successful",
	})

	PaymentsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kbine_payments_failed_total",
		Help: "Total number of payments confirmed failed",
	})

	ProviderCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kbine_provider_call_latency_seconds",
		Help:    "Latency of outbound provider API calls, retries included",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
)
