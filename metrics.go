package otp

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	connectionsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_connections_accepted_total",
			Help: "Total number of connections accepted by the dispatcher",
		},
		[]string{"role"},
	)
	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_exchanges_total",
			Help: "Total number of worker exchanges by outcome",
		},
		[]string{"role", "status"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "otp_exchange_duration_seconds",
			Help:    "Duration of a worker exchange from accept to close",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"role"},
	)
	symbolsTransformed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_symbols_transformed_total",
			Help: "Total number of message symbols run through the cipher",
		},
		[]string{"role"},
	)
)

func init() {
	prometheus.MustRegister(connectionsAccepted)
	prometheus.MustRegister(exchangesTotal)
	prometheus.MustRegister(exchangeDuration)
	prometheus.MustRegister(symbolsTransformed)
}

// observeExchange records the outcome of one worker exchange.
func observeExchange(role Role, start time.Time, symbols int, err error) {
	status := "success"
	if err != nil {
		status = errorStatus(err)
	}

	exchangesTotal.WithLabelValues(role.String(), status).Inc()
	exchangeDuration.WithLabelValues(role.String()).Observe(time.Since(start).Seconds())
	if err == nil {
		symbolsTransformed.WithLabelValues(role.String()).Add(float64(symbols))
	}
}

// errorStatus maps an exchange error to a low-cardinality label.
func errorStatus(err error) string {
	var te *TransportError
	switch {
	case errors.Is(err, ErrInvalidSymbol):
		return "invalid_symbol"
	case errors.Is(err, ErrKeyTooShort):
		return "key_too_short"
	case errors.Is(err, ErrFrameTooLarge):
		return "frame_too_large"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &te) && te.Timeout():
		return "timeout"
	case errors.As(err, &te):
		return "transport_error"
	default:
		return "error"
	}
}
