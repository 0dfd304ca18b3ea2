// Package metrics содержит Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mmeshcher/points-wallet/internal/model"
)

var (
	// HTTPRequestsTotal считает обработанные HTTP-запросы.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_http_requests_total",
		Help: "Total HTTP requests processed, labeled by route and status code",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration — распределение времени обработки HTTP-запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wallet_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route"})

	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_transfers_total",
		Help: "Transfer attempts, labeled by outcome",
	}, []string{"status", "reason"})

	transferredPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_transferred_points_total",
		Help: "Points moved by successful transfers",
	})

	balanceAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_balance_adjustments_total",
		Help: "Admin balance adjustments, labeled by direction",
	}, []string{"direction"})
)

// ObserveTransfer учитывает попытку перевода.
func ObserveTransfer(status model.TransactionStatus, reason model.FailureReason, amount int64) {
	transfersTotal.WithLabelValues(string(status), string(reason)).Inc()
	if status == model.TransactionStatusSuccess {
		transferredPoints.Add(float64(amount))
	}
}

// ObserveAdjustment учитывает административное изменение баланса.
func ObserveAdjustment(delta int64) {
	direction := "credit"
	if delta < 0 {
		direction = "debit"
	}
	balanceAdjustments.WithLabelValues(direction).Inc()
}
