// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topneum",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "topneum",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// PedidosCreados counts committed orders; PedidosRechazados counts orders
	// rejected by the fulfillment transaction, by error code.
	PedidosCreados    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "topneum", Name: "pedidos_creados_total", Help: "Orders committed."})
	PedidosRechazados = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topneum",
		Name:      "pedidos_rechazados_total",
		Help:      "Orders rejected, by reason.",
	}, []string{"motivo"})

	TarifasPublicadas = promauto.NewCounter(prometheus.CounterOpts{Namespace: "topneum", Name: "tarifas_publicadas_total", Help: "Tarifa publishes committed."})

	StockSincronizado = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topneum",
		Name:      "stock_sync_total",
		Help:      "Stock sync rows by outcome (cambiado, sin_cambios, no_encontrado, invalido, error).",
	}, []string{"resultado"})

	CotizacionCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topneum",
		Name:      "cotizacion_cache_total",
		Help:      "Quote cache lookups by outcome (hit, miss).",
	}, []string{"resultado"})

	EventosEntregados = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topneum",
		Name:      "eventos_entregados_total",
		Help:      "Async events processed by the worker pool, by type and outcome.",
	}, []string{"tipo", "resultado"})

	WebhookCircuito = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "topneum",
		Name:      "webhook_circuit_state",
		Help:      "Webhook circuit breaker state (0 closed, 1 open, 2 half-open).",
	})
)
