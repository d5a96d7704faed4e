package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depot_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depot_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	OrdersCheckedOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depot_orders_checked_out_total",
		Help: "POS orders created, by payment method.",
	}, []string{"payment_method"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depot_order_transitions_total",
		Help: "Order and warehouse order status changes.",
	}, []string{"entity", "status"})

	StockMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depot_stock_movement_units_total",
		Help: "Units moved in or out of stock, by movement kind.",
	}, []string{"kind"})

	EmptiesMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depot_empties_entries_total",
		Help: "Empties ledger entries, by entry type.",
	}, []string{"entry_type"})

	RequestLogsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depot_request_logs_dropped_total",
		Help: "Request log entries dropped because the buffer was full.",
	})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depot_websocket_clients",
		Help: "Connected warehouse live board clients.",
	})
)
