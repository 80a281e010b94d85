package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodshare_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RequestDecisions counts accept/cancel outcomes on food requests.
	RequestDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_request_decisions_total",
		Help: "Total accept/cancel decisions on food requests by outcome",
	}, []string{"action", "outcome"})

	// ClaimsTotal counts booking/order claims by kind and outcome.
	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_claims_total",
		Help: "Total booking and order claims by kind and outcome",
	}, []string{"kind", "outcome"})

	// WebSocketChatConnections is the gauge of connections per chat.
	WebSocketChatConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foodshare_websocket_chat_connections",
		Help: "Number of WebSocket connections per chat",
	}, []string{"chat_id"})

	// MessageThroughput counts messages processed per chat and type.
	MessageThroughput = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_message_throughput_total",
		Help: "Total number of chat messages processed",
	}, []string{"chat_id", "message_type"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "foodshare_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodshare_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// ChatConnectionMetrics tracks WebSocket chat and connection counts.
type ChatConnectionMetrics struct {
	chatCounts map[string]int
}

// NewChatConnectionMetrics returns a new ChatConnectionMetrics instance.
func NewChatConnectionMetrics() *ChatConnectionMetrics {
	return &ChatConnectionMetrics{
		chatCounts: make(map[string]int),
	}
}

// IncrementChat increments the connection count for the chat.
func (m *ChatConnectionMetrics) IncrementChat(chatID string) {
	m.chatCounts[chatID]++
	WebSocketChatConnections.WithLabelValues(chatID).Inc()
	WebSocketConnectionsTotal.Inc()
}

// DecrementChat decrements the connection count for the chat.
func (m *ChatConnectionMetrics) DecrementChat(chatID string) {
	if m.chatCounts[chatID] > 0 {
		m.chatCounts[chatID]--
	}
	WebSocketChatConnections.WithLabelValues(chatID).Dec()
	WebSocketConnectionsTotal.Dec()
}

// GetChatCount returns the current connection count for the chat.
func (m *ChatConnectionMetrics) GetChatCount(chatID string) int {
	return m.chatCounts[chatID]
}

// RecordMessage increments message throughput counters for the chat and type.
func (*ChatConnectionMetrics) RecordMessage(chatID, messageType string) {
	MessageThroughput.WithLabelValues(chatID, messageType).Inc()
}

// RecordWebSocketEvent increments the WebSocket events counter for the event type.
func (*ChatConnectionMetrics) RecordWebSocketEvent(eventType string) {
	WebSocketEventsTotal.WithLabelValues(eventType).Inc()
}
