package go_i2cp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsCollector defines the interface for collecting I2CP client metrics.
// This interface allows applications to plug in custom metrics implementations
// (e.g., Prometheus, StatsD, custom logging) for production monitoring.
//
// All methods are safe for concurrent use and should be non-blocking.
type MetricsCollector interface {
	// Message Counters

	// IncrementMessageSent increments the count of messages sent by type.
	// messageType should be an I2CP message type constant (e.g., I2CP_MSG_SEND_MESSAGE).
	IncrementMessageSent(messageType uint8)

	// IncrementMessageReceived increments the count of messages received by type.
	// messageType should be an I2CP message type constant (e.g., I2CP_MSG_PAYLOAD_MESSAGE).
	IncrementMessageReceived(messageType uint8)

	// Session Tracking

	// SetActiveSessions updates the gauge of currently active sessions.
	SetActiveSessions(count int)

	// Error Tracking

	// IncrementError increments the error counter by error type.
	// errorType should describe the error category (e.g., "network", "protocol", "timeout").
	IncrementError(errorType string)

	// Latency Tracking

	// RecordMessageLatency records the latency of a message send operation.
	// messageType is the I2CP message type, duration is the operation time.
	RecordMessageLatency(messageType uint8, duration time.Duration)

	// Connection State

	// SetConnectionState updates the current connection state.
	// state should be "connected", "disconnected", or "reconnecting".
	SetConnectionState(state string)

	// Bandwidth Tracking

	// AddBytesSent adds to the total bytes sent counter.
	AddBytesSent(bytes uint64)

	// AddBytesReceived adds to the total bytes received counter.
	AddBytesReceived(bytes uint64)

	// Streaming engine counters (component G)

	// IncrementStreamPacketSent counts one stream-packet transmission.
	IncrementStreamPacketSent()

	// IncrementStreamPacketAcked counts one stream-packet retired by an ACK.
	IncrementStreamPacketAcked()

	// IncrementStreamPacketRetransmitted counts one stream-packet resend.
	IncrementStreamPacketRetransmitted()

	// Session-bridge command latency (component H)

	// RecordBridgeCommandLatency records the round-trip time of one
	// session-bridge text-protocol command (e.g. "SESSION CREATE").
	RecordBridgeCommandLatency(command string, duration time.Duration)
}

// InMemoryMetrics provides a simple in-memory implementation of MetricsCollector.
// Suitable for development, testing, and applications that want basic metrics
// without external dependencies.
//
// All operations are thread-safe using atomic operations and minimal locking.
type InMemoryMetrics struct {
	// Message counters by type (index = message type)
	messagesSent     [256]uint64
	messagesReceived [256]uint64

	// Session tracking
	activeSessions int32

	// Error tracking (map protected by mutex)
	errorsMu     sync.RWMutex
	errorsByType map[string]uint64

	// Latency tracking (protected by mutex for histogram updates)
	latencyMu       sync.RWMutex
	latencyByType   map[uint8]*latencyStats
	connectionState atomic.Value // stores string

	// Bandwidth tracking
	bytesSent     uint64
	bytesReceived uint64

	// Streaming engine and session-bridge counters
	streamPacketsSent          uint64
	streamPacketsAcked         uint64
	streamPacketsRetransmitted uint64

	bridgeLatencyMu sync.RWMutex
	bridgeLatency   map[string]*latencyStats
}

// latencyStats tracks latency statistics for a message type
type latencyStats struct {
	count      uint64
	totalNanos uint64
	minNanos   uint64
	maxNanos   uint64
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	m := &InMemoryMetrics{
		errorsByType:  make(map[string]uint64),
		latencyByType: make(map[uint8]*latencyStats),
		bridgeLatency: make(map[string]*latencyStats),
	}
	m.connectionState.Store("disconnected")
	return m
}

// IncrementMessageSent increments the sent message counter for the given type.
func (m *InMemoryMetrics) IncrementMessageSent(messageType uint8) {
	atomic.AddUint64(&m.messagesSent[messageType], 1)
}

// IncrementMessageReceived increments the received message counter for the given type.
func (m *InMemoryMetrics) IncrementMessageReceived(messageType uint8) {
	atomic.AddUint64(&m.messagesReceived[messageType], 1)
}

// SetActiveSessions updates the active sessions gauge.
func (m *InMemoryMetrics) SetActiveSessions(count int) {
	atomic.StoreInt32(&m.activeSessions, int32(count))
}

// IncrementError increments the error counter for the given error type.
func (m *InMemoryMetrics) IncrementError(errorType string) {
	m.errorsMu.Lock()
	m.errorsByType[errorType]++
	m.errorsMu.Unlock()
}

// RecordMessageLatency records the latency for a message type.
func (m *InMemoryMetrics) RecordMessageLatency(messageType uint8, duration time.Duration) {
	nanos := uint64(duration.Nanoseconds())

	m.latencyMu.Lock()
	defer m.latencyMu.Unlock()

	stats := m.latencyByType[messageType]
	if stats == nil {
		stats = &latencyStats{
			minNanos: nanos,
			maxNanos: nanos,
		}
		m.latencyByType[messageType] = stats
	}

	stats.count++
	stats.totalNanos += nanos

	if nanos < stats.minNanos {
		stats.minNanos = nanos
	}
	if nanos > stats.maxNanos {
		stats.maxNanos = nanos
	}
}

// SetConnectionState updates the connection state.
func (m *InMemoryMetrics) SetConnectionState(state string) {
	m.connectionState.Store(state)
}

// AddBytesSent adds to the total bytes sent.
func (m *InMemoryMetrics) AddBytesSent(bytes uint64) {
	atomic.AddUint64(&m.bytesSent, bytes)
}

// AddBytesReceived adds to the total bytes received.
func (m *InMemoryMetrics) AddBytesReceived(bytes uint64) {
	atomic.AddUint64(&m.bytesReceived, bytes)
}

// IncrementStreamPacketSent counts one stream-packet transmission.
func (m *InMemoryMetrics) IncrementStreamPacketSent() {
	atomic.AddUint64(&m.streamPacketsSent, 1)
}

// IncrementStreamPacketAcked counts one stream-packet retired by an ACK.
func (m *InMemoryMetrics) IncrementStreamPacketAcked() {
	atomic.AddUint64(&m.streamPacketsAcked, 1)
}

// IncrementStreamPacketRetransmitted counts one stream-packet resend.
func (m *InMemoryMetrics) IncrementStreamPacketRetransmitted() {
	atomic.AddUint64(&m.streamPacketsRetransmitted, 1)
}

// RecordBridgeCommandLatency records the round-trip time of a session-bridge
// text-protocol command, keyed by command name (e.g. "SESSION CREATE").
func (m *InMemoryMetrics) RecordBridgeCommandLatency(command string, duration time.Duration) {
	nanos := uint64(duration.Nanoseconds())

	m.bridgeLatencyMu.Lock()
	defer m.bridgeLatencyMu.Unlock()

	stats := m.bridgeLatency[command]
	if stats == nil {
		stats = &latencyStats{minNanos: nanos, maxNanos: nanos}
		m.bridgeLatency[command] = stats
	}
	stats.count++
	stats.totalNanos += nanos
	if nanos < stats.minNanos {
		stats.minNanos = nanos
	}
	if nanos > stats.maxNanos {
		stats.maxNanos = nanos
	}
}

// StreamPacketsSent returns the total count of stream-packet transmissions.
func (m *InMemoryMetrics) StreamPacketsSent() uint64 {
	return atomic.LoadUint64(&m.streamPacketsSent)
}

// StreamPacketsAcked returns the total count of ACK-retired stream packets.
func (m *InMemoryMetrics) StreamPacketsAcked() uint64 {
	return atomic.LoadUint64(&m.streamPacketsAcked)
}

// StreamPacketsRetransmitted returns the total count of stream-packet resends.
func (m *InMemoryMetrics) StreamPacketsRetransmitted() uint64 {
	return atomic.LoadUint64(&m.streamPacketsRetransmitted)
}

// AvgBridgeCommandLatency returns the average round-trip latency recorded
// for command, or 0 if none has been recorded.
func (m *InMemoryMetrics) AvgBridgeCommandLatency(command string) time.Duration {
	m.bridgeLatencyMu.RLock()
	defer m.bridgeLatencyMu.RUnlock()

	stats := m.bridgeLatency[command]
	if stats == nil || stats.count == 0 {
		return 0
	}
	return time.Duration(stats.totalNanos / stats.count)
}

// Getter methods for programmatic access to metrics

// MessagesSent returns the total count of sent messages by type.
func (m *InMemoryMetrics) MessagesSent(messageType uint8) uint64 {
	return atomic.LoadUint64(&m.messagesSent[messageType])
}

// MessagesReceived returns the total count of received messages by type.
func (m *InMemoryMetrics) MessagesReceived(messageType uint8) uint64 {
	return atomic.LoadUint64(&m.messagesReceived[messageType])
}

// ActiveSessions returns the current count of active sessions.
func (m *InMemoryMetrics) ActiveSessions() int {
	return int(atomic.LoadInt32(&m.activeSessions))
}

// Errors returns the total count of errors by type.
func (m *InMemoryMetrics) Errors(errorType string) uint64 {
	m.errorsMu.RLock()
	defer m.errorsMu.RUnlock()
	return m.errorsByType[errorType]
}

// AllErrors returns a copy of all error counts by type.
func (m *InMemoryMetrics) AllErrors() map[string]uint64 {
	m.errorsMu.RLock()
	defer m.errorsMu.RUnlock()

	result := make(map[string]uint64, len(m.errorsByType))
	for k, v := range m.errorsByType {
		result[k] = v
	}
	return result
}

// AvgLatency returns the average latency for a message type in nanoseconds.
// Returns 0 if no measurements have been recorded.
func (m *InMemoryMetrics) AvgLatency(messageType uint8) time.Duration {
	m.latencyMu.RLock()
	defer m.latencyMu.RUnlock()

	stats := m.latencyByType[messageType]
	if stats == nil || stats.count == 0 {
		return 0
	}

	return time.Duration(stats.totalNanos / stats.count)
}

// MinLatency returns the minimum latency for a message type.
// Returns 0 if no measurements have been recorded.
func (m *InMemoryMetrics) MinLatency(messageType uint8) time.Duration {
	m.latencyMu.RLock()
	defer m.latencyMu.RUnlock()

	stats := m.latencyByType[messageType]
	if stats == nil {
		return 0
	}

	return time.Duration(stats.minNanos)
}

// MaxLatency returns the maximum latency for a message type.
// Returns 0 if no measurements have been recorded.
func (m *InMemoryMetrics) MaxLatency(messageType uint8) time.Duration {
	m.latencyMu.RLock()
	defer m.latencyMu.RUnlock()

	stats := m.latencyByType[messageType]
	if stats == nil {
		return 0
	}

	return time.Duration(stats.maxNanos)
}

// ConnectionState returns the current connection state.
func (m *InMemoryMetrics) ConnectionState() string {
	return m.connectionState.Load().(string)
}

// BytesSent returns the total bytes sent.
func (m *InMemoryMetrics) BytesSent() uint64 {
	return atomic.LoadUint64(&m.bytesSent)
}

// BytesReceived returns the total bytes received.
func (m *InMemoryMetrics) BytesReceived() uint64 {
	return atomic.LoadUint64(&m.bytesReceived)
}

// OtelMetrics implements MetricsCollector on top of an OpenTelemetry Meter,
// for applications that already export metrics through an OTel pipeline
// (Prometheus, OTLP, etc.) rather than polling InMemoryMetrics directly.
type OtelMetrics struct {
	messagesSent     metric.Int64Counter
	messagesReceived metric.Int64Counter
	activeSessions   metric.Int64UpDownCounter
	errors           metric.Int64Counter
	messageLatency   metric.Float64Histogram
	connectionState  metric.Int64Counter
	bytesSent        metric.Int64Counter
	bytesReceived    metric.Int64Counter

	streamPacketsSent          metric.Int64Counter
	streamPacketsAcked         metric.Int64Counter
	streamPacketsRetransmitted metric.Int64Counter
	bridgeCommandLatency       metric.Float64Histogram

	lastActiveSessions int64 // Int64UpDownCounter only takes deltas; Set* tracks the prior value
}

// NewOtelMetrics creates a MetricsCollector backed by the instruments of
// meter, named under the "github.com/go-i2p/i2p-client" instrumentation
// scope's conventions.
func NewOtelMetrics(meter metric.Meter) (*OtelMetrics, error) {
	var err error
	m := &OtelMetrics{}

	if m.messagesSent, err = meter.Int64Counter("i2cp.messages.sent"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create messages.sent counter: %w", err)
	}
	if m.messagesReceived, err = meter.Int64Counter("i2cp.messages.received"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create messages.received counter: %w", err)
	}
	if m.activeSessions, err = meter.Int64UpDownCounter("i2cp.sessions.active"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create sessions.active gauge: %w", err)
	}
	if m.errors, err = meter.Int64Counter("i2cp.errors"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create errors counter: %w", err)
	}
	if m.messageLatency, err = meter.Float64Histogram("i2cp.message.latency", metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create message.latency histogram: %w", err)
	}
	if m.connectionState, err = meter.Int64Counter("i2cp.connection.state_changes"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create connection.state_changes counter: %w", err)
	}
	if m.bytesSent, err = meter.Int64Counter("i2cp.bytes.sent"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create bytes.sent counter: %w", err)
	}
	if m.bytesReceived, err = meter.Int64Counter("i2cp.bytes.received"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create bytes.received counter: %w", err)
	}
	if m.streamPacketsSent, err = meter.Int64Counter("i2cp.stream.packets_sent"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create stream.packets_sent counter: %w", err)
	}
	if m.streamPacketsAcked, err = meter.Int64Counter("i2cp.stream.packets_acked"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create stream.packets_acked counter: %w", err)
	}
	if m.streamPacketsRetransmitted, err = meter.Int64Counter("i2cp.stream.packets_retransmitted"); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create stream.packets_retransmitted counter: %w", err)
	}
	if m.bridgeCommandLatency, err = meter.Float64Histogram("i2cp.sambridge.command_latency", metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("i2cp: failed to create sambridge.command_latency histogram: %w", err)
	}
	return m, nil
}

func (m *OtelMetrics) IncrementMessageSent(messageType uint8) {
	m.messagesSent.Add(context.Background(), 1, metric.WithAttributes(attribute.Int("message_type", int(messageType))))
}

func (m *OtelMetrics) IncrementMessageReceived(messageType uint8) {
	m.messagesReceived.Add(context.Background(), 1, metric.WithAttributes(attribute.Int("message_type", int(messageType))))
}

// SetActiveSessions records the delta from the last known count, since
// Int64UpDownCounter only accepts additive changes.
func (m *OtelMetrics) SetActiveSessions(count int) {
	prev := atomic.SwapInt64(&m.lastActiveSessions, int64(count))
	m.activeSessions.Add(context.Background(), int64(count)-prev)
}

func (m *OtelMetrics) IncrementError(errorType string) {
	m.errors.Add(context.Background(), 1, metric.WithAttributes(attribute.String("error_type", errorType)))
}

func (m *OtelMetrics) RecordMessageLatency(messageType uint8, duration time.Duration) {
	m.messageLatency.Record(context.Background(), float64(duration.Microseconds())/1000.0,
		metric.WithAttributes(attribute.Int("message_type", int(messageType))))
}

func (m *OtelMetrics) SetConnectionState(state string) {
	m.connectionState.Add(context.Background(), 1, metric.WithAttributes(attribute.String("state", state)))
}

func (m *OtelMetrics) AddBytesSent(bytes uint64) {
	m.bytesSent.Add(context.Background(), int64(bytes))
}

func (m *OtelMetrics) AddBytesReceived(bytes uint64) {
	m.bytesReceived.Add(context.Background(), int64(bytes))
}

func (m *OtelMetrics) IncrementStreamPacketSent() {
	m.streamPacketsSent.Add(context.Background(), 1)
}

func (m *OtelMetrics) IncrementStreamPacketAcked() {
	m.streamPacketsAcked.Add(context.Background(), 1)
}

func (m *OtelMetrics) IncrementStreamPacketRetransmitted() {
	m.streamPacketsRetransmitted.Add(context.Background(), 1)
}

func (m *OtelMetrics) RecordBridgeCommandLatency(command string, duration time.Duration) {
	m.bridgeCommandLatency.Record(context.Background(), float64(duration.Microseconds())/1000.0,
		metric.WithAttributes(attribute.String("command", command)))
}

// Reset clears all metrics. Useful for testing.
func (m *InMemoryMetrics) Reset() {
	// Reset message counters
	for i := range m.messagesSent {
		atomic.StoreUint64(&m.messagesSent[i], 0)
		atomic.StoreUint64(&m.messagesReceived[i], 0)
	}

	// Reset sessions
	atomic.StoreInt32(&m.activeSessions, 0)

	// Reset errors
	m.errorsMu.Lock()
	m.errorsByType = make(map[string]uint64)
	m.errorsMu.Unlock()

	// Reset latency
	m.latencyMu.Lock()
	m.latencyByType = make(map[uint8]*latencyStats)
	m.latencyMu.Unlock()

	// Reset connection state
	m.connectionState.Store("disconnected")

	// Reset bandwidth
	atomic.StoreUint64(&m.bytesSent, 0)
	atomic.StoreUint64(&m.bytesReceived, 0)

	// Reset streaming engine and session-bridge counters
	atomic.StoreUint64(&m.streamPacketsSent, 0)
	atomic.StoreUint64(&m.streamPacketsAcked, 0)
	atomic.StoreUint64(&m.streamPacketsRetransmitted, 0)
	m.bridgeLatencyMu.Lock()
	m.bridgeLatency = make(map[string]*latencyStats)
	m.bridgeLatencyMu.Unlock()
}
