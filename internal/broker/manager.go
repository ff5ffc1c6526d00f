package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/events"
)

// DispatchFunc hands one decoded envelope to the event router and returns
// the broker action to take.
type DispatchFunc func(ctx context.Context, env events.Envelope, redelivered bool) events.Outcome

// Config holds the broker topology and reconnect policy.
type Config struct {
	URL         string
	Exchange    string
	Queue       string
	RoutingKeys []string
	// Prefetch caps unacknowledged deliveries per consumer, bounding the
	// number of concurrently running handlers.
	Prefetch    int
	MaxAttempts int
}

// Manager owns the AMQP connection and channel, declares the durable topic
// exchange and queue, binds the routing keys, and supplies at-least-once
// delivery to the dispatcher. Connection or channel failure schedules a
// reconnect with capped exponential backoff until MaxAttempts is exhausted.
type Manager struct {
	cfg      Config
	dispatch DispatchFunc
	logger   *zap.Logger

	// onReconnect is a metric hook invoked once per reconnect scheduling.
	onReconnect func()

	mu             sync.Mutex
	conn           *amqp.Connection
	ch             *amqp.Channel
	state          State
	healthy        bool
	closing        bool
	attempt        int
	reconnectTimer *time.Timer
}

func NewManager(cfg Config, dispatch DispatchFunc, logger *zap.Logger, onReconnect func()) *Manager {
	if onReconnect == nil {
		onReconnect = func() {}
	}
	return &Manager{
		cfg:         cfg,
		dispatch:    dispatch,
		logger:      logger,
		onReconnect: onReconnect,
		state:       StateDisconnected,
	}
}

// Connect establishes the connection and channel, declares the topology,
// and begins consuming. Calling it while a connect is already in progress,
// or after Close, is a no-op.
func (m *Manager) Connect() error {
	m.mu.Lock()
	if m.closing || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.mu.Unlock()

	conn, err := amqp.Dial(m.cfg.URL)
	if err != nil {
		return m.connectFailed(fmt.Errorf("dial broker: %w", err))
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return m.connectFailed(fmt.Errorf("open channel: %w", err))
	}

	if err := m.declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return m.connectFailed(err)
	}

	deliveries, err := ch.Consume(m.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return m.connectFailed(fmt.Errorf("start consuming: %w", err))
	}

	if !m.install(conn, ch) {
		// Close won the race while the dial was in flight.
		return nil
	}

	go m.watch(
		conn.NotifyClose(make(chan *amqp.Error, 1)),
		ch.NotifyClose(make(chan *amqp.Error, 1)),
	)
	go m.consume(deliveries)

	m.logger.Info("broker connected",
		zap.String("exchange", m.cfg.Exchange),
		zap.String("queue", m.cfg.Queue),
		zap.Int("bindings", len(m.cfg.RoutingKeys)),
	)
	return nil
}

// install publishes a freshly dialed connection and channel. Close may run
// while Connect is blocked in the dial; in that case Closed stays terminal,
// the new socket is torn down instead of installed, and install reports
// false so no watch or consume goroutines start.
func (m *Manager) install(conn *amqp.Connection, ch *amqp.Channel) bool {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		if ch != nil {
			_ = ch.Close()
		}
		if conn != nil {
			_ = conn.Close()
		}
		return false
	}
	m.conn = conn
	m.ch = ch
	m.state = StateConnected
	m.healthy = true
	m.attempt = 0
	m.mu.Unlock()
	return true
}

func (m *Manager) declareTopology(ch *amqp.Channel) error {
	if err := ch.Qos(m.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if err := ch.ExchangeDeclare(m.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(m.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range m.cfg.RoutingKeys {
		if err := ch.QueueBind(m.cfg.Queue, key, m.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// watch waits for an asynchronous connection- or channel-level close and
// flips health immediately, then schedules a reconnect unless closing.
func (m *Manager) watch(connClose, chClose <-chan *amqp.Error) {
	var reason *amqp.Error
	select {
	case reason = <-connClose:
	case reason = <-chClose:
	}

	m.mu.Lock()
	m.healthy = false
	if m.closing {
		m.mu.Unlock()
		return
	}
	m.state = StateReconnecting
	m.mu.Unlock()

	if reason != nil {
		m.logger.Warn("broker connection lost", zap.String("reason", reason.Error()))
	} else {
		m.logger.Warn("broker connection closed")
	}
	m.scheduleReconnect()
}

func (m *Manager) connectFailed(err error) error {
	m.mu.Lock()
	m.healthy = false
	if m.closing {
		m.mu.Unlock()
		return err
	}
	m.state = StateReconnecting
	m.mu.Unlock()

	m.logger.Warn("broker connect failed", zap.Error(err))
	m.scheduleReconnect()
	return err
}

func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	m.attempt++
	attempt := m.attempt
	if attempt > m.cfg.MaxAttempts {
		m.state = StateDisconnected
		m.mu.Unlock()
		// Permanent: the process must be externally restarted.
		m.logger.Error("broker reconnect attempts exhausted, giving up",
			zap.Int("max_attempts", m.cfg.MaxAttempts))
		return
	}
	delay := Backoff(attempt)
	m.reconnectTimer = time.AfterFunc(delay, func() {
		_ = m.Connect()
	})
	m.mu.Unlock()

	m.onReconnect()
	m.logger.Info("broker reconnect scheduled",
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)
}

// consume drains the delivery channel. Each message is handled in its own
// goroutine; concurrency is bounded by the prefetch window since unacked
// deliveries stop the broker from pushing more.
func (m *Manager) consume(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		go m.handle(d)
	}
}

func (m *Manager) handle(d amqp.Delivery) {
	var env events.Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		m.logger.Error("malformed event body, rejecting",
			zap.String("routing_key", d.RoutingKey),
			zap.Error(err),
		)
		_ = d.Nack(false, false)
		return
	}
	if env.EventType == "" {
		env.EventType = d.RoutingKey
	}

	switch m.dispatch(context.Background(), env, d.Redelivered) {
	case events.Ack:
		_ = d.Ack(false)
	case events.Retry:
		_ = d.Nack(false, true)
	case events.Drop:
		_ = d.Nack(false, false)
	}
}

// IsConnected is true only when connection, channel, and health flag are
// all positive. An async error flips health before the socket objects are
// torn down.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil && m.ch != nil && m.healthy
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close stops reconnect scheduling, cancels any pending reconnect timer,
// and tears down the channel and connection. In-flight handlers are not
// awaited.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil
	}
	m.closing = true
	m.state = StateClosed
	m.healthy = false
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	ch := m.ch
	conn := m.conn
	m.ch = nil
	m.conn = nil
	m.mu.Unlock()

	var firstErr error
	if ch != nil {
		if err := ch.Close(); err != nil {
			firstErr = err
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.logger.Info("broker closed")
	return firstErr
}
