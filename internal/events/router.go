package events

import (
	"context"

	"go.uber.org/zap"
)

// Outcome tells the broker consumer what to do with a delivery.
type Outcome int

const (
	// Ack acknowledges the message: success, or a deliberate no-op.
	Ack Outcome = iota
	// Retry requests one redelivery for a transient handler failure.
	Retry
	// Drop rejects the message without requeue. The event is permanently
	// lost after being logged with full context.
	Drop
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Retry:
		return "retry"
	case Drop:
		return "drop"
	}
	return "unknown"
}

// HandlerFunc processes one event. A returned error means the event could
// not be handled; the router decides between Retry and Drop.
type HandlerFunc func(ctx context.Context, env Envelope) error

// Hooks carries metric callbacks for consumed and dropped events.
type Hooks struct {
	OnConsumed func(eventType string)
	OnDropped  func(eventType string)
}

func (h *Hooks) fill() {
	if h.OnConsumed == nil {
		h.OnConsumed = func(string) {}
	}
	if h.OnDropped == nil {
		h.OnDropped = func(string) {}
	}
}

// Router dispatches each envelope to exactly one handler by event kind.
// Unknown kinds are logged at debug level and acknowledged.
type Router struct {
	handlers map[Kind]HandlerFunc
	logger   *zap.Logger
	hooks    Hooks
}

func NewRouter(logger *zap.Logger, hooks Hooks) *Router {
	hooks.fill()
	return &Router{
		handlers: make(map[Kind]HandlerFunc),
		logger:   logger,
		hooks:    hooks,
	}
}

// Register binds a handler to a kind. Last registration wins.
func (r *Router) Register(kind Kind, fn HandlerFunc) {
	r.handlers[kind] = fn
}

// Dispatch runs the handler for the envelope's event type and converts the
// result into an Outcome. A failing handler gets exactly one redelivery:
// first failure → Retry, failure of a redelivered message → Drop. This
// bounds retries without a poison-message loop.
func (r *Router) Dispatch(ctx context.Context, env Envelope, redelivered bool) Outcome {
	r.hooks.OnConsumed(env.EventType)

	kind := ParseKind(env.EventType)
	if kind == KindUnknown {
		r.logger.Debug("ignoring unrecognized event type",
			zap.String("event_type", env.EventType))
		return Ack
	}

	fn, ok := r.handlers[kind]
	if !ok {
		r.logger.Debug("no handler registered for event kind",
			zap.String("event_type", env.EventType))
		return Ack
	}

	err := fn(ctx, env)
	if err == nil {
		return Ack
	}

	if !redelivered {
		r.logger.Warn("handler failed, requesting redelivery",
			zap.String("event_type", env.EventType),
			zap.Any("payload", env.Payload),
			zap.Error(err),
		)
		return Retry
	}

	r.logger.Error("handler failed on redelivery, dropping event",
		zap.String("event_type", env.EventType),
		zap.Any("payload", env.Payload),
		zap.Error(err),
	)
	r.hooks.OnDropped(env.EventType)
	return Drop
}
