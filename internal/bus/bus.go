package bus

import (
	"sync"

	"go.uber.org/zap"
)

// Topic identifies an event stream on the bus.
type Topic string

const (
	TopicSignal    Topic = "signal"
	TopicValidated Topic = "validated"
	TopicTrade     Topic = "trade"
	TopicStats     Topic = "stats"
	TopicMode      Topic = "mode"
)

// Handler consumes a published payload.
type Handler func(payload any)

// Bus is a process-wide publish/subscribe hub. It is constructed explicitly
// and passed to every component that needs it; there is no ambient instance.
// Delivery is synchronous, in subscription order, with per-topic ordering
// matching publish order. No persistence, no replay.
type Bus struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	handlers map[Topic][]Handler
}

// New creates an empty bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger:   logger,
		handlers: make(map[Topic][]Handler),
	}
}

// Subscribe registers a handler for a topic. Handlers are invoked in the
// order they subscribed.
func (b *Bus) Subscribe(topic Topic, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers the payload to all current subscribers of the topic.
// A panicking subscriber must not prevent delivery to subsequent
// subscribers nor reach the publisher.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(topic, h, payload)
	}
}

func (b *Bus) deliver(topic Topic, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bus subscriber panicked",
				zap.String("topic", string(topic)),
				zap.Any("panic", r))
		}
	}()
	h(payload)
}
