package usecases

import (
	"sync"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// Subscriber receives every published StageEvent. A subscriber failure
// (returned error) is surfaced to the publisher but never prevents other
// subscribers from running (spec §4.8).
type Subscriber func(entities.StageEvent) error

// EventBus is the in-process typed pub/sub used by stages to publish
// start/complete/error events (spec §4.8). Publication awaits every
// subscriber concurrently, mirroring the bounded worker-pool fan-out/
// fan-in pattern used elsewhere in the pipeline (see RunTransforms.Execute),
// scaled down to whatever subscriber count is registered.
type EventBus struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

// NewEventBus creates an empty per-session event bus (spec §9 "per-session
// registries constructed and passed explicitly").
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe attaches a subscriber and returns a detach function.
func (b *EventBus) Subscribe(sub Subscriber) (detach func()) {
	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	idx := len(b.subscribers) - 1
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.subscribers) {
			b.subscribers[idx] = nil
		}
	}
}

// Publish awaits all subscribers concurrently and returns once every one
// has settled. Subscriber errors are collected and returned jointly; they
// never abort sibling subscribers (spec §4.8).
func (b *EventBus) Publish(event entities.StageEvent) []error {
	b.mu.Lock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		if s != nil {
			subs = append(subs, s)
		}
	}
	b.mu.Unlock()

	if len(subs) == 0 {
		return nil
	}

	errs := make([]error, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub Subscriber) {
			defer wg.Done()
			errs[i] = sub(event)
		}(i, sub)
	}
	wg.Wait()

	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// LoggingSubscriber forwards stage events to a Logger (spec §12
// "Event bus standard subscribers", concretely implemented since it is
// grounded directly on the ambient logging stack).
func LoggingSubscriber(logger Logger) Subscriber {
	return func(event entities.StageEvent) error {
		fields := []any{"stage", event.Stage, "timestamp", event.Timestamp}
		if event.CorrelationID != "" {
			fields = append(fields, "correlationId", event.CorrelationID)
		}
		for k, v := range event.Attributes {
			fields = append(fields, k, v)
		}
		switch event.Kind {
		case entities.StageStart:
			logger.Info("stage started", fields...)
		case entities.StageComplete:
			logger.Info("stage completed", fields...)
		case entities.StageError:
			logger.Error("stage failed", event.Err, fields...)
		}
		return nil
	}
}
