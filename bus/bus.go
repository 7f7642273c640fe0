package bus

import (
	"fmt"
	"sync"

	"github.com/j0hanz/cortex/core"
	"github.com/j0hanz/cortex/logging"
)

// Listener receives published events. Listeners run synchronously on the
// publishing goroutine and should return quickly.
type Listener func(ev core.Event)

// Bus routes events to listeners keyed by event kind. It is safe for
// concurrent use. Subscription is expected to happen during engine setup;
// publishing happens for the rest of the process lifetime.
type Bus struct {
	mu        sync.RWMutex
	listeners map[core.EventKind][]Listener
	all       []Listener
	logger    logging.Logger
}

// New constructs a bus logging listener failures to the given logger. A nil
// logger is substituted with a no-op logger.
func New(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Bus{
		listeners: make(map[core.EventKind][]Listener),
		logger:    logger,
	}
}

// Subscribe registers a listener for one event kind. Listeners for a kind are
// invoked in registration order.
func (b *Bus) Subscribe(kind core.EventKind, fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[kind] = append(b.listeners[kind], fn)
}

// SubscribeAll registers a listener invoked for every published event, after
// the kind-specific listeners.
func (b *Bus) SubscribeAll(fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, fn)
}

// Publish delivers the event to every registered listener for its kind, then
// to the catch-all listeners. Delivery is synchronous and fire-and-forget; a
// panicking listener is recovered, reported as a core.KindError event and
// logged, and the remaining listeners still run.
func (b *Bus) Publish(ev core.Event) {
	b.mu.RLock()
	kindListeners := b.listeners[ev.Kind]
	allListeners := b.all
	b.mu.RUnlock()

	for _, fn := range kindListeners {
		b.invoke(fn, ev)
	}
	for _, fn := range allListeners {
		b.invoke(fn, ev)
	}
}

func (b *Bus) invoke(fn Listener, ev core.Event) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("listener panic on %s: %v", ev.Kind, r)
			b.logger.Error("event listener failed", "kind", string(ev.Kind), "panic", fmt.Sprintf("%v", r))
			if ev.Kind != core.KindError {
				b.Publish(core.NewErrorEvent(msg))
			}
		}
	}()
	fn(ev)
}
