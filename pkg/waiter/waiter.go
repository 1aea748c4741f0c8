package waiter

import (
	"sync"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/evanphx/rawsys/log"
)

type EventType uint64

// Waiter fans notifications out to registered events, in registration
// order.
type Waiter struct {
	mu sync.RWMutex

	waiters *orderedmap.OrderedMap[*Event, struct{}]
}

type Event struct {
	Mask     EventType
	Context  interface{}
	Callback func(e *Event, data interface{})
}

func (w *Waiter) Register(e *Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.waiters == nil {
		w.waiters = orderedmap.NewOrderedMap[*Event, struct{}]()
	}

	w.waiters.Set(e, struct{}{})
}

func triggerChan(e *Event, _ interface{}) {
	c := e.Context.(chan struct{})

	select {
	case c <- struct{}{}:
	default:
	}
}

// RegisterChannel arranges for a non-blocking wakeup on c for every
// notification matching mask.
func (w *Waiter) RegisterChannel(mask EventType, c chan struct{}) *Event {
	e := &Event{
		Callback: triggerChan,
		Context:  c,
		Mask:     mask,
	}

	w.Register(e)

	return e
}

// RegisterFunc calls fn with each matching notification's data. fn runs on
// the notifier's goroutine and must not block.
func (w *Waiter) RegisterFunc(mask EventType, fn func(data interface{})) *Event {
	e := &Event{
		Mask: mask,
		Callback: func(_ *Event, data interface{}) {
			fn(data)
		},
	}

	w.Register(e)

	return e
}

func (w *Waiter) Unregister(e *Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.waiters != nil {
		w.waiters.Delete(e)
	}
}

func (w *Waiter) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.waiters == nil {
		return 0
	}

	return w.waiters.Len()
}

func (w *Waiter) Notify(mask EventType, data interface{}) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.waiters == nil {
		return
	}

	log.L.Trace("waiters-notify", "count", w.waiters.Len())

	for e := range w.waiters.AllFromFront() {
		log.L.Trace("waiters-walk", "event-mask", e.Mask, "notify-mask", mask, "match", mask&e.Mask)
		if mask&e.Mask != 0 {
			e.Callback(e, data)
		}
	}
}
