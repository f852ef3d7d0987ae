// Package interrupt provides the bounded queue that decouples the HTTP
// receiver from the main loop. Producers never block: when the queue is
// full the incoming interrupt is dropped, not the backlog.
package interrupt

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ryunzz/iris/internal/config"
	"github.com/ryunzz/iris/internal/events"
)

// Type identifies the kind of interrupt.
type Type string

const (
	TypeMotion        Type = "motion"
	TypeDeviceOffline Type = "device_offline"
	TypeDeviceOnline  Type = "device_online"
	TypeSystemError   Type = "system_error"
)

// Interrupt is a single out-of-band notification.
type Interrupt struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	Payload    map[string]any `json:"payload,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	SourceAddr string         `json:"source_addr,omitempty"`
}

// New builds an interrupt with a fresh ID and timestamp.
func New(t Type, payload map[string]any, sourceAddr string) Interrupt {
	return Interrupt{
		ID:         uuid.New().String(),
		Type:       t,
		Payload:    payload,
		Timestamp:  time.Now(),
		SourceAddr: sourceAddr,
	}
}

// Queue is a fixed-capacity FIFO of interrupts.
type Queue struct {
	ch     chan Interrupt
	logger *slog.Logger
	bus    *events.Bus

	closeOnce sync.Once
	closed    chan struct{}
}

// NewQueue creates a queue. Capacity falls back to the default when
// non-positive. A nil bus disables event publication.
func NewQueue(logger *slog.Logger, bus *events.Bus, capacity int) *Queue {
	if capacity <= 0 {
		capacity = config.DefaultInterruptCapacity
	}
	return &Queue{
		ch:     make(chan Interrupt, capacity),
		logger: logger,
		bus:    bus,
		closed: make(chan struct{}),
	}
}

// Push enqueues without blocking. Returns false when the queue is full or
// closed; the interrupt is dropped and a warning logged.
func (q *Queue) Push(in Interrupt) bool {
	select {
	case <-q.closed:
		q.logger.Warn("interrupt: push on closed queue", "type", in.Type, "id", in.ID)
		return false
	default:
	}

	select {
	case q.ch <- in:
		q.publish(events.InterruptQueued, in)
		return true
	default:
		q.logger.Warn("interrupt: queue full, dropping", "type", in.Type, "id", in.ID, "source", in.SourceAddr)
		q.publish(events.InterruptDropped, in)
		return false
	}
}

// Poll dequeues without blocking. Returns false when the queue is empty.
func (q *Queue) Poll() (Interrupt, bool) {
	select {
	case in := <-q.ch:
		return in, true
	default:
		return Interrupt{}, false
	}
}

// Drain empties the queue and returns how many interrupts were discarded.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			if n > 0 {
				q.logger.Info("interrupt: queue drained", "discarded", n)
			}
			return n
		}
	}
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap reports the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Close marks the queue closed for producers. Pending interrupts stay
// readable via Poll. Safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
}

func (q *Queue) publish(t events.EventType, in Interrupt) {
	if q.bus == nil {
		return
	}
	q.bus.Publish(events.NewEvent(t, in))
}
