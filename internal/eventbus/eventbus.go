// Package eventbus is a small in-process publish/subscribe hub used to fan
// simulation events out to telemetry consumers.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus is the untyped bus contract used by the simulation core.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation.
type Bus struct {
	*TypedBus[Event]
}

// New creates a new Bus with DefaultBuffer slots per subscriber.
func New() *Bus { return &Bus{NewTyped[Event]()} }

// NewWithBuffer creates a Bus whose subscribers get n slots.
func NewWithBuffer(n int) *Bus { return &Bus{NewTypedWithBuffer[Event](n)} }
