package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for in-process broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(DeviceDiscoveredEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the concrete type, so unwrap the
	// interface with a type switch.
	switch e := ev.(type) {
	case StreamStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case DeviceDiscoveredEvent:
		event.Publish(b.dispatcher, e)
	case DeviceStaleEvent:
		event.Publish(b.dispatcher, e)
	case FrameOverflowEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes a typed handler; the handler's parameter type
// selects which events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e DeviceDiscoveredEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StreamStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceDiscoveredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceStaleEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameOverflowEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
