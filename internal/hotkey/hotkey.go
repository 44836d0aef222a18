// Package hotkey provides a global hotkey, using gohook, that asks the
// monitor to (re)connect to the peripheral.
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// EventType identifies what the hotkey asked for.
type EventType int

const (
	// EventConnect asks for a fresh scan and connect.
	EventConnect EventType = iota
)

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// Listener watches one global key combination.
type Listener struct {
	keys []string
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// NewListener creates a Listener for the given key combo.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "c"]).
func NewListener(keys []string) *Listener {
	return &Listener{
		keys: keys,
		ch:   make(chan Event, 4),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when the listener stops.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		l.emit(Event{Type: EventConnect})
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// emit delivers ev without blocking; presses are dropped while a
// previous one is still pending.
func (l *Listener) emit(ev Event) {
	select {
	case l.ch <- ev:
	default:
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
