// event_bus.go: Named-event publish/subscribe with isolated listeners
//
// Internal lifecycle events use a closed set of EventType constants while
// arbitrary caller-defined custom events share the same string-keyed
// mechanism. Listener panics are recovered per listener so one failing
// subscriber cannot break emission to the rest.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"runtime"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// EventType names an event on the bus. The orchestrator emits the
// EventPlugin* constants below; callers may emit and subscribe to any
// other string as a custom event.
type EventType string

// Internal lifecycle event types.
const (
	EventPluginRegistered    EventType = "plugin:registered"
	EventPluginInstalled     EventType = "plugin:installed"
	EventPluginActivated     EventType = "plugin:activated"
	EventPluginDeactivated   EventType = "plugin:deactivated"
	EventPluginUninstalled   EventType = "plugin:uninstalled"
	EventPluginReplaced      EventType = "plugin:replaced"
	EventPluginError         EventType = "plugin:error"
	EventPluginConfigUpdated EventType = "plugin:config:updated"
	EventPluginReloaded      EventType = "plugin:reloaded"
)

// Event is the payload delivered to every listener. Timestamps come from
// the cached clock when left unset by the emitter.
type Event struct {
	Type      EventType      `json:"type"`
	Plugin    string         `json:"plugin,omitempty"`
	Error     error          `json:"error,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventListener receives emitted events. Listeners run synchronously in
// emission order; a panicking listener is recovered and logged without
// affecting the others.
type EventListener func(Event)

// Subscription identifies a registered listener for removal via Off.
type Subscription uint64

// EventBus is a minimal synchronous publish/subscribe hub.
type EventBus struct {
	mu        sync.RWMutex
	listeners map[EventType]map[Subscription]EventListener
	nextID    Subscription
	logger    Logger
}

// NewEventBus creates an event bus. A nil logger silences recovery
// diagnostics.
func NewEventBus(logger any) *EventBus {
	return &EventBus{
		listeners: make(map[EventType]map[Subscription]EventListener),
		logger:    NewLogger(logger),
	}
}

// On registers a listener for the named event and returns a subscription
// handle for Off.
func (b *EventBus) On(event EventType, listener EventListener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.listeners[event] == nil {
		b.listeners[event] = make(map[Subscription]EventListener)
	}
	b.listeners[event][id] = listener
	return id
}

// Off removes a previously registered listener. Unknown subscriptions are
// ignored.
func (b *EventBus) Off(event EventType, sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.listeners[event]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.listeners, event)
		}
	}
}

// Emit delivers the event to every listener registered for its type.
// Delivery is synchronous and isolated: a panicking listener is recovered
// with its stack logged, and emission continues with the next listener.
func (b *EventBus) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = timecache.CachedTime()
	}

	b.mu.RLock()
	set := b.listeners[event.Type]
	snapshot := make([]EventListener, 0, len(set))
	for _, l := range set {
		snapshot = append(snapshot, l)
	}
	b.mu.RUnlock()

	for _, listener := range snapshot {
		b.invoke(listener, event)
	}
}

// invoke runs one listener under panic recovery.
func (b *EventBus) invoke(listener EventListener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			n := runtime.Stack(buf, false)
			b.logger.Error("Panic recovered in event listener",
				"event", string(event.Type),
				"plugin", event.Plugin,
				"panic", r,
				"stack", string(buf[:n]))
		}
	}()
	listener(event)
}

// Clear detaches every listener. Used by Dispose.
func (b *EventBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType]map[Subscription]EventListener)
}
