// event_bus_test.go: Test suite for the publish/subscribe hub
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package golifecycle

import (
	"testing"
)

func TestEventBus_OnEmitOff(t *testing.T) {
	bus := NewEventBus(nil)

	var got []Event
	sub := bus.On("custom:thing", func(ev Event) {
		got = append(got, ev)
	})

	bus.Emit(Event{Type: "custom:thing", Plugin: "p"})
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].Plugin != "p" {
		t.Errorf("expected plugin p, got %s", got[0].Plugin)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("expected emit to stamp the event")
	}

	bus.Off("custom:thing", sub)
	bus.Emit(Event{Type: "custom:thing"})
	if len(got) != 1 {
		t.Fatalf("expected no delivery after Off, got %d", len(got))
	}
}

func TestEventBus_TypeIsolation(t *testing.T) {
	bus := NewEventBus(nil)

	var registered, installed int
	bus.On(EventPluginRegistered, func(Event) { registered++ })
	bus.On(EventPluginInstalled, func(Event) { installed++ })

	bus.Emit(Event{Type: EventPluginRegistered})
	if registered != 1 || installed != 0 {
		t.Fatalf("expected only registered listener to fire, got %d/%d", registered, installed)
	}
}

func TestEventBus_PanickingListenerIsIsolated(t *testing.T) {
	bus := NewEventBus(nil)

	var survived bool
	bus.On("custom:thing", func(Event) { panic("listener exploded") })
	bus.On("custom:thing", func(Event) { survived = true })

	bus.Emit(Event{Type: "custom:thing"})
	if !survived {
		t.Fatal("a panicking listener must not break delivery to the rest")
	}
}

func TestEventBus_MultipleListenersAllFire(t *testing.T) {
	bus := NewEventBus(nil)

	count := 0
	for i := 0; i < 3; i++ {
		bus.On(EventPluginError, func(Event) { count++ })
	}

	bus.Emit(Event{Type: EventPluginError})
	if count != 3 {
		t.Fatalf("expected 3 deliveries, got %d", count)
	}
}

func TestEventBus_Clear(t *testing.T) {
	bus := NewEventBus(nil)

	fired := false
	bus.On("custom:thing", func(Event) { fired = true })
	bus.Clear()
	bus.Emit(Event{Type: "custom:thing"})

	if fired {
		t.Fatal("expected no delivery after Clear")
	}
}

func TestOrchestrator_CustomEvents(t *testing.T) {
	o := newTestOrchestrator()

	var payloads []any
	o.On("cache:invalidated", func(ev Event) {
		payloads = append(payloads, ev.Data["key"])
	})

	o.Emit(Event{Type: "cache:invalidated", Data: map[string]any{"key": "user:42"}})
	if len(payloads) != 1 || payloads[0] != "user:42" {
		t.Fatalf("expected custom event payload, got %v", payloads)
	}
}
