package transport

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"opsboard/internal/events"
)

func TestHappyPathTransitions(t *testing.T) {
	m := NewMachine("mqtt", events.NewBus())
	defer m.Close()

	if m.Status() != StatusDisconnected {
		t.Fatalf("initial state should be disconnected, got %s", m.Status())
	}
	if err := m.BeginConnect(); err != nil {
		t.Fatalf("BeginConnect: %v", err)
	}
	if m.Status() != StatusConnecting {
		t.Fatalf("expected connecting, got %s", m.Status())
	}
	if err := m.MarkConnected(); err != nil {
		t.Fatalf("MarkConnected: %v", err)
	}
	if m.Status() != StatusConnected {
		t.Fatalf("expected connected, got %s", m.Status())
	}
	if err := m.MarkDisconnected(); err != nil {
		t.Fatalf("MarkDisconnected: %v", err)
	}
	if m.Status() != StatusDisconnected {
		t.Fatalf("expected disconnected, got %s", m.Status())
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	m := NewMachine("mqtt", events.NewBus())
	defer m.Close()

	// Cannot mark connected without connecting first.
	if err := m.MarkConnected(); err == nil {
		t.Error("disconnected → connected should be rejected")
	}
	// Cannot begin a second connect while already connecting.
	if err := m.BeginConnect(); err != nil {
		t.Fatalf("BeginConnect: %v", err)
	}
	if err := m.BeginConnect(); err == nil {
		t.Error("connecting → connecting should be rejected")
	}
	// Connected state rejects a connect action.
	if err := m.MarkConnected(); err != nil {
		t.Fatalf("MarkConnected: %v", err)
	}
	if err := m.BeginConnect(); err == nil {
		t.Error("connected → connecting should be rejected")
	}
}

func TestFailureFallsBackAfterHold(t *testing.T) {
	m := NewMachine("bluetooth", events.NewBus())
	defer m.Close()

	m.BeginConnect()
	if err := m.Fail(errors.New("no device found")); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if m.Status() != StatusError {
		t.Fatalf("expected error, got %s", m.Status())
	}

	// The fixed fallback re-arms the connect action. Poll rather than
	// sleeping the full hold.
	deadline := time.Now().Add(errorHold + 2*time.Second)
	for m.Status() != StatusDisconnected {
		if time.Now().After(deadline) {
			t.Fatal("machine never fell back to disconnected")
		}
		time.Sleep(50 * time.Millisecond)
	}

	if err := m.BeginConnect(); err != nil {
		t.Errorf("connect should be re-armed after fallback: %v", err)
	}
}

func TestErrorStateAllowsImmediateRetry(t *testing.T) {
	m := NewMachine("bluetooth", events.NewBus())
	defer m.Close()

	m.BeginConnect()
	m.Fail(errors.New("boom"))

	// A user retry from the error state is valid before the fallback fires.
	if err := m.BeginConnect(); err != nil {
		t.Fatalf("error → connecting should be allowed: %v", err)
	}
	if err := m.MarkConnected(); err != nil {
		t.Fatalf("MarkConnected: %v", err)
	}

	// The cancelled fallback timer must not yank the machine out of
	// connected afterwards.
	time.Sleep(errorHold + 500*time.Millisecond)
	if m.Status() != StatusConnected {
		t.Errorf("stale fallback timer fired, state is %s", m.Status())
	}
}

func TestTransitionsPublishEvents(t *testing.T) {
	bus := events.NewBus()
	var connected, dropped atomic.Int32
	bus.Subscribe(func(e events.Event) { connected.Add(1) }, events.TransportConnected)
	bus.Subscribe(func(e events.Event) { dropped.Add(1) }, events.TransportDisconnected)

	m := NewMachine("postgres", bus)
	defer m.Close()

	m.BeginConnect()
	m.MarkConnected()
	m.MarkDisconnected()

	if connected.Load() != 1 {
		t.Errorf("expected 1 connected event, got %d", connected.Load())
	}
	if dropped.Load() != 1 {
		t.Errorf("expected 1 disconnected event, got %d", dropped.Load())
	}
}

func TestErrorFallbackPublishesNoDropEvent(t *testing.T) {
	bus := events.NewBus()
	var dropped atomic.Int32
	bus.Subscribe(func(e events.Event) { dropped.Add(1) }, events.TransportDisconnected)

	m := NewMachine("bluetooth", bus)
	defer m.Close()

	m.BeginConnect()
	m.Fail(errors.New("boom"))

	deadline := time.Now().Add(errorHold + 2*time.Second)
	for m.Status() != StatusDisconnected {
		if time.Now().After(deadline) {
			t.Fatal("machine never fell back to disconnected")
		}
		time.Sleep(50 * time.Millisecond)
	}

	if dropped.Load() != 0 {
		t.Errorf("timed fallback should not publish a disconnect event, got %d", dropped.Load())
	}
}
