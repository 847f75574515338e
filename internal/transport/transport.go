// Package transport defines the device-control backends and the
// connection state machine that gates them. Three interchangeable
// adapters exist: Bluetooth GATT (write-only, optimistic), MQTT retained
// topics and Postgres rows with a Redis change feed (both confirmed).
package transport

import (
	"context"

	"opsboard/internal/registry"
)

// ChangeHandler receives the full remote snapshot after every change
// notification. The snapshot always replaces the previous one wholesale.
type ChangeHandler func(snap registry.Snapshot)

// ErrorHandler receives subscription-level failures.
type ErrorHandler func(err error)

// Subscription is a cancellable handle for a realtime listener. Close
// must be called on view teardown and on every transition out of the
// connected state, or listeners accumulate across reconnects.
type Subscription interface {
	Close() error
}

// Transport is one device-control backend.
type Transport interface {
	Name() string

	// Connect performs the transport handshake. It is only called by the
	// state machine's connecting phase.
	Connect(ctx context.Context) error

	// Disconnect tears the transport down. Safe to call when not connected.
	Disconnect() error

	// SubscribeDevices and SubscribeSensors establish independent realtime
	// listeners. The Bluetooth adapter has no read-back channel and returns
	// inert subscriptions.
	SubscribeDevices(onChange ChangeHandler, onErr ErrorHandler) (Subscription, error)
	SubscribeSensors(onChange ChangeHandler, onErr ErrorHandler) (Subscription, error)

	// WriteState upserts one device's state through the backend.
	WriteState(ctx context.Context, deviceID string, state bool) error

	// Confirmed reports the write discipline: true means local state only
	// changes when the subscription echoes the write back; false means the
	// caller flips optimistically with no confirmation read-back.
	Confirmed() bool

	// SetDropHandler registers the callback for external disconnects and
	// connection-level errors.
	SetDropHandler(fn func(err error))
}

// noopSubscription satisfies Subscription for transports without a
// feedback channel.
type noopSubscription struct{}

func (noopSubscription) Close() error { return nil }
