// Package devices owns the command path between the dashboard and the
// active transport: connect/disconnect, snapshot bookkeeping and the
// toggle operation.
package devices

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"opsboard/internal/apperrors"
	"opsboard/internal/events"
	"opsboard/internal/metrics"
	"opsboard/internal/registry"
	"opsboard/internal/transport"
)

// updatingHold keeps the per-device loading marker visible briefly after
// a toggle, success or failure. It is a UI affordance, not a lock: rapid
// repeated toggles on the same device can overlap.
const updatingHold = 600 * time.Millisecond

// Controller mediates every device mutation through the configured
// transport and reconciles local state with confirmed state.
type Controller struct {
	tr      transport.Transport
	machine *transport.Machine
	bus     *events.Bus

	mu       sync.Mutex
	devices  registry.Snapshot
	sensors  registry.Snapshot
	updating map[string]*time.Timer
	subs     []transport.Subscription
	closed   bool
}

// NewController wires a controller to its transport and the event bus.
func NewController(tr transport.Transport, bus *events.Bus) *Controller {
	c := &Controller{
		tr:       tr,
		machine:  transport.NewMachine(tr.Name(), bus),
		bus:      bus,
		devices:  registry.Snapshot{},
		sensors:  registry.Snapshot{},
		updating: make(map[string]*time.Timer),
	}
	tr.SetDropHandler(c.handleDrop)
	return c
}

// Status returns the connection state for the UI.
func (c *Controller) Status() transport.Status {
	return c.machine.Status()
}

// TransportName reports which backend is configured.
func (c *Controller) TransportName() string {
	return c.tr.Name()
}

// Connect runs the explicit user connect action: handshake, then both
// realtime subscriptions. Any failure tears down whatever came up and
// parks the machine in the error state until the timed fallback re-arms.
func (c *Controller) Connect(ctx context.Context) error {
	if err := c.machine.BeginConnect(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrTransportUnavailable, err)
	}

	if err := c.tr.Connect(ctx); err != nil {
		c.machine.Fail(err)
		return err
	}

	devSub, err := c.tr.SubscribeDevices(c.applyDeviceSnapshot, c.handleSubscriptionError)
	if err != nil {
		c.tr.Disconnect()
		c.machine.Fail(err)
		return err
	}
	senSub, err := c.tr.SubscribeSensors(c.applySensorSnapshot, c.handleSubscriptionError)
	if err != nil {
		devSub.Close()
		c.tr.Disconnect()
		c.machine.Fail(err)
		return err
	}

	c.mu.Lock()
	c.subs = []transport.Subscription{devSub, senSub}
	c.mu.Unlock()

	return c.machine.MarkConnected()
}

// Disconnect runs the explicit user disconnect action.
func (c *Controller) Disconnect() error {
	c.releaseSubscriptions()
	c.tr.Disconnect()
	return c.machine.MarkDisconnected()
}

// Toggle negates currentState (the value the caller saw, not a re-read)
// and writes it through the transport. Refused while not connected. On
// the optimistic Bluetooth path the local overlay flips immediately; on
// confirmed transports it changes only when the subscription echoes.
func (c *Controller) Toggle(ctx context.Context, deviceID string, currentState bool) error {
	if _, ok := registry.DeviceByID(deviceID); !ok {
		return fmt.Errorf("%w: perangkat %q tidak dikenal", apperrors.ErrValidation, deviceID)
	}

	if c.machine.Status() != transport.StatusConnected {
		metrics.Toggles.WithLabelValues(c.tr.Name(), "refused").Inc()
		return apperrors.ErrTransportUnavailable
	}

	c.markUpdating(deviceID)

	newState := !currentState
	if err := c.tr.WriteState(ctx, deviceID, newState); err != nil {
		metrics.Toggles.WithLabelValues(c.tr.Name(), "error").Inc()
		c.bus.Publish(events.Event{
			Type:      events.TransportError,
			Severity:  events.SeverityWarning,
			DeviceID:  deviceID,
			Transport: c.tr.Name(),
			Message:   fmt.Sprintf("gagal mengirim perintah ke %s", deviceID),
		})
		if errors.Is(err, apperrors.ErrTransportUnavailable) || errors.Is(err, apperrors.ErrTransportError) {
			return err
		}
		return fmt.Errorf("%w: %v", apperrors.ErrTransportError, err)
	}
	metrics.Toggles.WithLabelValues(c.tr.Name(), "success").Inc()

	if !c.tr.Confirmed() {
		// Copy-on-write: snapshot maps are shared with readers after the
		// reference leaves the lock, so the flip goes into a fresh map.
		c.mu.Lock()
		next := make(registry.Snapshot, len(c.devices)+1)
		for id, rs := range c.devices {
			next[id] = rs
		}
		next[deviceID] = registry.RemoteState{State: newState}
		c.devices = next
		c.mu.Unlock()
		c.bus.Publish(events.Event{Type: events.DeviceStateChanged, DeviceID: deviceID})
	}

	c.bus.Publish(events.Event{
		Type:      events.DeviceToggled,
		DeviceID:  deviceID,
		Transport: c.tr.Name(),
		Message:   fmt.Sprintf("%s di-toggle ke %t", deviceID, newState),
	})
	return nil
}

// Devices returns the full catalog merged against the latest snapshot.
// Snapshot maps are replaced wholesale and never mutated in place, so
// reading the reference under the lock is enough.
func (c *Controller) Devices() []registry.Device {
	c.mu.Lock()
	snap := c.devices
	c.mu.Unlock()
	return registry.MergeDevices(snap)
}

// Sensors returns the sensor catalog merged against the latest snapshot.
func (c *Controller) Sensors() []registry.Sensor {
	c.mu.Lock()
	snap := c.sensors
	c.mu.Unlock()
	return registry.MergeSensors(snap)
}

// Updating lists device ids currently holding a loading marker.
func (c *Controller) Updating() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.updating))
	for id := range c.updating {
		ids = append(ids, id)
	}
	return ids
}

// Close releases listeners, pending marker timers and the transport.
// Safe to call once at shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, timer := range c.updating {
		timer.Stop()
		delete(c.updating, id)
	}
	c.mu.Unlock()

	c.releaseSubscriptions()
	c.tr.Disconnect()
	c.machine.Close()
}

// markUpdating adds the advisory loading marker and arms its clear timer.
// A second toggle on the same device just re-arms the timer.
func (c *Controller) markUpdating(deviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if timer, ok := c.updating[deviceID]; ok {
		timer.Stop()
	}
	c.updating[deviceID] = time.AfterFunc(updatingHold, func() {
		c.mu.Lock()
		delete(c.updating, deviceID)
		c.mu.Unlock()
	})
}

// applyDeviceSnapshot replaces the device overlay wholesale, in delivery
// order.
func (c *Controller) applyDeviceSnapshot(snap registry.Snapshot) {
	c.mu.Lock()
	c.devices = snap
	c.mu.Unlock()
	c.bus.Publish(events.Event{Type: events.DeviceStateChanged})
}

// applySensorSnapshot replaces the sensor overlay and raises an event per
// sensor that flipped on since the previous snapshot.
func (c *Controller) applySensorSnapshot(snap registry.Snapshot) {
	c.mu.Lock()
	prev := c.sensors
	c.sensors = snap
	c.mu.Unlock()

	for id, rs := range snap {
		if rs.State && !prev[id].State {
			c.bus.Publish(events.Event{
				Type:     events.SensorTriggered,
				Severity: events.SeverityWarning,
				DeviceID: id,
				Message:  fmt.Sprintf("sensor %s aktif", id),
			})
		}
	}
	c.bus.Publish(events.Event{Type: events.DeviceStateChanged})
}

// handleDrop reacts to an external transport disconnect.
func (c *Controller) handleDrop(err error) {
	log.Printf("⚡ Transport %s terputus: %v", c.tr.Name(), err)
	c.releaseSubscriptions()
	c.machine.MarkDisconnected()
}

// handleSubscriptionError tears down sibling listeners and parks the
// machine in the error state; a half-connected view is worse than a
// disconnected one.
func (c *Controller) handleSubscriptionError(err error) {
	log.Printf("⚡ Langganan %s gagal: %v", c.tr.Name(), err)
	c.releaseSubscriptions()
	c.tr.Disconnect()
	c.machine.Fail(err)
}

func (c *Controller) releaseSubscriptions() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		if err := s.Close(); err != nil {
			log.Printf("⚠️  Gagal menutup langganan: %v", err)
		}
	}
}
