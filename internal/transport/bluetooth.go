package transport

import (
	"context"
	"fmt"

	"opsboard/internal/apperrors"
	"opsboard/internal/registry"
)

// gattLink abstracts the BLE central so the transport is testable
// without hardware. The production implementation lives in ble_central.go.
type gattLink interface {
	Connect(ctx context.Context) error
	Write(payload []byte) error
	Disconnect() error
	SetDropHandler(fn func())
}

// BluetoothTransport drives an ESP32-class controller over a single GATT
// characteristic. The wire contract is one byte per command: the device's
// catalog-assigned numeric code, which the firmware interprets as a
// toggle. There is no read-back channel, so writes are unconfirmed and
// the caller flips state optimistically.
type BluetoothTransport struct {
	link gattLink
	drop func(err error)
}

// NewBluetoothTransport builds the transport around the given GATT link.
func NewBluetoothTransport(link gattLink) *BluetoothTransport {
	t := &BluetoothTransport{link: link}
	link.SetDropHandler(func() {
		if t.drop != nil {
			t.drop(fmt.Errorf("%w: koneksi GATT terputus", apperrors.ErrTransportError))
		}
	})
	return t
}

func (t *BluetoothTransport) Name() string { return "bluetooth" }

// Confirmed is false: the firmware never echoes state back.
func (t *BluetoothTransport) Confirmed() bool { return false }

func (t *BluetoothTransport) SetDropHandler(fn func(err error)) { t.drop = fn }

func (t *BluetoothTransport) Connect(ctx context.Context) error {
	if err := t.link.Connect(ctx); err != nil {
		return err
	}
	return nil
}

func (t *BluetoothTransport) Disconnect() error {
	return t.link.Disconnect()
}

// SubscribeDevices returns an inert subscription; Bluetooth has no
// snapshot channel.
func (t *BluetoothTransport) SubscribeDevices(ChangeHandler, ErrorHandler) (Subscription, error) {
	return noopSubscription{}, nil
}

func (t *BluetoothTransport) SubscribeSensors(ChangeHandler, ErrorHandler) (Subscription, error) {
	return noopSubscription{}, nil
}

// WriteState transmits the device's numeric code. The desired boolean is
// not on the wire; the firmware treats the code as a toggle command.
func (t *BluetoothTransport) WriteState(ctx context.Context, deviceID string, state bool) error {
	spec, ok := registry.DeviceByID(deviceID)
	if !ok {
		return fmt.Errorf("unknown device %q", deviceID)
	}
	if err := t.link.Write([]byte{spec.Code}); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrTransportError, err)
	}
	return nil
}
