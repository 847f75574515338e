package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"opsboard/internal/apperrors"
)

const scanTimeout = 15 * time.Second

// bleCentral is the production gattLink over the host's BLE adapter.
type bleCentral struct {
	adapter     *bluetooth.Adapter
	serviceUUID bluetooth.UUID
	charUUID    bluetooth.UUID

	mu        sync.Mutex
	device    bluetooth.Device
	char      bluetooth.DeviceCharacteristic
	connected bool
	onDrop    func()
}

// NewBLECentral creates a GATT link that scans for the fixed service
// UUID and writes to the fixed characteristic.
func NewBLECentral(serviceUUID, charUUID string) (*bleCentral, error) {
	svc, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("bad service uuid: %w", err)
	}
	chr, err := bluetooth.ParseUUID(charUUID)
	if err != nil {
		return nil, fmt.Errorf("bad characteristic uuid: %w", err)
	}
	return &bleCentral{
		adapter:     bluetooth.DefaultAdapter,
		serviceUUID: svc,
		charUUID:    chr,
	}, nil
}

func (c *bleCentral) SetDropHandler(fn func()) {
	c.mu.Lock()
	c.onDrop = fn
	c.mu.Unlock()
}

func (c *bleCentral) Connect(ctx context.Context) error {
	if err := c.adapter.Enable(); err != nil {
		return fmt.Errorf("%w: adapter Bluetooth tidak tersedia: %v", apperrors.ErrTransportUnavailable, err)
	}

	c.adapter.SetConnectHandler(func(dev bluetooth.Device, connected bool) {
		if connected {
			return
		}
		c.mu.Lock()
		wasConnected := c.connected
		c.connected = false
		fn := c.onDrop
		c.mu.Unlock()
		if wasConnected && fn != nil {
			fn()
		}
	})

	result, err := c.scan(ctx)
	if err != nil {
		return err
	}

	device, err := c.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("%w: connect: %v", apperrors.ErrTransportError, err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{c.serviceUUID})
	if err != nil || len(services) == 0 {
		device.Disconnect()
		return fmt.Errorf("%w: service tidak ditemukan: %v", apperrors.ErrTransportError, err)
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{c.charUUID})
	if err != nil || len(chars) == 0 {
		device.Disconnect()
		return fmt.Errorf("%w: characteristic tidak ditemukan: %v", apperrors.ErrTransportError, err)
	}

	c.mu.Lock()
	c.device = device
	c.char = chars[0]
	c.connected = true
	c.mu.Unlock()
	return nil
}

// scan looks for a peripheral advertising the control service. Scan
// blocks until StopScan, so a watcher goroutine enforces the deadline.
func (c *bleCentral) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	found := make(chan bluetooth.ScanResult, 1)
	go func() {
		<-scanCtx.Done()
		c.adapter.StopScan()
	}()

	err := c.adapter.Scan(func(a *bluetooth.Adapter, res bluetooth.ScanResult) {
		if res.HasServiceUUID(c.serviceUUID) {
			select {
			case found <- res:
			default:
			}
			a.StopScan()
		}
	})
	if err != nil {
		return bluetooth.ScanResult{}, fmt.Errorf("%w: scan: %v", apperrors.ErrTransportError, err)
	}

	select {
	case res := <-found:
		return res, nil
	default:
		return bluetooth.ScanResult{}, fmt.Errorf("%w: tidak ada perangkat ditemukan", apperrors.ErrTransportError)
	}
}

func (c *bleCentral) Write(payload []byte) error {
	c.mu.Lock()
	connected := c.connected
	chr := c.char
	c.mu.Unlock()

	if !connected {
		return apperrors.ErrTransportUnavailable
	}
	if _, err := chr.WriteWithoutResponse(payload); err != nil {
		return err
	}
	return nil
}

func (c *bleCentral) Disconnect() error {
	c.mu.Lock()
	connected := c.connected
	c.connected = false
	device := c.device
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return device.Disconnect()
}
