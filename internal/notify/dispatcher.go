// Package notify forwards noteworthy events to external services via
// Shoutrrr. Targets come from the environment rather than a settings
// table: operational alerts for this dashboard go to a fixed set of
// channels picked at deploy time.
package notify

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"

	"opsboard/internal/events"
)

// Cooldown between repeated notifications of the same event type. A
// flapping transport would otherwise flood every channel.
const defaultCooldown = 60 * time.Second

// Sender abstracts message dispatch so the dispatcher can be tested
// without hitting real services.
type Sender interface {
	Send(shoutrrrURL, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// Dispatcher subscribes to the event bus, filters by severity, enforces
// per-event-type cooldowns, and dispatches via Shoutrrr.
type Dispatcher struct {
	urls   []string
	bus    *events.Bus
	sender Sender

	// cooldowns tracks the last dispatch time per event type.
	mu        sync.Mutex
	cooldowns map[events.EventType]time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher wired to the given bus. urls are
// Shoutrrr service URLs; an empty list makes the dispatcher inert.
func NewDispatcher(urls []string, bus *events.Bus, sender Sender) *Dispatcher {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Dispatcher{
		urls:      urls,
		bus:       bus,
		sender:    sender,
		cooldowns: make(map[events.EventType]time.Time),
		stopCh:    make(chan struct{}),
	}
}

// Start subscribes to the bus and begins dispatching.
func (d *Dispatcher) Start() {
	ch := make(chan events.Event, 256)

	d.bus.Subscribe(func(e events.Event) {
		select {
		case ch <- e:
		default:
			log.Printf("notify: event queue full, dropping %s event", e.Type)
		}
	})

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e := <-ch:
				d.handle(e)
			case <-d.stopCh:
				// Drain remaining events
				for {
					select {
					case e := <-ch:
						d.handle(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop signals the dispatcher goroutine to finish and waits for it.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

// handle filters a single event and fans it out to every target URL.
func (d *Dispatcher) handle(e events.Event) {
	if len(d.urls) == 0 {
		return
	}
	if e.Severity == events.SeverityInfo {
		return
	}
	if !d.cooldownElapsed(e.Type) {
		return
	}

	msg := formatMessage(e)
	for _, url := range d.urls {
		if err := d.sender.Send(url, msg); err != nil {
			log.Printf("notify: send failed: %v", err)
		}
	}
}

// cooldownElapsed reports whether enough time has passed since the last
// dispatch for this event type, and records the attempt if so.
func (d *Dispatcher) cooldownElapsed(t events.EventType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.cooldowns[t]; ok && now.Sub(last) < defaultCooldown {
		return false
	}
	d.cooldowns[t] = now
	return true
}

// formatMessage builds a human-readable notification string.
func formatMessage(e events.Event) string {
	msg := fmt.Sprintf("[%s] %s", e.Severity.String(), e.Message)
	if e.DeviceID != "" {
		msg = fmt.Sprintf("[%s] [%s] %s", e.Severity.String(), e.DeviceID, e.Message)
	}
	return msg
}
