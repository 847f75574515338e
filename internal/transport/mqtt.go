package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"opsboard/internal/apperrors"
	"opsboard/internal/registry"
)

const (
	deviceTopicPrefix = "devices/"
	sensorTopicPrefix = "sensors/"
)

// mqttState is the retained JSON document held at devices/{id} and
// sensors/{id}.
type mqttState struct {
	State         bool       `json:"state"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// MQTTTransport keeps device state in retained MQTT topics. The broker
// replays retained values on subscribe, which covers the cold-start
// snapshot; every write is echoed back through the subscription, so the
// transport is confirmed.
type MQTTTransport struct {
	brokerURL string

	mu     sync.Mutex
	client *paho.Client
	up     bool
	drop   func(err error)

	devices   registry.Snapshot
	sensors   registry.Snapshot
	onDevices ChangeHandler
	onSensors ChangeHandler
}

// NewMQTTTransport creates a transport against the given broker URL
// (mqtt://host:port).
func NewMQTTTransport(brokerURL string) *MQTTTransport {
	return &MQTTTransport{
		brokerURL: brokerURL,
		devices:   registry.Snapshot{},
		sensors:   registry.Snapshot{},
	}
}

func (t *MQTTTransport) Name() string                      { return "mqtt" }
func (t *MQTTTransport) Confirmed() bool                   { return true }
func (t *MQTTTransport) SetDropHandler(fn func(err error)) { t.drop = fn }

func (t *MQTTTransport) Connect(ctx context.Context) error {
	u, err := url.Parse(t.brokerURL)
	if err != nil {
		return fmt.Errorf("%w: bad broker url: %v", apperrors.ErrTransportUnavailable, err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return fmt.Errorf("%w: dial broker: %v", apperrors.ErrTransportError, err)
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn: conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				t.handlePublish(pr.Packet.Topic, pr.Packet.Payload)
				return true, nil
			},
		},
		OnClientError: func(err error) {
			t.handleDrop(fmt.Errorf("%w: %v", apperrors.ErrTransportError, err))
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			t.handleDrop(fmt.Errorf("%w: broker menutup koneksi", apperrors.ErrTransportError))
		},
	})

	_, err = client.Connect(ctx, &paho.Connect{
		ClientID:   "opsboard-" + uuid.NewString()[:8],
		CleanStart: true,
		KeepAlive:  30,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: handshake: %v", apperrors.ErrTransportError, err)
	}

	t.mu.Lock()
	t.client = client
	t.up = true
	t.devices = registry.Snapshot{}
	t.sensors = registry.Snapshot{}
	t.mu.Unlock()
	return nil
}

func (t *MQTTTransport) Disconnect() error {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.up = false
	t.onDevices = nil
	t.onSensors = nil
	t.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}

// mqttSubscription unsubscribes its topic filter and detaches the handler.
type mqttSubscription struct {
	t      *MQTTTransport
	filter string
}

func (s *mqttSubscription) Close() error {
	s.t.mu.Lock()
	client := s.t.client
	switch s.filter {
	case deviceTopicPrefix + "+":
		s.t.onDevices = nil
	case sensorTopicPrefix + "+":
		s.t.onSensors = nil
	}
	s.t.mu.Unlock()

	if client == nil {
		return nil
	}
	_, err := client.Unsubscribe(context.Background(), &paho.Unsubscribe{
		Topics: []string{s.filter},
	})
	return err
}

func (t *MQTTTransport) SubscribeDevices(onChange ChangeHandler, onErr ErrorHandler) (Subscription, error) {
	return t.subscribe(deviceTopicPrefix+"+", onChange, onErr)
}

func (t *MQTTTransport) SubscribeSensors(onChange ChangeHandler, onErr ErrorHandler) (Subscription, error) {
	return t.subscribe(sensorTopicPrefix+"+", onChange, onErr)
}

func (t *MQTTTransport) subscribe(filter string, onChange ChangeHandler, onErr ErrorHandler) (Subscription, error) {
	t.mu.Lock()
	client := t.client
	if client == nil {
		t.mu.Unlock()
		return nil, apperrors.ErrTransportUnavailable
	}
	switch filter {
	case deviceTopicPrefix + "+":
		t.onDevices = onChange
	case sensorTopicPrefix + "+":
		t.onSensors = onChange
	}
	t.mu.Unlock()

	_, err := client.Subscribe(context.Background(), &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: filter, QoS: 1}},
	})
	if err != nil {
		wrapped := fmt.Errorf("%w: subscribe %s: %v", apperrors.ErrTransportError, filter, err)
		if onErr != nil {
			onErr(wrapped)
		}
		return nil, wrapped
	}
	return &mqttSubscription{t: t, filter: filter}, nil
}

// WriteState publishes the new state as a retained document. Local state
// is not touched here; it changes when the broker echoes the publish.
func (t *MQTTTransport) WriteState(ctx context.Context, deviceID string, state bool) error {
	t.mu.Lock()
	client := t.client
	up := t.up
	t.mu.Unlock()

	if client == nil || !up {
		return apperrors.ErrTransportUnavailable
	}

	now := time.Now().UTC()
	payload, err := json.Marshal(mqttState{State: state, UpdatedAt: &now})
	if err != nil {
		return err
	}

	_, err = client.Publish(ctx, &paho.Publish{
		Topic:   deviceTopicPrefix + deviceID,
		QoS:     1,
		Retain:  true,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("%w: publish: %v", apperrors.ErrTransportError, err)
	}
	return nil
}

// handlePublish folds one topic update into the matching snapshot and
// hands the full replacement snapshot to the subscriber.
func (t *MQTTTransport) handlePublish(topic string, payload []byte) {
	var doc mqttState
	if err := json.Unmarshal(payload, &doc); err != nil {
		log.Printf("mqtt: malformed payload on %s: %v", topic, err)
		return
	}

	t.mu.Lock()
	var handler ChangeHandler
	var snap registry.Snapshot
	switch {
	case strings.HasPrefix(topic, deviceTopicPrefix):
		id := strings.TrimPrefix(topic, deviceTopicPrefix)
		t.devices[id] = registry.RemoteState{State: doc.State}
		snap = cloneSnapshot(t.devices)
		handler = t.onDevices
	case strings.HasPrefix(topic, sensorTopicPrefix):
		id := strings.TrimPrefix(topic, sensorTopicPrefix)
		t.sensors[id] = registry.RemoteState{State: doc.State, LastTriggered: doc.LastTriggered}
		snap = cloneSnapshot(t.sensors)
		handler = t.onSensors
	}
	t.mu.Unlock()

	if handler != nil {
		handler(snap)
	}
}

func (t *MQTTTransport) handleDrop(err error) {
	t.mu.Lock()
	wasUp := t.up
	t.up = false
	t.client = nil
	t.onDevices = nil
	t.onSensors = nil
	fn := t.drop
	t.mu.Unlock()

	if wasUp && fn != nil {
		fn(err)
	}
}

func cloneSnapshot(snap registry.Snapshot) registry.Snapshot {
	out := make(registry.Snapshot, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out
}
