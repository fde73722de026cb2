package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/e7canasta/orion-wear-imu/imupipeline"
	"github.com/e7canasta/orion-wear-imu/internal/config"
)

// MQTTEmitter publishes enriched readings to an MQTT broker
type MQTTEmitter struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	Client mqtt.Client // Exported for health probes

	mu        sync.RWMutex
	published map[string]uint64 // count per topic
	errors    uint64
	connected bool
}

// NewMQTTEmitter creates a new MQTT emitter
func NewMQTTEmitter(cfg *config.Config, log *zap.SugaredLogger) *MQTTEmitter {
	return &MQTTEmitter{
		cfg:       cfg,
		log:       log,
		published: make(map[string]uint64),
	}
}

// Connect establishes connection to the MQTT broker
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", e.cfg.MQTT.Broker))
	opts.SetClientID(e.cfg.InstanceID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	// Connection handlers
	opts.OnConnect = func(c mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		e.mu.Unlock()
		e.log.Infow("mqtt connection established",
			"broker", e.cfg.MQTT.Broker,
			"client_id", e.cfg.InstanceID,
			"auto_reconnect", "enabled")
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		e.log.Warnw("mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", e.cfg.MQTT.Broker,
			"max_retry_interval", "30s")
	}

	e.Client = mqtt.NewClient(opts)

	e.log.Infow("connecting to mqtt broker", "broker", e.cfg.MQTT.Broker)

	token := e.Client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	e.mu.Lock()
	e.connected = true
	e.mu.Unlock()

	return nil
}

// OnReading returns a pipeline callback that publishes every enriched
// reading to <topics.readings>/<source_id>. A disconnected broker drops
// the reading; the dispatcher never waits for MQTT.
func (e *MQTTEmitter) OnReading() imupipeline.Callback {
	return func(sourceID string, r imupipeline.Reading) {
		if err := e.Publish(r); err != nil {
			e.log.Debugw("reading not published", "source", sourceID, "error", err)
		}
	}
}

// Publish publishes one reading to its per-source topic.
//
// Fire and forget: the publish token resolves on paho's network goroutine
// and is never waited on here, because Publish runs on the dispatcher
// goroutine via OnReading and callbacks must not block. A stalled broker
// socket therefore costs queued paho buffers, not fan-out latency.
func (e *MQTTEmitter) Publish(r imupipeline.Reading) error {
	if !e.isConnected() {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("mqtt not connected")
	}

	// Build topic: wear/readings/{instance_id}/{source_id}
	topic := fmt.Sprintf("%s/%s", e.cfg.MQTT.Topics.Readings, r.SourceID)
	qos := e.getQoS("readings")

	payload, err := json.Marshal(r)
	if err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	e.Client.Publish(topic, qos, false, payload)

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()

	return nil
}

// PublishHealth publishes a health snapshot payload
func (e *MQTTEmitter) PublishHealth(payload []byte) error {
	if !e.isConnected() {
		return fmt.Errorf("mqtt not connected")
	}

	topic := e.cfg.MQTT.Topics.Health
	qos := e.getQoS("health")

	token := e.Client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish timeout")
	}

	return token.Error()
}

// Disconnect closes the MQTT connection
func (e *MQTTEmitter) Disconnect() error {
	if e.Client != nil && e.Client.IsConnected() {
		e.Client.Disconnect(250) // 250ms grace period
		e.log.Infow("mqtt disconnected")
	}

	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()

	return nil
}

// Stats returns emitter statistics
func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64)
	for k, v := range e.published {
		published[k] = v
	}

	return Stats{
		Connected: e.connected,
		Published: published,
		Errors:    e.errors,
	}
}

// Stats contains emitter statistics
type Stats struct {
	Connected bool
	Published map[string]uint64
	Errors    uint64
}

// isConnected returns connection status
func (e *MQTTEmitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

// getQoS returns the QoS level for a topic class
func (e *MQTTEmitter) getQoS(class string) byte {
	if qos, ok := e.cfg.MQTT.QoS[class]; ok {
		return qos
	}
	return 0 // default QoS 0
}
