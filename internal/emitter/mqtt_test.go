package emitter

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/e7canasta/orion-wear-imu/imupipeline"
	"github.com/e7canasta/orion-wear-imu/internal/config"
)

// stubToken fails the test if the publish path ever waits on it.
type stubToken struct{}

func (stubToken) Wait() bool                     { panic("publish path waited on token") }
func (stubToken) WaitTimeout(time.Duration) bool { panic("publish path waited on token") }
func (stubToken) Done() <-chan struct{}          { return nil }
func (stubToken) Error() error                   { return nil }

type stubClient struct {
	mqtt.Client
	published []string
}

func (c *stubClient) IsConnected() bool { return true }

func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, topic)
	return stubToken{}
}

func testConfig() *config.Config {
	return &config.Config{
		InstanceID: "ward-3",
		MQTT: config.MQTTConfig{
			Broker: "localhost:1883",
			Topics: config.MQTTTopics{
				Readings: "wear/readings/ward-3",
				Health:   "wear/health/ward-3",
			},
			QoS: map[string]byte{"health": 1},
		},
	}
}

func TestPublishWhileDisconnected(t *testing.T) {
	e := NewMQTTEmitter(testConfig(), zap.NewNop().Sugar())

	err := e.Publish(imupipeline.Reading{SourceID: "left-wrist"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	err = e.PublishHealth([]byte(`{}`))
	require.Error(t, err)

	stats := e.Stats()
	assert.False(t, stats.Connected)
	assert.Equal(t, uint64(1), stats.Errors)
	assert.Empty(t, stats.Published)
}

func TestQoSDefaults(t *testing.T) {
	e := NewMQTTEmitter(testConfig(), zap.NewNop().Sugar())

	// readings class has no explicit QoS, falls back to 0
	assert.Equal(t, byte(0), e.getQoS("readings"))
	assert.Equal(t, byte(1), e.getQoS("health"))
}

func TestOnReadingSwallowsPublishErrors(t *testing.T) {
	e := NewMQTTEmitter(testConfig(), zap.NewNop().Sugar())

	var cb imupipeline.Callback = e.OnReading()
	// No broker is up; the callback must not panic or block
	cb("left-wrist", imupipeline.Reading{SourceID: "left-wrist", Seq: 7})

	assert.Equal(t, uint64(1), e.Stats().Errors)
}

func TestPublishNeverWaitsOnToken(t *testing.T) {
	e := NewMQTTEmitter(testConfig(), zap.NewNop().Sugar())
	client := &stubClient{}
	e.Client = client
	e.connected = true

	cb := e.OnReading()
	cb("left-wrist", imupipeline.Reading{SourceID: "left-wrist", Seq: 3})

	// stubToken panics on any Wait call, so reaching these asserts proves
	// the reading path is fire-and-forget
	require.Equal(t, []string{"wear/readings/ward-3/left-wrist"}, client.published)
	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.Published["wear/readings/ward-3/left-wrist"])
	assert.Equal(t, uint64(0), stats.Errors)
}

func TestStatsReturnsCopy(t *testing.T) {
	e := NewMQTTEmitter(testConfig(), zap.NewNop().Sugar())
	e.published["wear/readings/ward-3/left-wrist"] = 3

	stats := e.Stats()
	stats.Published["wear/readings/ward-3/left-wrist"] = 99

	assert.Equal(t, uint64(3), e.Stats().Published["wear/readings/ward-3/left-wrist"])
}
