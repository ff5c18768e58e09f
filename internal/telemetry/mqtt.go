package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/san-kum/motionctl/internal/dynamo"
)

type MQTTConfig struct {
	// Broker is host:port; empty disables publishing.
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	// Every publishes one sample in this many ticks.
	Every int `yaml:"every"`
}

func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{ClientID: "motionctl", Topic: "motionctl/telemetry", Every: 5}
}

// Client is the publishing half of mqtt.Client.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher is a dynamo.Observer that mirrors samples to an MQTT topic as
// JSON. Publishing never blocks the tick; failures are logged.
type Publisher struct {
	client Client
	topic  string
	every  int
	log    *zap.Logger

	ticks     int
	lastState string
	pending   mqtt.Token
}

func NewPublisher(client Client, cfg MQTTConfig, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	every := cfg.Every
	if every < 1 {
		every = 1
	}
	return &Publisher{client: client, topic: cfg.Topic, every: every, log: log}
}

// OnTick publishes every Nth sample, and every sample that changes state.
func (p *Publisher) OnTick(s dynamo.Sample) {
	changed := s.State != p.lastState
	p.lastState = s.State
	p.ticks++
	if !changed && (p.ticks-1)%p.every != 0 {
		return
	}

	payload, err := json.Marshal(s)
	if err != nil {
		p.log.Warn("encode sample", zap.Error(err))
		return
	}
	p.reap()
	p.pending = p.client.Publish(p.topic, 0, false, payload)
}

// reap reports the outcome of the previous publish without waiting for it.
func (p *Publisher) reap() {
	if p.pending == nil {
		return
	}
	select {
	case <-p.pending.Done():
		if err := p.pending.Error(); err != nil {
			p.log.Warn("mqtt publish failed", zap.String("topic", p.topic), zap.Error(err))
		}
	default:
		p.log.Debug("previous mqtt publish still in flight", zap.String("topic", p.topic))
	}
	p.pending = nil
}

// DialMQTT connects to cfg.Broker, retrying in the background if the broker
// goes away.
func DialMQTT(cfg MQTTConfig, log *zap.Logger) (mqtt.Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info("connected to mqtt broker", zap.String("broker", cfg.Broker))
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return client, nil
}
