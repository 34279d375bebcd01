package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/legendik/volta-bridge/internal/volta"
)

// Config carries the MQTT settings from the service configuration.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// publisher is the subset of the paho client the bridge uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher mirrors each published snapshot onto MQTT topics so
// home-automation consumers can subscribe without polling the REST API.
// Values go to <prefix>/values/<key>, the whole snapshot as JSON to
// <prefix>/snapshot, availability to <prefix>/availability. Everything
// is retained: a late subscriber sees the current state immediately.
type Publisher struct {
	client publisher
	prefix string
	logger *zap.Logger
}

// Connect dials the broker and returns a ready publisher.
func Connect(cfg Config, logger *zap.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetWill(cfg.TopicPrefix+"/availability", "offline", 0, true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	logger.Info("MQTT connected", zap.String("broker", cfg.Broker))
	return &Publisher{client: client, prefix: cfg.TopicPrefix, logger: logger}, nil
}

// OnSnapshot implements the coordinator subscriber.
func (p *Publisher) OnSnapshot(snap volta.Snapshot) {
	for key, value := range snap {
		p.publish(p.prefix+"/values/"+key, encodeValue(value))
	}

	if data, err := json.Marshal(snap); err == nil {
		p.publish(p.prefix+"/snapshot", string(data))
	} else {
		p.logger.Error("Failed to marshal snapshot for MQTT", zap.Error(err))
	}
}

// OnAvailability implements the coordinator subscriber.
func (p *Publisher) OnAvailability(available bool) {
	payload := "offline"
	if available {
		payload = "online"
	}
	p.publish(p.prefix+"/availability", payload)
}

// Close flushes outstanding messages and disconnects.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func (p *Publisher) publish(topic, payload string) {
	token := p.client.Publish(topic, 0, true, payload)
	// Snapshot publication must not block the poll goroutine on a slow
	// broker; paho queues the message and reconnects on its own.
	go func() {
		if token.Wait() && token.Error() != nil {
			p.logger.Warn("MQTT publish failed",
				zap.String("topic", topic), zap.Error(token.Error()))
		}
	}()
}

// encodeValue renders one snapshot value as an MQTT payload.
func encodeValue(v any) string {
	switch value := v.(type) {
	case bool:
		if value {
			return "1"
		}
		return "0"
	case string:
		return value
	default:
		return fmt.Sprintf("%v", value)
	}
}
