package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	mqttQoS            = 1
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMillis  = 250
)

// MQTTMirror publishes each snapshot as a retained message, so a device
// that connects later receives the current forum at once.
type MQTTMirror struct {
	client mqtt.Client
	topic  string
}

// DialMQTT connects to brokerURL and returns a mirror publishing to topic.
func DialMQTT(brokerURL, clientID, topic string) (*MQTTMirror, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.WithField("broker", brokerURL).Info("MQTT connected")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", brokerURL, err)
	}
	return NewMQTTMirror(client, topic), nil
}

// NewMQTTMirror wraps an already configured client.
func NewMQTTMirror(client mqtt.Client, topic string) *MQTTMirror {
	return &MQTTMirror{client: client, topic: topic}
}

// PublishSnapshot sends s to the topic and waits for the broker to accept it.
func (m *MQTTMirror) PublishSnapshot(ctx context.Context, s Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	token := m.client.Publish(m.topic, mqttQoS, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mqttPublishTimeout):
		return fmt.Errorf("mqtt publish to %s timed out", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", m.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTTMirror) Close() {
	m.client.Disconnect(mqttQuiesceMillis)
}
