package sensor

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTSource receives cumulative pulse counts published by the metering MCU
// and feeds them into a pulse totalizer. The payload is the plain decimal
// pulse count.
type MQTTSource struct {
	*PulseTotalizer
	client mqtt.Client
	topic  string
}

// NewMQTTSource connects to the broker and subscribes to the pulse topic.
func NewMQTTSource(brokerURL, topic, clientID string, litersPerPulse float64) (*MQTTSource, error) {
	src := &MQTTSource{
		PulseTotalizer: NewPulseTotalizer(litersPerPulse),
		topic:          topic,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("MQTT connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		// Resubscribe on every (re)connect.
		token := client.Subscribe(topic, 1, src.handleMessage)
		if token.Wait() && token.Error() != nil {
			slog.Error("Failed to subscribe to pulse topic", "topic", topic, "error", token.Error())
			return
		}
		slog.Info("Subscribed to pulse topic", "topic", topic)
	})

	src.client = mqtt.NewClient(opts)
	if token := src.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", brokerURL, token.Error())
	}

	return src, nil
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := strings.TrimSpace(string(msg.Payload()))
	count, err := strconv.ParseUint(payload, 10, 64)
	if err != nil {
		slog.Warn("Ignoring malformed pulse payload", "topic", msg.Topic(), "payload", payload)
		return
	}
	s.SetPulses(count)
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() {
	s.client.Disconnect(250)
}
