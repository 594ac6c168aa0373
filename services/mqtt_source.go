package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttConnectTimeout = 10 * time.Second

// MQTTSource subscribes to a telemetry topic. Every message payload is one
// telemetry event. paho's own reconnect is disabled so the decoder's backoff
// policy applies.
type MQTTSource struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
}

func NewMQTTSource(broker, clientID, topic string) *MQTTSource {
	return &MQTTSource{Broker: broker, ClientID: clientID, Topic: topic}
}

func (s *MQTTSource) Name() string { return "mqtt" }

func (s *MQTTSource) Stream(ctx context.Context, sink EventSink) error {
	lost := make(chan error, 1)

	opts := mqtt.NewClientOptions().
		AddBroker(s.Broker).
		SetClientID(s.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			select {
			case lost <- err:
			default:
			}
		})

	client := mqtt.NewClient(opts)
	if err := waitToken(client.Connect()); err != nil {
		return fmt.Errorf("MQTT 연결 실패: %w", err)
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		payload := make([]byte, len(msg.Payload()))
		copy(payload, msg.Payload())
		sink.Event(payload)
	}
	if err := waitToken(client.Subscribe(s.Topic, s.QoS, handler)); err != nil {
		return fmt.Errorf("MQTT 구독 실패 (%s): %w", s.Topic, err)
	}

	sink.Connected()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-lost:
		return fmt.Errorf("MQTT 연결 끊김: %w", err)
	}
}

func waitToken(token mqtt.Token) error {
	if !token.WaitTimeout(mqttConnectTimeout) {
		return errors.New("timeout")
	}
	return token.Error()
}
