package services

import (
	"assetmap/models"
	"encoding/json"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher mirrors simulator telemetry onto an MQTT topic, one message
// per update. Publishing is fire-and-forget.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

func NewMQTTPublisher(broker, clientID, topic string, logger *slog.Logger) (*MQTTPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("MQTT 연결 끊김", "error", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("MQTT 연결됨", "broker", broker)
		})

	client := mqtt.NewClient(opts)
	if err := waitToken(client.Connect()); err != nil {
		return nil, fmt.Errorf("MQTT 연결 실패: %w", err)
	}
	return &MQTTPublisher{client: client, topic: topic, logger: logger}, nil
}

func (p *MQTTPublisher) Publish(t models.Telemetry) {
	payload, err := json.Marshal(t)
	if err != nil {
		p.logger.Error("텔레메트리 직렬화 실패", "object_id", t.ObjectID, "error", err)
		return
	}
	p.client.Publish(p.topic, 0, false, payload)
}

// Close - 보류 중인 전송을 잠시 기다린 뒤 연결 종료
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
