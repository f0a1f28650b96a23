package events

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTPublisher 通过 MQTT 发布生命周期事件
// Topics follow "<prefix>/<entityType>/<action>". Publishing is best-effort;
// a broker outage must never fail a registry operation.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	logger *zap.Logger
}

// MQTTOptions MQTT 连接参数
type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Prefix   string
	QoS      byte
}

func NewMQTTPublisher(opts MQTTOptions, logger *zap.Logger) (*MQTTPublisher, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetCleanSession(true)

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return newMQTTPublisher(client, opts.Prefix, opts.QoS, logger), nil
}

func newMQTTPublisher(client mqtt.Client, prefix string, qos byte, logger *zap.Logger) *MQTTPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "registry/events"
	}
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos, logger: logger}
}

func (p *MQTTPublisher) PublishLifecycle(entityType, token string, action Action) {
	topic := fmt.Sprintf("%s/%s/%s", p.prefix, entityType, action)
	t := p.client.Publish(topic, p.qos, false, marshalEvent(entityType, token, action))
	go func() {
		t.Wait()
		if err := t.Error(); err != nil {
			p.logger.Warn("Failed to publish lifecycle event",
				zap.String("topic", topic),
				zap.String("token", token),
				zap.Error(err),
			)
		}
	}()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
