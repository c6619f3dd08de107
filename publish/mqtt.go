/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package publish

import (
	"context"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/suparena/iotgateway/config"
	gwerrors "github.com/suparena/iotgateway/errors"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// mqttMaxQoS is the maximum QoS level supported.
	mqttMaxQoS = 2
)

// pahoClient is the subset of pahomqtt.Client used for publishing.
type pahoClient interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes to an MQTT broker.
type MQTTPublisher struct {
	client pahoClient
}

// ConnectMQTT connects to the configured broker.
func ConnectMQTT(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	client := pahomqtt.NewClient(buildClientOptions(cfg))
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return &MQTTPublisher{client: client}, nil
}

// buildClientOptions creates paho options from the broker settings.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	return opts
}

// Publish sends payload to topic and waits for the broker acknowledgement,
// or for ctx to end.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte, qos int) error {
	if err := validate(topic, payload, qos, mqttMaxQoS); err != nil {
		return err
	}
	if !p.client.IsConnected() {
		return gwerrors.NewUpstreamError("mqtt", "Publish", ErrNotConnected)
	}

	token := p.client.Publish(topic, byte(qos), false, payload)
	select {
	case <-ctx.Done():
		return gwerrors.NewUpstreamError("mqtt", "Publish", fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err()))
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return gwerrors.NewUpstreamError("mqtt", "Publish", fmt.Errorf("%w: %w", ErrPublishFailed, err))
	}
	return nil
}

// MaxQoS returns 2.
func (p *MQTTPublisher) MaxQoS() int {
	return mqttMaxQoS
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	if p.client != nil {
		p.client.Disconnect(defaultDisconnectQuiesce)
	}
	return nil
}
