/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/suparena/iotgateway/config"
	gwerrors "github.com/suparena/iotgateway/errors"
)

// fakeToken is a pahomqtt.Token that completes when done is closed.
type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

type sentMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho records publishes and returns a configurable token.
type fakePaho struct {
	connected    bool
	token        *fakeToken
	sent         []sentMessage
	disconnected bool
}

func (f *fakePaho) IsConnected() bool { return f.connected }

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.sent = append(f.sent, sentMessage{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return f.token
}

func (f *fakePaho) Disconnect(uint) { f.disconnected = true }

func TestMQTTPublisher(t *testing.T) {
	client := &fakePaho{connected: true, token: completedToken(nil)}
	p := &MQTTPublisher{client: client}

	if err := p.Publish(context.Background(), "home/alarm", []byte(`"armed"`), 2); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(client.sent) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(client.sent))
	}
	msg := client.sent[0]
	if msg.topic != "home/alarm" || msg.qos != 2 || msg.retained || string(msg.payload) != `"armed"` {
		t.Errorf("Unexpected message %+v", msg)
	}
	if p.MaxQoS() != 2 {
		t.Errorf("MaxQoS() = %d, want 2", p.MaxQoS())
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !client.disconnected {
		t.Error("Close should disconnect the client")
	}
}

func TestMQTTPublisherNotConnected(t *testing.T) {
	p := &MQTTPublisher{client: &fakePaho{connected: false}}

	err := p.Publish(context.Background(), "home/alarm", []byte("{}"), 0)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Expected ErrNotConnected, got %v", err)
	}
	if !gwerrors.IsUpstream(err) {
		t.Errorf("Expected upstream error, got %v", err)
	}
}

func TestMQTTPublisherBrokerError(t *testing.T) {
	p := &MQTTPublisher{client: &fakePaho{connected: true, token: completedToken(errors.New("not authorized"))}}

	err := p.Publish(context.Background(), "home/alarm", []byte("{}"), 1)
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("Expected ErrPublishFailed, got %v", err)
	}
}

func TestMQTTPublisherContextCancelled(t *testing.T) {
	pending := &fakeToken{done: make(chan struct{})}
	p := &MQTTPublisher{client: &fakePaho{connected: true, token: pending}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Publish(ctx, "home/alarm", []byte("{}"), 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
}

func TestMQTTPublisherRejectsInvalidQoS(t *testing.T) {
	client := &fakePaho{connected: true, token: completedToken(nil)}
	p := &MQTTPublisher{client: client}

	if err := p.Publish(context.Background(), "a/b", []byte("{}"), 3); !gwerrors.IsValidationError(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if len(client.sent) != 0 {
		t.Error("Invalid message must not be sent")
	}
}

func TestBuildClientOptions(t *testing.T) {
	opts := buildClientOptions(config.MQTTConfig{
		Broker:   "tcp://broker.local:1883",
		ClientID: "gateway-1",
		Username: "gw",
		Password: "secret",
	})

	if len(opts.Servers) != 1 || opts.Servers[0].Host != "broker.local:1883" {
		t.Errorf("Servers = %v, want broker.local:1883", opts.Servers)
	}
	if opts.ClientID != "gateway-1" {
		t.Errorf("ClientID = %q, want gateway-1", opts.ClientID)
	}
	if opts.Username != "gw" || opts.Password != "secret" {
		t.Errorf("credentials not applied: %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect should be enabled")
	}
}
