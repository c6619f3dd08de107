/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	gwerrors "github.com/suparena/iotgateway/errors"
)

// maxPayloadSize is the largest message either backend accepts (128 KiB for AWS IoT).
const maxPayloadSize = 128 << 10

// Domain-specific errors for publish operations.
var (
	// ErrNotConnected is returned when the broker connection is down.
	ErrNotConnected = errors.New("publish: client not connected")

	// ErrConnectionFailed is returned when the initial broker connection fails.
	ErrConnectionFailed = errors.New("publish: connection failed")

	// ErrPublishFailed is returned when a message could not be delivered.
	ErrPublishFailed = errors.New("publish: publish failed")
)

// Publisher sends one message to a topic.
type Publisher interface {
	// Publish delivers payload to topic with the given QoS level.
	Publish(ctx context.Context, topic string, payload []byte, qos int) error
	// MaxQoS is the highest QoS level the backend supports.
	MaxQoS() int
	// Close releases the backend connection.
	Close() error
}

// EncodePayload returns the message body for a raw payload parameter: the
// value encoded as a JSON string, or an empty JSON object when absent.
func EncodePayload(raw string, present bool) []byte {
	if !present {
		return []byte("{}")
	}
	body, _ := json.Marshal(raw)
	return body
}

// ParseQoS parses a qos parameter. An empty value is QoS 0; anything that is
// not an integer in [0, max] is a validation error.
func ParseQoS(raw string, max int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	qos, err := strconv.Atoi(raw)
	if err != nil || qos < 0 || qos > max {
		return 0, gwerrors.NewValidationError("qos", fmt.Sprintf("must be an integer between 0 and %d", max))
	}
	return qos, nil
}

func validate(topic string, payload []byte, qos, max int) error {
	if topic == "" {
		return gwerrors.NewValidationError("topic", "must not be empty")
	}
	if qos < 0 || qos > max {
		return gwerrors.NewValidationError("qos", fmt.Sprintf("must be between 0 and %d", max))
	}
	if len(payload) > maxPayloadSize {
		return gwerrors.NewValidationError("payload", fmt.Sprintf("size %d exceeds maximum %d bytes", len(payload), maxPayloadSize))
	}
	return nil
}
