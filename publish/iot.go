/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"

	"github.com/suparena/iotgateway/datastore"
	gwerrors "github.com/suparena/iotgateway/errors"
)

// iotMaxQoS is the highest QoS the IoT data plane accepts.
const iotMaxQoS = 1

// IoTPublisher publishes through the AWS IoT data plane.
type IoTPublisher struct {
	client datastore.MessagePublisher
}

// NewIoTPublisher constructs an IoTPublisher.
func NewIoTPublisher(client datastore.MessagePublisher) (*IoTPublisher, error) {
	if client == nil {
		return nil, errors.New("message publisher client is required")
	}
	return &IoTPublisher{client: client}, nil
}

// Publish sends payload to topic.
func (p *IoTPublisher) Publish(ctx context.Context, topic string, payload []byte, qos int) error {
	if err := validate(topic, payload, qos, iotMaxQoS); err != nil {
		return err
	}

	_, err := p.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     int32(qos),
		Payload: payload,
	})
	if err != nil {
		return gwerrors.NewUpstreamError("iotdataplane", "Publish", fmt.Errorf("%w: %w", ErrPublishFailed, err))
	}
	return nil
}

// MaxQoS returns 1.
func (p *IoTPublisher) MaxQoS() int {
	return iotMaxQoS
}

// Close is a no-op; the SDK client holds no connection.
func (p *IoTPublisher) Close() error {
	return nil
}
