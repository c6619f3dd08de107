/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iot"
	iottypes "github.com/aws/aws-sdk-go-v2/service/iot/types"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	dptypes "github.com/aws/aws-sdk-go-v2/service/iotdataplane/types"
)

// ShadowStore is a fake of datastore.ShadowClient holding raw shadow JSON per thing.
type ShadowStore struct {
	mu      sync.RWMutex
	shadows map[string][]byte
	err     error
}

// NewShadowStore creates an empty ShadowStore
func NewShadowStore() *ShadowStore {
	return &ShadowStore{shadows: make(map[string][]byte)}
}

// WithShadow sets the raw shadow document of a thing
func (m *ShadowStore) WithShadow(thing, doc string) *ShadowStore {
	m.shadows[thing] = []byte(doc)
	return m
}

// WithError makes GetThingShadow fail
func (m *ShadowStore) WithError(err error) *ShadowStore {
	m.err = err
	return m
}

// GetThingShadow returns the stored document, or ResourceNotFoundException
func (m *ShadowStore) GetThingShadow(_ context.Context, params *iotdataplane.GetThingShadowInput, _ ...func(*iotdataplane.Options)) (*iotdataplane.GetThingShadowOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.shadows[aws.ToString(params.ThingName)]
	if !ok {
		return nil, &dptypes.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("No shadow exists with name: '%s'", aws.ToString(params.ThingName))),
		}
	}
	return &iotdataplane.GetThingShadowOutput{Payload: doc}, nil
}

// ThingRegistry is a fake of datastore.ThingRegistry with paged results.
type ThingRegistry struct {
	mu    sync.Mutex
	pages [][]iottypes.ThingAttribute
	err   error
	calls int
}

// NewThingRegistry creates a ThingRegistry returning the given pages in order
func NewThingRegistry(pages ...[]iottypes.ThingAttribute) *ThingRegistry {
	return &ThingRegistry{pages: pages}
}

// WithError makes ListThings fail
func (m *ThingRegistry) WithError(err error) *ThingRegistry {
	m.err = err
	return m
}

// ListThings returns the page selected by NextToken ("page-<n>")
func (m *ThingRegistry) ListThings(_ context.Context, params *iot.ListThingsInput, _ ...func(*iot.Options)) (*iot.ListThingsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	idx := 0
	if params.NextToken != nil {
		if _, err := fmt.Sscanf(*params.NextToken, "page-%d", &idx); err != nil {
			return nil, fmt.Errorf("mock: bad next token %q", *params.NextToken)
		}
	}
	out := &iot.ListThingsOutput{}
	if idx < len(m.pages) {
		out.Things = m.pages[idx]
	}
	if idx+1 < len(m.pages) {
		out.NextToken = aws.String(fmt.Sprintf("page-%d", idx+1))
	}
	return out, nil
}

// Calls returns the number of ListThings calls made
func (m *ThingRegistry) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Thing builds a registry entry
func Thing(name, typeName string) iottypes.ThingAttribute {
	return iottypes.ThingAttribute{
		ThingName:     aws.String(name),
		ThingArn:      aws.String("arn:aws:iot:eu-west-1:123456789012:thing/" + name),
		ThingTypeName: aws.String(typeName),
		Attributes:    map[string]string{},
		Version:       1,
	}
}

// Published is one recorded publish call
type Published struct {
	Topic   string
	QoS     int32
	Payload []byte
}

// Publisher is a fake of datastore.MessagePublisher recording each message.
type Publisher struct {
	mu       sync.Mutex
	messages []Published
	err      error
}

// NewPublisher creates a Publisher
func NewPublisher() *Publisher {
	return &Publisher{}
}

// WithError makes Publish fail
func (m *Publisher) WithError(err error) *Publisher {
	m.err = err
	return m
}

// Publish records the message
func (m *Publisher) Publish(_ context.Context, params *iotdataplane.PublishInput, _ ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	m.messages = append(m.messages, Published{
		Topic:   aws.ToString(params.Topic),
		QoS:     params.Qos,
		Payload: append([]byte(nil), params.Payload...),
	})
	return &iotdataplane.PublishOutput{}, nil
}

// Messages returns the recorded messages
func (m *Publisher) Messages() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.messages...)
}
