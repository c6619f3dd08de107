/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package shadow

import (
	"context"
	"errors"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iot"

	"github.com/suparena/iotgateway/datastore"
	gwerrors "github.com/suparena/iotgateway/errors"
	"github.com/suparena/iotgateway/storagemodels"
)

// Registry lists the things known to the IoT control plane.
type Registry struct {
	client datastore.ThingRegistry
	retry  storagemodels.RetryPolicy
}

// NewRegistry constructs a Registry.
func NewRegistry(client datastore.ThingRegistry) (*Registry, error) {
	if client == nil {
		return nil, errors.New("thing registry client is required")
	}
	return &Registry{client: client, retry: storagemodels.DefaultRetryPolicy()}, nil
}

// WithRetryPolicy sets the retry policy applied to each listing page.
func (r *Registry) WithRetryPolicy(policy storagemodels.RetryPolicy) *Registry {
	r.retry = policy
	return r
}

// ListThings returns every registered thing sorted by name.
func (r *Registry) ListThings(ctx context.Context) ([]storagemodels.Thing, error) {
	input := &iot.ListThingsInput{}
	things := make([]storagemodels.Thing, 0)

	for {
		out, err := datastore.WithRetry(ctx, r.retry, func(ctx context.Context) (*iot.ListThingsOutput, error) {
			return r.client.ListThings(ctx, input)
		})
		if err != nil {
			return nil, gwerrors.NewUpstreamError("iot", "ListThings", err)
		}

		for _, t := range out.Things {
			attrs := t.Attributes
			if attrs == nil {
				attrs = map[string]string{}
			}
			things = append(things, storagemodels.Thing{
				ThingName:     aws.ToString(t.ThingName),
				ThingArn:      aws.ToString(t.ThingArn),
				ThingTypeName: aws.ToString(t.ThingTypeName),
				Attributes:    attrs,
				Version:       t.Version,
			})
		}

		if aws.ToString(out.NextToken) == "" {
			break
		}
		input.NextToken = out.NextToken
	}

	sort.SliceStable(things, func(i, j int) bool {
		return things[i].ThingName < things[j].ThingName
	})
	return things, nil
}
