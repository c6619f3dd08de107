/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package shadow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	dptypes "github.com/aws/aws-sdk-go-v2/service/iotdataplane/types"

	"github.com/suparena/iotgateway/datastore"
	gwerrors "github.com/suparena/iotgateway/errors"
	"github.com/suparena/iotgateway/storagemodels"
)

const serviceName = "iotdataplane"

// Fetcher reads live device shadows.
type Fetcher struct {
	client datastore.ShadowClient
	retry  storagemodels.RetryPolicy
}

// NewFetcher constructs a Fetcher.
func NewFetcher(client datastore.ShadowClient) (*Fetcher, error) {
	if client == nil {
		return nil, errors.New("shadow client is required")
	}
	return &Fetcher{client: client, retry: storagemodels.DefaultRetryPolicy()}, nil
}

// WithRetryPolicy sets the retry policy applied to shadow reads.
func (f *Fetcher) WithRetryPolicy(policy storagemodels.RetryPolicy) *Fetcher {
	f.retry = policy
	return f
}

// FetchShadow returns the whole shadow document of deviceID. Numbers are kept
// as json.Number so they re-encode exactly as stored.
func (f *Fetcher) FetchShadow(ctx context.Context, deviceID string) (storagemodels.Document, error) {
	if deviceID == "" {
		return nil, gwerrors.NewValidationError("thingId", "must not be empty")
	}

	out, err := datastore.WithRetry(ctx, f.retry, func(ctx context.Context) (*iotdataplane.GetThingShadowOutput, error) {
		return f.client.GetThingShadow(ctx, &iotdataplane.GetThingShadowInput{
			ThingName: aws.String(deviceID),
		})
	})
	if err != nil {
		var nf *dptypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return nil, gwerrors.NewNotFoundError("shadow", deviceID)
		}
		return nil, gwerrors.NewUpstreamError(serviceName, "GetThingShadow", err)
	}

	dec := json.NewDecoder(bytes.NewReader(out.Payload))
	dec.UseNumber()
	var doc storagemodels.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, gwerrors.NewUpstreamError(serviceName, "GetThingShadow", fmt.Errorf("decode shadow of %q: %w", deviceID, err))
	}
	return doc, nil
}

// FetchMetric returns state.reported.<metric> of the shadow of deviceID. The
// metric name is taken literally. A missing state, reported section or metric
// is reported as NotFound.
func (f *Fetcher) FetchMetric(ctx context.Context, deviceID, metric string) (any, error) {
	if metric == "" {
		return nil, gwerrors.NewValidationError("metric", "must not be empty")
	}

	doc, err := f.FetchShadow(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	value, ok := storagemodels.Lookup(doc, "state", "reported", metric)
	if !ok {
		return nil, gwerrors.NewNotFoundError("metric", metric)
	}
	return value, nil
}
