/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"context"
	"encoding/json"

	"github.com/suparena/iotgateway/storagemodels"
	"github.com/suparena/iotgateway/weather"
)

// ObjectBrowser lists a bucket with retrieval URLs and tags.
type ObjectBrowser interface {
	Browse(ctx context.Context, prefix string) ([]storagemodels.StoredObject, error)
}

// TableReader returns every item of a table sorted by one field.
type TableReader interface {
	SortedTable(ctx context.Context, table, field string) ([]storagemodels.Document, error)
}

// TableRef names a table and the field its listing is sorted by.
type TableRef struct {
	Table  string
	SortBy string
}

// HistoryQuerier returns the stored samples of one device metric, newest first.
type HistoryQuerier interface {
	QueryHistory(ctx context.Context, deviceID, metric string) ([]storagemodels.HistoryRecord, error)
}

// ShadowReader reads live device shadows.
type ShadowReader interface {
	FetchShadow(ctx context.Context, deviceID string) (storagemodels.Document, error)
	FetchMetric(ctx context.Context, deviceID, metric string) (any, error)
}

// ThingLister lists registered things.
type ThingLister interface {
	ListThings(ctx context.Context) ([]storagemodels.Thing, error)
}

// WeatherProvider returns current weather conditions as raw JSON.
type WeatherProvider interface {
	Current(ctx context.Context, loc weather.Location) (json.RawMessage, error)
}
