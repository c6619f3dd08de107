/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"github.com/go-openapi/strfmt"
)

// StoredObject describes one listed object of a bucket, enriched with a
// time-limited retrieval URL and its tag set.
type StoredObject struct {
	// Key is the object key.
	Key string `json:"name"`
	// RetrievalURL is a presigned GET URL valid for the configured TTL.
	RetrievalURL string `json:"url"`
	// LastModified is when the object was last written.
	LastModified strfmt.DateTime `json:"timestamp"`
	// SizeBytes is the object size.
	SizeBytes int64 `json:"size"`
	// ContentHash is the entity tag with its quoting stripped.
	ContentHash string `json:"etag"`
	// Tags is the object's tag set in backend order.
	Tags []Tag `json:"tags,omitempty"`
}

// Tag is a single name/value pair attached to a stored object.
type Tag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// HistoryRecord is one flattened sensor document: the partition key, the sort
// key and the metric leaf value as top-level fields.
type HistoryRecord map[string]any

// Document is an untyped document as read from the document database or the
// shadow service.
type Document = map[string]any

// Thing is a registered IoT device as returned by the thing registry.
type Thing struct {
	ThingName     string            `json:"thingName"`
	ThingArn      string            `json:"thingArn,omitempty"`
	ThingTypeName string            `json:"thingTypeName,omitempty"`
	Attributes    map[string]string `json:"attributes"`
	Version       int64             `json:"version"`
}

// HistoryTable names the sensor table and its two-part key.
type HistoryTable struct {
	// Name is the DynamoDB table name.
	Name string
	// PartitionKey is the attribute holding the device identifier.
	PartitionKey string
	// SortKey is the attribute holding the sample timestamp.
	SortKey string
}
