/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/iotgateway/datastore"
	gwerrors "github.com/suparena/iotgateway/errors"
	"github.com/suparena/iotgateway/storagemodels"
)

const serviceName = "dynamodb"

// reportedPrefix is where sensor documents keep the reported device state.
var reportedPrefix = []string{"payload", "state", "reported"}

// MetricPath returns the full attribute path of a dotted metric name inside a
// stored sensor document. Every segment must be non-empty.
func MetricPath(metric string) ([]string, error) {
	if metric == "" {
		return nil, gwerrors.NewValidationError("metric", "must not be empty")
	}
	segments := strings.Split(metric, ".")
	for _, s := range segments {
		if s == "" {
			return nil, gwerrors.NewValidationError("metric", fmt.Sprintf("%q contains an empty segment", metric))
		}
	}

	path := make([]string, 0, len(reportedPrefix)+len(segments))
	path = append(path, reportedPrefix...)
	return append(path, segments...), nil
}

// HistoryStore reads sensor time series from a table keyed by device and timestamp.
type HistoryStore struct {
	client datastore.DocumentClient
	table  storagemodels.HistoryTable
	retry  storagemodels.RetryPolicy
	logger *slog.Logger
}

// NewHistoryStore constructs a HistoryStore over table.
func NewHistoryStore(client datastore.DocumentClient, table storagemodels.HistoryTable) (*HistoryStore, error) {
	if client == nil {
		return nil, errors.New("document client is required")
	}
	if table.Name == "" || table.PartitionKey == "" || table.SortKey == "" {
		return nil, errors.New("table name, partition key and sort key are required")
	}
	return &HistoryStore{
		client: client,
		table:  table,
		retry:  storagemodels.DefaultRetryPolicy(),
		logger: slog.Default(),
	}, nil
}

// WithRetryPolicy sets the retry policy applied to each query page.
func (s *HistoryStore) WithRetryPolicy(policy storagemodels.RetryPolicy) *HistoryStore {
	s.retry = policy
	return s
}

// WithLogger sets the logger used for per-page debug output.
func (s *HistoryStore) WithLogger(logger *slog.Logger) *HistoryStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// QueryHistory returns every sample of metric reported by deviceID, newest first.
func (s *HistoryStore) QueryHistory(ctx context.Context, deviceID, metric string) ([]storagemodels.HistoryRecord, error) {
	return s.History(deviceID).ForMetric(metric).Execute(ctx)
}

// HistoryQueryBuilder builds the partition-scoped history query for one metric
type HistoryQueryBuilder struct {
	store    *HistoryStore
	deviceID string
	metric   string
	limit    int32
}

// History starts a history query for deviceID
func (s *HistoryStore) History(deviceID string) *HistoryQueryBuilder {
	return &HistoryQueryBuilder{store: s, deviceID: deviceID}
}

// ForMetric sets the dotted metric name, relative to the reported state
func (q *HistoryQueryBuilder) ForMetric(metric string) *HistoryQueryBuilder {
	q.metric = metric
	return q
}

// WithPageSize caps the items evaluated per query page
func (q *HistoryQueryBuilder) WithPageSize(limit int32) *HistoryQueryBuilder {
	q.limit = limit
	return q
}

// Build constructs the query input. The key condition fixes the partition,
// the filter requires the full metric path, and the projection returns only
// the two keys and the metric value.
func (q *HistoryQueryBuilder) Build() (*dynamodb.QueryInput, error) {
	if q.deviceID == "" {
		return nil, gwerrors.NewValidationError("thingId", "must not be empty")
	}
	path, err := MetricPath(q.metric)
	if err != nil {
		return nil, err
	}

	table := q.store.table
	keyCond := expression.Key(table.PartitionKey).Equal(expression.Value(q.deviceID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	names, pathExpr := EscapePath(path)
	for placeholder, name := range expr.Names() {
		names[placeholder] = name
	}
	names["#pkey"] = table.PartitionKey
	names["#skey"] = table.SortKey

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(table.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          aws.String(fmt.Sprintf("attribute_exists(%s)", pathExpr)),
		ProjectionExpression:      aws.String("#pkey, #skey, " + pathExpr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if q.limit > 0 {
		input.Limit = aws.Int32(q.limit)
	}
	return input, nil
}

// Execute runs the query across every result page and flattens each record.
// It returns a NotFoundError when no stored document carries the metric.
func (q *HistoryQueryBuilder) Execute(ctx context.Context) ([]storagemodels.HistoryRecord, error) {
	input, err := q.Build()
	if err != nil {
		return nil, err
	}

	var items []map[string]types.AttributeValue
	page := 0
	for {
		out, err := datastore.WithRetry(ctx, q.store.retry, func(ctx context.Context) (*dynamodb.QueryOutput, error) {
			return q.store.client.Query(ctx, input)
		})
		if err != nil {
			return nil, gwerrors.NewUpstreamError(serviceName, "Query", err)
		}
		page++
		items = append(items, out.Items...)

		q.store.logger.Debug("history page fetched",
			"table", q.store.table.Name,
			"device", q.deviceID,
			"page", page,
			"items", len(out.Items),
		)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	if len(items) == 0 {
		return nil, gwerrors.NewNotFoundError("history", q.deviceID+"/"+q.metric)
	}

	var docs []storagemodels.Document
	if err := attributevalue.UnmarshalListOfMaps(items, &docs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history items: %w", err)
	}

	path, _ := MetricPath(q.metric)
	records := make([]storagemodels.HistoryRecord, len(docs))
	for i, doc := range docs {
		records[i] = flatten(doc, path)
	}
	return records, nil
}

// flatten lifts the value at path to a top-level field named after the last
// segment and drops the nested container. The container is removed first so a
// leaf that shares its name survives.
func flatten(doc storagemodels.Document, path []string) storagemodels.HistoryRecord {
	value, _ := storagemodels.Lookup(doc, path...)
	delete(doc, path[0])
	doc[path[len(path)-1]] = value
	return storagemodels.HistoryRecord(doc)
}
