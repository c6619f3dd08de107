/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/iotgateway/datastore"
	gwerrors "github.com/suparena/iotgateway/errors"
	"github.com/suparena/iotgateway/storagemodels"
)

// TableScanner reads whole reference tables.
type TableScanner struct {
	client datastore.DocumentClient
	retry  storagemodels.RetryPolicy
}

// NewTableScanner constructs a TableScanner.
func NewTableScanner(client datastore.DocumentClient) (*TableScanner, error) {
	if client == nil {
		return nil, errors.New("document client is required")
	}
	return &TableScanner{client: client, retry: storagemodels.DefaultRetryPolicy()}, nil
}

// WithRetryPolicy sets the retry policy applied to each scan page.
func (s *TableScanner) WithRetryPolicy(policy storagemodels.RetryPolicy) *TableScanner {
	s.retry = policy
	return s
}

// SortedTable scans every page of table and returns its items ordered by field.
// Numbers compare numerically and strings lexicographically; items lacking the
// field, or holding another type, come last. Ties keep scan order.
func (s *TableScanner) SortedTable(ctx context.Context, table, field string) ([]storagemodels.Document, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(table)}

	var items []map[string]types.AttributeValue
	for {
		out, err := datastore.WithRetry(ctx, s.retry, func(ctx context.Context) (*dynamodb.ScanOutput, error) {
			return s.client.Scan(ctx, input)
		})
		if err != nil {
			return nil, gwerrors.NewUpstreamError(serviceName, "Scan", err)
		}
		items = append(items, out.Items...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	docs := make([]storagemodels.Document, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &docs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s items: %w", table, err)
	}
	if docs == nil {
		docs = []storagemodels.Document{}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return less(docs[i][field], docs[j][field])
	})
	return docs, nil
}

// rank orders value kinds: numbers, then strings, then everything else.
func rank(v any) int {
	switch v.(type) {
	case float64:
		return 0
	case string:
		return 1
	default:
		return 2
	}
}

func less(a, b any) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch av := a.(type) {
	case float64:
		return av < b.(float64)
	case string:
		return av < b.(string)
	}
	return false
}
