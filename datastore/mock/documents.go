/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a raw DynamoDB item
type Item = map[string]types.AttributeValue

// DocumentStore is a fake of datastore.DocumentClient. Responses are canned
// pages chained through a synthetic LastEvaluatedKey.
type DocumentStore struct {
	mu          sync.Mutex
	queryPages  [][]Item
	scanPages   map[string][][]Item
	queryFunc   func(ctx context.Context, params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	queryErr    error
	scanErr     error
	queryInputs []dynamodb.QueryInput
	scanInputs  []dynamodb.ScanInput
}

// NewDocumentStore creates an empty DocumentStore
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		scanPages: make(map[string][][]Item),
	}
}

// WithQueryPages sets the pages returned by successive Query calls
func (m *DocumentStore) WithQueryPages(pages ...[]Item) *DocumentStore {
	m.queryPages = pages
	return m
}

// WithQueryFunc sets a custom query function for testing
func (m *DocumentStore) WithQueryFunc(f func(ctx context.Context, params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error)) *DocumentStore {
	m.queryFunc = f
	return m
}

// WithQueryError makes Query fail
func (m *DocumentStore) WithQueryError(err error) *DocumentStore {
	m.queryErr = err
	return m
}

// WithScanPages sets the pages returned when scanning table
func (m *DocumentStore) WithScanPages(table string, pages ...[]Item) *DocumentStore {
	m.scanPages[table] = pages
	return m
}

// WithScanError makes Scan fail
func (m *DocumentStore) WithScanError(err error) *DocumentStore {
	m.scanErr = err
	return m
}

// Query returns the canned page selected by ExclusiveStartKey
func (m *DocumentStore) Query(ctx context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	m.queryInputs = append(m.queryInputs, *params)
	fn, qerr, pages := m.queryFunc, m.queryErr, m.queryPages
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}
	if qerr != nil {
		return nil, qerr
	}

	idx := pageIndex(params.ExclusiveStartKey)
	out := &dynamodb.QueryOutput{}
	if idx < len(pages) {
		out.Items = pages[idx]
		out.Count = int32(len(pages[idx]))
	}
	if idx+1 < len(pages) {
		out.LastEvaluatedKey = pageKey(idx + 1)
	}
	return out, nil
}

// Scan returns the canned page of the table selected by ExclusiveStartKey
func (m *DocumentStore) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scanInputs = append(m.scanInputs, *params)
	if m.scanErr != nil {
		return nil, m.scanErr
	}

	pages := m.scanPages[derefString(params.TableName)]
	idx := pageIndex(params.ExclusiveStartKey)
	out := &dynamodb.ScanOutput{}
	if idx < len(pages) {
		out.Items = pages[idx]
	}
	if idx+1 < len(pages) {
		out.LastEvaluatedKey = pageKey(idx + 1)
	}
	return out, nil
}

// QueryInputs returns a copy of the recorded query inputs
func (m *DocumentStore) QueryInputs() []dynamodb.QueryInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dynamodb.QueryInput(nil), m.queryInputs...)
}

// ScanInputs returns a copy of the recorded scan inputs
func (m *DocumentStore) ScanInputs() []dynamodb.ScanInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dynamodb.ScanInput(nil), m.scanInputs...)
}

func pageKey(idx int) Item {
	return Item{"mock_page": &types.AttributeValueMemberN{Value: strconv.Itoa(idx)}}
}

func pageIndex(key Item) int {
	if key == nil {
		return 0
	}
	n, ok := key["mock_page"].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	idx, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0
	}
	return idx
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// S builds a string attribute
func S(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

// N builds a number attribute
func N(v string) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: v}
}

// M builds a map attribute
func M(v Item) types.AttributeValue {
	return &types.AttributeValueMemberM{Value: v}
}
