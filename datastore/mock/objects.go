/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides in-memory fakes of the backend-client interfaces for testing
package mock

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Page is one canned listing response. Token is the continuation token that
// selects it ("" for the first page); NextToken is returned with it.
type Page struct {
	Token     string
	Objects   []s3types.Object
	NextToken string
}

// ObjectStore is a fake of datastore.ObjectClient backed by canned pages.
type ObjectStore struct {
	mu          sync.Mutex
	pages       map[string]Page
	tags        map[string][]s3types.Tag
	listErr     error
	tagErr      error
	tagErrKeys  map[string]error
	tagDelay    time.Duration
	listCalls   []s3.ListObjectsV2Input
	tagCalls    []string
	inFlight    int
	maxInFlight int
}

// NewObjectStore creates an empty ObjectStore
func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		pages:      make(map[string]Page),
		tags:       make(map[string][]s3types.Tag),
		tagErrKeys: make(map[string]error),
	}
}

// WithPage registers a listing page
func (m *ObjectStore) WithPage(p Page) *ObjectStore {
	m.pages[p.Token] = p
	return m
}

// WithTags sets the tag set returned for key
func (m *ObjectStore) WithTags(key string, tags map[string]string) *ObjectStore {
	set := make([]s3types.Tag, 0, len(tags))
	for k, v := range tags {
		set = append(set, s3types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	m.tags[key] = set
	return m
}

// WithListError makes ListObjectsV2 fail
func (m *ObjectStore) WithListError(err error) *ObjectStore {
	m.listErr = err
	return m
}

// WithTagError makes every GetObjectTagging call fail
func (m *ObjectStore) WithTagError(err error) *ObjectStore {
	m.tagErr = err
	return m
}

// WithTagErrorFor makes GetObjectTagging fail for one key
func (m *ObjectStore) WithTagErrorFor(key string, err error) *ObjectStore {
	m.tagErrKeys[key] = err
	return m
}

// WithTagDelay slows each tag lookup down, so fan-out is observable
func (m *ObjectStore) WithTagDelay(d time.Duration) *ObjectStore {
	m.tagDelay = d
	return m
}

// ListObjectsV2 returns the page selected by the continuation token,
// filtered by prefix.
func (m *ObjectStore) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls = append(m.listCalls, *params)
	if m.listErr != nil {
		return nil, m.listErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, ok := m.pages[aws.ToString(params.ContinuationToken)]
	if !ok {
		return nil, fmt.Errorf("mock: unknown continuation token %q", aws.ToString(params.ContinuationToken))
	}

	out := &s3.ListObjectsV2Output{
		Name:   params.Bucket,
		Prefix: params.Prefix,
	}
	prefix := aws.ToString(params.Prefix)
	for _, obj := range page.Objects {
		if strings.HasPrefix(aws.ToString(obj.Key), prefix) {
			out.Contents = append(out.Contents, obj)
		}
	}
	if page.NextToken != "" {
		out.NextContinuationToken = aws.String(page.NextToken)
		out.IsTruncated = aws.Bool(true)
	}
	return out, nil
}

// GetObjectTagging returns the configured tag set for the key
func (m *ObjectStore) GetObjectTagging(ctx context.Context, params *s3.GetObjectTaggingInput, _ ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error) {
	key := aws.ToString(params.Key)

	m.mu.Lock()
	m.tagCalls = append(m.tagCalls, key)
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	delay := m.tagDelay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tagErr != nil {
		return nil, m.tagErr
	}
	if err, ok := m.tagErrKeys[key]; ok {
		return nil, err
	}
	return &s3.GetObjectTaggingOutput{TagSet: m.tags[key]}, nil
}

// ListCalls returns a copy of the recorded listing inputs
func (m *ObjectStore) ListCalls() []s3.ListObjectsV2Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]s3.ListObjectsV2Input(nil), m.listCalls...)
}

// TagCalls returns the number of tag lookups made
func (m *ObjectStore) TagCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tagCalls)
}

// MaxInFlight returns the highest number of concurrent tag lookups observed
func (m *ObjectStore) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Object builds a listing entry
func Object(key string, size int64, etag string, modified time.Time) s3types.Object {
	return s3types.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(size),
		ETag:         aws.String(etag),
		LastModified: aws.Time(modified),
	}
}

// Presigner is a fake of datastore.Presigner producing deterministic URLs.
type Presigner struct {
	mu      sync.Mutex
	err     error
	expires []time.Duration
}

// NewPresigner creates a Presigner
func NewPresigner() *Presigner {
	return &Presigner{}
}

// WithError makes PresignGetObject fail
func (p *Presigner) WithError(err error) *Presigner {
	p.err = err
	return p
}

// PresignGetObject returns https://<bucket>.s3.mock/<key>?X-Amz-Expires=<seconds>
func (p *Presigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.expires = append(p.expires, opts.Expires)
	if p.err != nil {
		return nil, p.err
	}

	u := url.URL{
		Scheme:   "https",
		Host:     aws.ToString(params.Bucket) + ".s3.mock",
		Path:     "/" + aws.ToString(params.Key),
		RawQuery: fmt.Sprintf("X-Amz-Expires=%d", int(opts.Expires.Seconds())),
	}
	return &v4.PresignedHTTPRequest{URL: u.String(), Method: "GET"}, nil
}

// Expires returns the expiry requested on each presign call
func (p *Presigner) Expires() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.expires...)
}
