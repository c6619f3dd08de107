/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package bucket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-openapi/strfmt"
	"golang.org/x/sync/errgroup"

	"github.com/suparena/iotgateway/datastore"
	gwerrors "github.com/suparena/iotgateway/errors"
	"github.com/suparena/iotgateway/storagemodels"
)

const serviceName = "s3"

// Browser lists one bucket and enriches every entry with a retrieval URL and its tags.
type Browser struct {
	client    datastore.ObjectClient
	presigner datastore.Presigner
	bucket    string
	options   storagemodels.BrowseOptions
	logger    *slog.Logger
}

// NewBrowser constructs a Browser for bucketName.
func NewBrowser(client datastore.ObjectClient, presigner datastore.Presigner, bucketName string, opts ...storagemodels.BrowseOption) (*Browser, error) {
	if client == nil || presigner == nil {
		return nil, errors.New("object client and presigner are required")
	}
	if bucketName == "" {
		return nil, errors.New("bucket name is required")
	}

	options := storagemodels.DefaultBrowseOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}

	return &Browser{
		client:    client,
		presigner: presigner,
		bucket:    bucketName,
		options:   options,
		logger:    slog.Default(),
	}, nil
}

// WithLogger sets the logger used for per-page debug output.
func (b *Browser) WithLogger(logger *slog.Logger) *Browser {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Bucket returns the bucket this browser lists.
func (b *Browser) Bucket() string {
	return b.bucket
}

// Browse lists every object under prefix ("" lists the whole bucket), following
// continuation tokens until the backend stops returning one. Tag lookups within
// a page fan out over at most Concurrency goroutines; the first failure cancels
// the remaining lookups and the browse returns no partial result.
func (b *Browser) Browse(ctx context.Context, prefix string) ([]storagemodels.StoredObject, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if b.options.PageSize > 0 {
		input.MaxKeys = aws.Int32(b.options.PageSize)
	}

	results := make([]storagemodels.StoredObject, 0)
	progress := storagemodels.BrowseProgress{StartTime: time.Now()}

	for {
		out, err := datastore.WithRetry(ctx, b.options.Retry, func(ctx context.Context) (*s3.ListObjectsV2Output, error) {
			return b.client.ListObjectsV2(ctx, input)
		})
		if err != nil {
			return nil, gwerrors.NewUpstreamError(serviceName, "ListObjectsV2", err)
		}

		progress.PagesFetched++
		if progress.PagesFetched == 1 && len(out.Contents) == 0 {
			return results, nil
		}

		page, err := b.enrichPage(ctx, out.Contents)
		if err != nil {
			return nil, err
		}
		results = append(results, page...)
		progress.ObjectsListed += int64(len(page))

		b.logger.Debug("bucket page listed",
			"bucket", b.bucket,
			"page", progress.PagesFetched,
			"objects", len(page),
		)
		if b.options.ProgressHandler != nil {
			b.options.ProgressHandler(progress)
		}

		next := aws.ToString(out.NextContinuationToken)
		if next == "" {
			break
		}
		input.ContinuationToken = aws.String(next)
	}

	return results, nil
}

// enrichPage resolves URL and tags for each object, preserving listing order.
func (b *Browser) enrichPage(ctx context.Context, objects []s3types.Object) ([]storagemodels.StoredObject, error) {
	page := make([]storagemodels.StoredObject, len(objects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.options.Concurrency)

	for i := range objects {
		// Stop issuing lookups once one has failed or the caller gave up
		if gctx.Err() != nil {
			break
		}
		i := i // per-iteration copy; go.mod targets go 1.21 loop semantics
		g.Go(func() error {
			obj, err := b.enrich(gctx, objects[i])
			if err != nil {
				return err
			}
			page[i] = obj
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancelled parent context may have stopped the loop before any lookup failed
	if err := ctx.Err(); err != nil {
		return nil, gwerrors.NewUpstreamError(serviceName, "GetObjectTagging", err)
	}
	return page, nil
}

func (b *Browser) enrich(ctx context.Context, obj s3types.Object) (storagemodels.StoredObject, error) {
	key := aws.ToString(obj.Key)

	signed, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(b.options.PresignTTL))
	if err != nil {
		return storagemodels.StoredObject{}, fmt.Errorf("presign %q: %w", key, err)
	}

	stored := storagemodels.StoredObject{
		Key:          key,
		RetrievalURL: signed.URL,
		LastModified: strfmt.DateTime(aws.ToTime(obj.LastModified)),
		SizeBytes:    aws.ToInt64(obj.Size),
		ContentHash:  strings.Trim(aws.ToString(obj.ETag), `"`),
	}

	tagging, err := datastore.WithRetry(ctx, b.options.Retry, func(ctx context.Context) (*s3.GetObjectTaggingOutput, error) {
		return b.client.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		})
	})
	if err != nil {
		return storagemodels.StoredObject{}, gwerrors.NewUpstreamError(serviceName, "GetObjectTagging", fmt.Errorf("%s: %w", key, err))
	}

	if tagging.TagSet != nil {
		stored.Tags = make([]storagemodels.Tag, 0, len(tagging.TagSet))
		for _, t := range tagging.TagSet {
			stored.Tags = append(stored.Tags, storagemodels.Tag{
				Key:   aws.ToString(t.Key),
				Value: aws.ToString(t.Value),
			})
		}
	}

	return stored, nil
}
