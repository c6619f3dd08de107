/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/suparena/iotgateway/storagemodels"
)

// retryableCodes are service error codes treated as transient.
var retryableCodes = map[string]bool{
	"SlowDown":                               true,
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"ProvisionedThroughputExceededException": true,
	"InternalError":                          true,
	"InternalServerError":                    true,
	"InternalFailureException":               true,
	"ServiceUnavailable":                     true,
	"ServiceUnavailableException":            true,
}

// WithRetry calls fn until it succeeds, fails with a non-retryable error, or
// policy.MaxRetries extra attempts have been made.
func WithRetry[T any](ctx context.Context, policy storagemodels.RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		lastErr = err

		if !IsRetryableError(err) {
			return zero, err
		}

		// Don't sleep after last attempt
		if attempt < policy.MaxRetries {
			backoff := time.Duration(attempt+1) * policy.Backoff
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if policy.MaxRetries == 0 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("failed after %d retries: %w", policy.MaxRetries, lastErr)
}

// IsRetryableError determines if a backend error is transient
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pte *ddbtypes.ProvisionedThroughputExceededException
	if errors.As(err, &pte) {
		return true
	}
	var rle *ddbtypes.RequestLimitExceeded
	if errors.As(err, &rle) {
		return true
	}
	var ise *ddbtypes.InternalServerError
	if errors.As(err, &ise) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && retryableCodes[apiErr.ErrorCode()] {
		return true
	}

	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return false
}
