/*
Package datastore defines the backend-client interfaces the gateway reads through.

Each interface is the narrow subset of an AWS SDK v2 client that one component
needs, so the concrete clients can be injected in production and the fakes
from datastore/mock in tests:

	type ObjectClient interface {
	    ListObjectsV2(ctx, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	    GetObjectTagging(ctx, *s3.GetObjectTaggingInput, ...func(*s3.Options)) (*s3.GetObjectTaggingOutput, error)
	}

Implementations:
  - bucket: paginated, tag-enriched object listing
  - ddb: sensor history queries and sorted table scans
  - shadow: device shadow reads and thing listing
  - mock: in-memory fakes for testing

WithRetry wraps a single backend call with a bounded retry for transient
errors; clients are created once from LoadAWSConfig and shared by all requests.
*/
package datastore
