/*
Package bucket implements paginated, metadata-enriched object listing over S3.

A Browser is bound to one bucket and is safe for concurrent use; it holds no
per-request state:

	browser, _ := bucket.NewBrowser(s3Client, s3.NewPresignClient(s3Client), "snapshots",
	    storagemodels.WithConcurrency(8),
	    storagemodels.WithPresignTTL(time.Hour),
	)
	objects, err := browser.Browse(ctx, "2025/06/")

Pages are fetched sequentially, since each continuation token comes from the
previous response. Within a page the per-object tag lookups run concurrently
and results keep listing order. Any failed lookup aborts the browse.
*/
package bucket
