/*
Package iotgateway is an HTTP gateway that exposes a uniform read and publish
surface over AWS-hosted IoT data: object storage buckets, DynamoDB history and
reference tables, device shadows, the thing registry and MQTT topics.

The module is organised in layers:
  - datastore: narrow backend client interfaces, AWS configuration and retry
  - datastore/bucket: bucket browsing with presigned URLs and tags
  - datastore/ddb: metric history queries and sorted table scans
  - datastore/shadow: device shadow snapshots and thing listing
  - publish: message publishing through AWS IoT or an MQTT broker
  - api: HTTP routes, middleware and error translation
  - config, logging, errors: the ambient stack

The root package holds the Catalog used to name route targets and the build
version information.

Basic Usage:

	buckets := iotgateway.NewCatalog[api.ObjectBrowser]()
	buckets.MustRegister("snapshots", snapshotBrowser).
	    MustRegister("archive", archiveBrowser)

	server, err := api.New(api.Deps{Buckets: buckets, ...})
	if err != nil {
	    return err
	}
	server.Start(ctx)
	defer server.Close()

Semantic errors from the errors package drive the HTTP status codes: a
NotFoundError becomes an empty 404, a ValidationError a 400 and anything else
a 500.
*/
package iotgateway
