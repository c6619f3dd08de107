/*
Package ddb reads sensor history and reference tables from DynamoDB.

History queries are scoped to one device partition and return the newest
sample first. Metric names are dotted paths below payload.state.reported of
each stored document; every segment is replaced by a positional placeholder so
reserved words such as "size" or "timestamp" need no special handling:

	store, _ := ddb.NewHistoryStore(client, storagemodels.HistoryTable{
	    Name:         "sensors",
	    PartitionKey: "source",
	    SortKey:      "timestamp",
	})
	records, err := store.QueryHistory(ctx, "sensor-1", "wifi.rssi")
	// [{"source": "sensor-1", "timestamp": 200, "rssi": -61}, ...]

The query filters on attribute_exists of the full path and projects only the
partition key, the sort key and the metric value, so documents are never
transferred whole. Every result page is followed until LastEvaluatedKey is
absent.

Reference tables are scanned in full and sorted client-side:

	scanner, _ := ddb.NewTableScanner(client)
	movies, err := scanner.SortedTable(ctx, "movies", "year")
*/
package ddb
