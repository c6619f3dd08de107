/*
Package shadow reads live device state from the IoT data plane and lists
registered things from the IoT control plane.

A shadow document has the shape

	{"state": {"reported": {"temperature": 21.5, ...}, "desired": {...}}, "version": 12}

FetchMetric descends state, reported and the metric name in turn and returns a
NotFound error at the first level that is missing. A thing without any shadow
is NotFound as well.
*/
package shadow
