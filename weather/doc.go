/*
Package weather proxies current-conditions lookups to the OpenWeatherMap API.

A Location selects the place to look up. ParseLocation reads it from request
query parameters with the precedence lat+lon, then id, then q; an empty
Location falls back to the configured home city.

	client, err := weather.NewClient(cfg.Weather)
	if err != nil {
	    return err
	}
	body, err := client.Current(ctx, weather.Location{City: "Dublin,IE"})

The response body is returned verbatim as json.RawMessage. A body that is not
valid JSON, or a failed round trip, is reported as an UpstreamError.
*/
package weather
