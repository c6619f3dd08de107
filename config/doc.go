// Package config loads gateway configuration from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
//
// The environment names follow the deployment convention of the service:
// aws_region, snapshot_bucket, archive_bucket, weather_api_key,
// weather_unit, weather_home_city, plus gateway settings such as http_addr,
// browse_concurrency, presign_ttl and publisher.
package config
