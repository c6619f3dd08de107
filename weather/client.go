/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/suparena/iotgateway/config"
	gwerrors "github.com/suparena/iotgateway/errors"
)

const (
	serviceName    = "openweathermap"
	defaultTimeout = 10 * time.Second

	// maxBodySize bounds the upstream response read into memory.
	maxBodySize = 1 << 20
)

// Location identifies the place to look up. At most one form is used, in
// field order: coordinates, city id, city query.
type Location struct {
	Lat  string
	Lon  string
	ID   string
	City string
}

// IsZero reports whether no location form is set.
func (l Location) IsZero() bool {
	return l.Lat == "" && l.Lon == "" && l.ID == "" && l.City == ""
}

// ParseLocation reads lat, lon, id and q from query values. Coordinates win
// over id, and id over q. Only one of lat and lon is a validation error.
func ParseLocation(values url.Values) (Location, error) {
	lat, lon := values.Get("lat"), values.Get("lon")
	switch {
	case lat != "" && lon != "":
		return Location{Lat: lat, Lon: lon}, nil
	case lat != "" || lon != "":
		return Location{}, gwerrors.NewValidationError("lat/lon", "both lat and lon are required")
	case values.Get("id") != "":
		return Location{ID: values.Get("id")}, nil
	case values.Get("q") != "":
		return Location{City: values.Get("q")}, nil
	}
	return Location{}, nil
}

// Client calls the OpenWeatherMap current weather endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	unit       string
	homeCity   string
	httpClient *http.Client
}

// NewClient returns a Client for cfg. A zero timeout uses a 10s default.
func NewClient(cfg config.WeatherConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("weather url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid weather url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		unit:       cfg.Unit,
		homeCity:   cfg.HomeCity,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// requestURL renders the upstream URL for loc.
func (c *Client) requestURL(loc Location) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid weather url: %w", err)
	}

	q := u.Query()
	q.Set("appid", c.apiKey)
	q.Set("units", c.unit)
	switch {
	case loc.Lat != "" && loc.Lon != "":
		q.Set("lat", loc.Lat)
		q.Set("lon", loc.Lon)
	case loc.ID != "":
		q.Set("id", loc.ID)
	case loc.City != "":
		q.Set("q", loc.City)
	default:
		q.Set("q", c.homeCity)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Current fetches the current weather at loc and returns the response body.
// The upstream status code is not interpreted; OpenWeatherMap reports lookup
// failures inside its JSON body.
func (c *Client) Current(ctx context.Context, loc Location) (json.RawMessage, error) {
	target, err := c.requestURL(loc)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, gwerrors.NewUpstreamError(serviceName, "GetWeather", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, gwerrors.NewUpstreamError(serviceName, "GetWeather", err)
	}
	if !json.Valid(body) {
		return nil, gwerrors.NewUpstreamError(serviceName, "GetWeather",
			fmt.Errorf("status=%d: response is not JSON", resp.StatusCode))
	}
	return json.RawMessage(body), nil
}
