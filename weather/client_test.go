/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/suparena/iotgateway/config"
	gwerrors "github.com/suparena/iotgateway/errors"
)

func testConfig(url string) config.WeatherConfig {
	return config.WeatherConfig{
		URL:      url,
		APIKey:   "secret",
		Unit:     "metric",
		HomeCity: "Dublin,IE",
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    Location
		invalid bool
	}{
		{name: "coordinates", query: "lat=53.3&lon=-6.2", want: Location{Lat: "53.3", Lon: "-6.2"}},
		{name: "coordinates win over id", query: "lat=1&lon=2&id=42&q=Cork", want: Location{Lat: "1", Lon: "2"}},
		{name: "id wins over q", query: "id=42&q=Cork", want: Location{ID: "42"}},
		{name: "city query", query: "q=Cork", want: Location{City: "Cork"}},
		{name: "nothing", query: "", want: Location{}},
		{name: "lat only", query: "lat=1&id=42", invalid: true},
		{name: "lon only", query: "lon=2", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParseLocation(values)
			if tt.invalid {
				if !gwerrors.IsValidationError(err) {
					t.Fatalf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestCurrentQueryParameters(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want map[string]string
	}{
		{"coordinates", Location{Lat: "53.3", Lon: "-6.2"}, map[string]string{"lat": "53.3", "lon": "-6.2"}},
		{"city id", Location{ID: "2964574"}, map[string]string{"id": "2964574"}},
		{"city query", Location{City: "Cork"}, map[string]string{"q": "Cork"}},
		{"home city", Location{}, map[string]string{"q": "Dublin,IE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got url.Values
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query()
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"name":"ok"}`))
			}))
			defer server.Close()

			client, err := NewClient(testConfig(server.URL))
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			if _, err := client.Current(context.Background(), tt.loc); err != nil {
				t.Fatalf("Current failed: %v", err)
			}

			if got.Get("appid") != "secret" {
				t.Errorf("appid = %q, want secret", got.Get("appid"))
			}
			if got.Get("units") != "metric" {
				t.Errorf("units = %q, want metric", got.Get("units"))
			}
			for k, v := range tt.want {
				if got.Get(k) != v {
					t.Errorf("%s = %q, want %q", k, got.Get(k), v)
				}
			}
			for _, k := range []string{"lat", "lon", "id", "q"} {
				if _, expected := tt.want[k]; !expected && got.Has(k) {
					t.Errorf("Unexpected parameter %s=%q", k, got.Get(k))
				}
			}
		})
	}
}

func TestCurrentPassesBodyThrough(t *testing.T) {
	const body = `{"cod":"404","message":"city not found"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client, _ := NewClient(testConfig(server.URL))
	got, err := client.Current(context.Background(), Location{City: "Nowhere"})
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if string(got) != body {
		t.Errorf("Expected body %s, got %s", body, got)
	}
}

func TestCurrentNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client, _ := NewClient(testConfig(server.URL))
	if _, err := client.Current(context.Background(), Location{}); !gwerrors.IsUpstream(err) {
		t.Fatalf("Expected upstream error, got %v", err)
	}
}

func TestCurrentTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	client, _ := NewClient(testConfig(target))
	if _, err := client.Current(context.Background(), Location{}); !gwerrors.IsUpstream(err) {
		t.Fatalf("Expected upstream error, got %v", err)
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(config.WeatherConfig{}); err == nil {
		t.Error("Expected error for missing url")
	}

	client, err := NewClient(testConfig("http://example.invalid/weather"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.httpClient.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.httpClient.Timeout, defaultTimeout)
	}

	cfg := testConfig("http://example.invalid/weather")
	cfg.Timeout = 2 * time.Second
	client, _ = NewClient(cfg)
	if client.httpClient.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", client.httpClient.Timeout)
	}
}
