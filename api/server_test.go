/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	iottypes "github.com/aws/aws-sdk-go-v2/service/iot/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/suparena/iotgateway"
	"github.com/suparena/iotgateway/config"
	"github.com/suparena/iotgateway/datastore/bucket"
	"github.com/suparena/iotgateway/datastore/ddb"
	"github.com/suparena/iotgateway/datastore/mock"
	"github.com/suparena/iotgateway/datastore/shadow"
	gwerrors "github.com/suparena/iotgateway/errors"
	"github.com/suparena/iotgateway/logging"
	"github.com/suparena/iotgateway/publish"
	"github.com/suparena/iotgateway/storagemodels"
	"github.com/suparena/iotgateway/weather"
)

var modified = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeWeather records the requested location and returns a canned body.
type fakeWeather struct {
	body json.RawMessage
	err  error
	loc  weather.Location
}

func (f *fakeWeather) Current(_ context.Context, loc weather.Location) (json.RawMessage, error) {
	f.loc = loc
	return f.body, f.err
}

// backends holds the fakes behind a test server.
type backends struct {
	objects   *mock.ObjectStore
	documents *mock.DocumentStore
	shadows   *mock.ShadowStore
	things    *mock.ThingRegistry
	publisher *mock.Publisher
	weather   *fakeWeather
}

func newBackends() *backends {
	return &backends{
		objects: mock.NewObjectStore().
			WithPage(mock.Page{
				Objects: []s3types.Object{
					mock.Object("cam/1.jpg", 10, `"a"`, modified),
					mock.Object("cam/2.jpg", 20, `"b"`, modified),
					mock.Object("cam/3.jpg", 30, `"c"`, modified),
				},
				NextToken: "tok1",
			}).
			WithPage(mock.Page{
				Token:   "tok1",
				Objects: []s3types.Object{mock.Object("cam/4.jpg", 40, `"d"`, modified)},
			}),
		documents: mock.NewDocumentStore().
			WithScanPages("movies", []mock.Item{
				{"title": mock.S("Heat"), "year": mock.N("1995")},
				{"title": mock.S("Alien"), "year": mock.N("1979")},
			}).
			WithQueryPages([]mock.Item{
				historyItem("sensor-1", "200", "22.5"),
				historyItem("sensor-1", "100", "21"),
			}),
		shadows: mock.NewShadowStore().
			WithShadow("sensor-1", `{"state":{"reported":{"temperature":21.50}},"version":7}`),
		things:    mock.NewThingRegistry([]iottypes.ThingAttribute{mock.Thing("sensor-2", "probe"), mock.Thing("sensor-1", "probe")}),
		publisher: mock.NewPublisher(),
		weather:   &fakeWeather{body: json.RawMessage(`{"name":"Dublin","main":{"temp":11.2}}`)},
	}
}

func historyItem(device, ts, value string) mock.Item {
	return mock.Item{
		"source":    mock.S(device),
		"timestamp": mock.N(ts),
		"payload": mock.M(mock.Item{
			"state": mock.M(mock.Item{
				"reported": mock.M(mock.Item{"temperature": mock.N(value)}),
			}),
		}),
	}
}

// testServer wires real components over the backend fakes.
func testServer(t *testing.T, b *backends) *Server {
	t.Helper()

	log := logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error"}, "test")

	browser, err := bucket.NewBrowser(b.objects, mock.NewPresigner(), "snapshots-bucket")
	if err != nil {
		t.Fatalf("NewBrowser: %v", err)
	}
	scanner, err := ddb.NewTableScanner(b.documents)
	if err != nil {
		t.Fatalf("NewTableScanner: %v", err)
	}
	history, err := ddb.NewHistoryStore(b.documents, storagemodels.HistoryTable{
		Name: "sensors", PartitionKey: "source", SortKey: "timestamp",
	})
	if err != nil {
		t.Fatalf("NewHistoryStore: %v", err)
	}
	fetcher, err := shadow.NewFetcher(b.shadows)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	registry, err := shadow.NewRegistry(b.things)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	publisher, err := publish.NewIoTPublisher(b.publisher)
	if err != nil {
		t.Fatalf("NewIoTPublisher: %v", err)
	}

	srv, err := New(Deps{
		Config:    config.HTTPConfig{Addr: "127.0.0.1:0", RequestTimeout: 5 * time.Second},
		Logger:    log,
		Buckets:   iotgateway.NewCatalog[ObjectBrowser]().MustRegister("snapshots", browser),
		Tables:    iotgateway.NewCatalog[TableRef]().MustRegister("movies", TableRef{Table: "movies", SortBy: "year"}),
		Scanner:   scanner,
		History:   history,
		Shadows:   fetcher,
		Things:    registry,
		Publisher: publisher,
		Weather:   b.weather,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	w := get(t, testServer(t, newBackends()), "/health")

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestVersion(t *testing.T) {
	w := get(t, testServer(t, newBackends()), "/version")

	info := decode[iotgateway.VersionInfo](t, w)
	if info.Version != "test" {
		t.Errorf("version = %q, want test", info.Version)
	}
	if info.GoVersion == "" {
		t.Error("expected a Go version")
	}
}

func TestRequestID(t *testing.T) {
	srv := testServer(t, newBackends())

	t.Run("Generated", func(t *testing.T) {
		w := get(t, srv, "/health")
		if w.Header().Get("X-Request-ID") == "" {
			t.Error("expected a generated X-Request-ID")
		}
	})

	t.Run("PreservesClient", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "client-id-123")
		w := httptest.NewRecorder()
		srv.buildRouter().ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-ID"); got != "client-id-123" {
			t.Errorf("X-Request-ID = %q, want client-id-123", got)
		}
	})
}

func TestUnknownRoute(t *testing.T) {
	w := get(t, testServer(t, newBackends()), "/nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	testServer(t, newBackends()).buildRouter().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestBrowseTwoPages(t *testing.T) {
	w := get(t, testServer(t, newBackends()), "/snapshots")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	entries := decode[[]map[string]any](t, w)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if url, _ := e["url"].(string); url == "" {
			t.Errorf("entry %d has no retrieval url", i)
		}
		if e["timestamp"] != "2025-03-01T12:00:00.000Z" {
			t.Errorf("entry %d timestamp = %v", i, e["timestamp"])
		}
	}
	if entries[0]["name"] != "cam/1.jpg" || entries[3]["name"] != "cam/4.jpg" {
		t.Errorf("unexpected order: %v ... %v", entries[0]["name"], entries[3]["name"])
	}
}

func TestBrowsePrefix(t *testing.T) {
	b := newBackends()
	w := get(t, testServer(t, b), "/snapshots?prefix=cam/")

	entries := decode[[]map[string]any](t, w)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	for _, call := range b.objects.ListCalls() {
		if call.Prefix == nil || *call.Prefix != "cam/" {
			t.Errorf("prefix not forwarded: %v", call.Prefix)
		}
	}
}

func TestSortedTable(t *testing.T) {
	w := get(t, testServer(t, newBackends()), "/movies")

	docs := decode[[]map[string]any](t, w)
	if len(docs) != 2 || docs[0]["title"] != "Alien" || docs[1]["title"] != "Heat" {
		t.Errorf("unexpected order: %v", docs)
	}
}

func TestListThings(t *testing.T) {
	w := get(t, testServer(t, newBackends()), "/things")

	things := decode[[]map[string]any](t, w)
	if len(things) != 2 || things[0]["thingName"] != "sensor-1" {
		t.Errorf("unexpected things: %v", things)
	}
}

func TestGetShadow(t *testing.T) {
	srv := testServer(t, newBackends())

	t.Run("NumbersPreserved", func(t *testing.T) {
		w := get(t, srv, "/things/sensor-1")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"temperature":21.50`) {
			t.Errorf("expected number preserved verbatim, got %s", w.Body.String())
		}
	})

	t.Run("MissingShadow", func(t *testing.T) {
		w := get(t, srv, "/things/unknown")
		if w.Code != http.StatusNotFound || w.Body.Len() != 0 {
			t.Errorf("expected empty 404, got %d %q", w.Code, w.Body.String())
		}
	})
}

func TestGetMetric(t *testing.T) {
	srv := testServer(t, newBackends())

	w := get(t, srv, "/things/sensor-1/temperature")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "21.50" {
		t.Errorf("body = %q, want 21.50", got)
	}

	w = get(t, srv, "/things/sensor-1/humidity")
	if w.Code != http.StatusNotFound || w.Body.Len() != 0 {
		t.Errorf("expected empty 404 for humidity, got %d %q", w.Code, w.Body.String())
	}
}

func TestMetricHistory(t *testing.T) {
	srv := testServer(t, newBackends())

	w := get(t, srv, "/things/sensor-1/temperature/history")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	records := decode[[]map[string]any](t, w)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["timestamp"] != 200.0 || records[1]["timestamp"] != 100.0 {
		t.Errorf("expected descending timestamps, got %v", records)
	}
	if records[0]["temperature"] != 22.5 || records[0]["source"] != "sensor-1" {
		t.Errorf("unexpected first record %v", records[0])
	}
	if _, ok := records[0]["payload"]; ok {
		t.Error("payload container should be flattened away")
	}
}

func TestMetricHistoryErrors(t *testing.T) {
	t.Run("NoRows", func(t *testing.T) {
		b := newBackends()
		b.documents = mock.NewDocumentStore().WithQueryPages([]mock.Item{})
		w := get(t, testServer(t, b), "/things/sensor-1/humidity/history")
		if w.Code != http.StatusNotFound || w.Body.Len() != 0 {
			t.Errorf("expected empty 404, got %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("EmptySegment", func(t *testing.T) {
		w := get(t, testServer(t, newBackends()), "/things/sensor-1/wifi..rssi/history")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		resp := decode[Error](t, w)
		if resp.Code != ErrCodeValidation {
			t.Errorf("code = %q, want %q", resp.Code, ErrCodeValidation)
		}
	})

	t.Run("Upstream", func(t *testing.T) {
		b := newBackends()
		b.documents = mock.NewDocumentStore().WithQueryError(errors.New("access denied"))
		w := get(t, testServer(t, b), "/things/sensor-1/temperature/history")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		resp := decode[Error](t, w)
		if resp.Code != ErrCodeUpstream {
			t.Errorf("code = %q, want %q", resp.Code, ErrCodeUpstream)
		}
	})
}

func TestPublish(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		wantStatus  int
		wantTopic   string
		wantPayload string
		wantQoS     int32
	}{
		{"string payload", "/publish/home/kitchen/light?payload=on", http.StatusOK, "home/kitchen/light", `"on"`, 0},
		{"absent payload", "/publish/alerts", http.StatusOK, "alerts", `{}`, 0},
		{"qos one", "/publish/alerts?payload=x&qos=1", http.StatusOK, "alerts", `"x"`, 1},
		{"qos out of range", "/publish/alerts?qos=2", http.StatusBadRequest, "", "", 0},
		{"qos not a number", "/publish/alerts?qos=high", http.StatusBadRequest, "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackends()
			w := get(t, testServer(t, b), tt.target)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}

			messages := b.publisher.Messages()
			if tt.wantStatus != http.StatusOK {
				if len(messages) != 0 {
					t.Errorf("expected no message, got %v", messages)
				}
				return
			}
			if w.Body.Len() != 0 {
				t.Errorf("expected empty body, got %q", w.Body.String())
			}
			if len(messages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(messages))
			}
			msg := messages[0]
			if msg.Topic != tt.wantTopic || string(msg.Payload) != tt.wantPayload || msg.QoS != tt.wantQoS {
				t.Errorf("got topic=%q payload=%s qos=%d", msg.Topic, msg.Payload, msg.QoS)
			}
		})
	}
}

func TestWeather(t *testing.T) {
	t.Run("Passthrough", func(t *testing.T) {
		b := newBackends()
		w := get(t, testServer(t, b), "/weather?id=2964574")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if w.Body.String() != `{"name":"Dublin","main":{"temp":11.2}}` {
			t.Errorf("unexpected body %s", w.Body.String())
		}
		if b.weather.loc != (weather.Location{ID: "2964574"}) {
			t.Errorf("unexpected location %+v", b.weather.loc)
		}
	})

	t.Run("HalfCoordinates", func(t *testing.T) {
		w := get(t, testServer(t, newBackends()), "/weather?lat=53.3")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		b := newBackends()
		b.weather.err = gwerrors.NewUpstreamError("openweathermap", "GetWeather", errors.New("not json"))
		w := get(t, testServer(t, b), "/weather")
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})
}

type panicBrowser struct{}

func (panicBrowser) Browse(context.Context, string) ([]storagemodels.StoredObject, error) {
	panic("boom")
}

type slowBrowser struct{}

func (slowBrowser) Browse(ctx context.Context, _ string) ([]storagemodels.StoredObject, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newMinimalServer(t *testing.T, cfg config.HTTPConfig, buckets *iotgateway.Catalog[ObjectBrowser]) *Server {
	t.Helper()
	srv, err := New(Deps{
		Config:  cfg,
		Logger:  logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error"}, "test"),
		Buckets: buckets,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func TestRecovery(t *testing.T) {
	srv := newMinimalServer(t, config.HTTPConfig{},
		iotgateway.NewCatalog[ObjectBrowser]().MustRegister("archive", panicBrowser{}))

	w := get(t, srv, "/archive")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := newMinimalServer(t, config.HTTPConfig{RequestTimeout: 20 * time.Millisecond},
		iotgateway.NewCatalog[ObjectBrowser]().MustRegister("archive", slowBrowser{}))

	w := get(t, srv, "/archive")
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
}

func TestUnwiredRoutesAreNotMounted(t *testing.T) {
	srv := newMinimalServer(t, config.HTTPConfig{}, nil)

	for _, target := range []string{"/things", "/things/sensor-1", "/publish/x", "/weather", "/snapshots"} {
		if w := get(t, srv, target); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, w.Code)
		}
	}
}

func TestNewValidation(t *testing.T) {
	log := logging.NewWithWriter(io.Discard, config.LoggingConfig{}, "test")

	if _, err := New(Deps{}); err == nil {
		t.Error("expected error for missing logger")
	}

	_, err := New(Deps{
		Logger:  log,
		Buckets: iotgateway.NewCatalog[ObjectBrowser]().MustRegister("things", panicBrowser{}),
	})
	if err == nil {
		t.Error("expected error for a reserved route name")
	}

	_, err = New(Deps{
		Logger: log,
		Tables: iotgateway.NewCatalog[TableRef]().MustRegister("movies", TableRef{Table: "movies", SortBy: "year"}),
	})
	if err == nil {
		t.Error("expected error for tables without a scanner")
	}

	_, err = New(Deps{
		Logger:  log,
		Buckets: iotgateway.NewCatalog[ObjectBrowser]().MustRegister("movies", panicBrowser{}),
		Tables:  iotgateway.NewCatalog[TableRef]().MustRegister("movies", TableRef{Table: "movies"}),
		Scanner: mustScanner(t),
	})
	if err == nil {
		t.Error("expected error for a name shared by a bucket and a table")
	}
}

func mustScanner(t *testing.T) TableReader {
	t.Helper()
	scanner, err := ddb.NewTableScanner(mock.NewDocumentStore())
	if err != nil {
		t.Fatalf("NewTableScanner: %v", err)
	}
	return scanner
}

func TestStartAndClose(t *testing.T) {
	srv := newMinimalServer(t, config.HTTPConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, nil)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Error("expected error starting twice")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
