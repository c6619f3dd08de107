/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/iotgateway/storagemodels"
)

// Publisher backends.
const (
	PublisherIoT  = "iot"
	PublisherMQTT = "mqtt"
)

// maxPresignTTL is the longest lifetime a SigV4 presigned URL may have.
const maxPresignTTL = 7 * 24 * time.Hour

// Config is the root configuration of the gateway.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	AWS       AWSConfig       `yaml:"aws"`
	Buckets   BucketsConfig   `yaml:"buckets"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	Tables    TablesConfig    `yaml:"tables"`
	Backend   BackendConfig   `yaml:"backend"`
	Weather   WeatherConfig   `yaml:"weather"`
	Publisher PublisherConfig `yaml:"publisher"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AWSConfig selects the region and, optionally, static credentials.
type AWSConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	// IoTDataEndpoint overrides the IoT data plane endpoint, e.g.
	// https://xxxxxxxx-ats.iot.eu-west-1.amazonaws.com
	IoTDataEndpoint string `yaml:"iot_data_endpoint"`
}

// BucketsConfig names the two browsable buckets.
type BucketsConfig struct {
	Snapshot    string        `yaml:"snapshot"`
	Archive     string        `yaml:"archive"`
	Concurrency int           `yaml:"concurrency"`
	PageSize    int32         `yaml:"page_size"`
	PresignTTL  time.Duration `yaml:"presign_ttl"`
}

// SensorsConfig describes the sensor history table.
type SensorsConfig struct {
	Table        string `yaml:"table"`
	PartitionKey string `yaml:"partition_key"`
	SortKey      string `yaml:"sort_key"`
}

// TablesConfig names the reference tables and the field each is sorted by.
type TablesConfig struct {
	Movies         string `yaml:"movies"`
	MoviesSortBy   string `yaml:"movies_sort_by"`
	Triggers       string `yaml:"triggers"`
	TriggersSortBy string `yaml:"triggers_sort_by"`
}

// BackendConfig bounds retries of transient backend errors.
type BackendConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// WeatherConfig contains OpenWeatherMap settings.
type WeatherConfig struct {
	URL      string        `yaml:"url"`
	APIKey   string        `yaml:"api_key"`
	Unit     string        `yaml:"unit"`
	HomeCity string        `yaml:"home_city"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PublisherConfig selects where /publish sends messages.
type PublisherConfig struct {
	Kind string     `yaml:"kind"`
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load builds the configuration.
//
// The loading order is:
//  1. Default values
//  2. YAML file values, when path is not empty
//  3. A .env file in the working directory, when present
//  4. Environment variables
//
// Variables already set in the environment take precedence over .env entries.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the gateway defaults.
func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":5000",
			RequestTimeout:  30 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Buckets: BucketsConfig{
			Concurrency: 8,
			PresignTTL:  time.Hour,
		},
		Sensors: SensorsConfig{
			Table:        "sensors",
			PartitionKey: "source",
			SortKey:      "timestamp",
		},
		Tables: TablesConfig{
			Movies:         "movies",
			MoviesSortBy:   "year",
			Triggers:       "triggers",
			TriggersSortBy: "idx",
		},
		Backend: BackendConfig{
			MaxRetries:   0,
			RetryBackoff: 200 * time.Millisecond,
		},
		Weather: WeatherConfig{
			URL:     "http://api.openweathermap.org/data/2.5/weather",
			Unit:    "metric",
			Timeout: 10 * time.Second,
		},
		Publisher: PublisherConfig{
			Kind: PublisherIoT,
			MQTT: MQTTConfig{
				ClientID: "iotgateway",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Variable names are lower case, e.g. aws_region or snapshot_bucket.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"http_addr":             &cfg.HTTP.Addr,
		"aws_region":            &cfg.AWS.Region,
		"aws_access_key":        &cfg.AWS.AccessKey,
		"aws_secret_key":        &cfg.AWS.SecretKey,
		"iot_data_endpoint":     &cfg.AWS.IoTDataEndpoint,
		"snapshot_bucket":       &cfg.Buckets.Snapshot,
		"archive_bucket":        &cfg.Buckets.Archive,
		"sensors_table":         &cfg.Sensors.Table,
		"sensors_partition_key": &cfg.Sensors.PartitionKey,
		"sensors_sort_key":      &cfg.Sensors.SortKey,
		"weather_url":           &cfg.Weather.URL,
		"weather_api_key":       &cfg.Weather.APIKey,
		"weather_unit":          &cfg.Weather.Unit,
		"weather_home_city":     &cfg.Weather.HomeCity,
		"publisher":             &cfg.Publisher.Kind,
		"mqtt_broker":           &cfg.Publisher.MQTT.Broker,
		"mqtt_client_id":        &cfg.Publisher.MQTT.ClientID,
		"mqtt_username":         &cfg.Publisher.MQTT.Username,
		"mqtt_password":         &cfg.Publisher.MQTT.Password,
		"log_level":             &cfg.Logging.Level,
		"log_format":            &cfg.Logging.Format,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	var errs []string

	ints := map[string]*int{
		"browse_concurrency":  &cfg.Buckets.Concurrency,
		"backend_max_retries": &cfg.Backend.MaxRetries,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %q is not an integer", name, v))
				continue
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"presign_ttl":           &cfg.Buckets.PresignTTL,
		"backend_retry_backoff": &cfg.Backend.RetryBackoff,
		"request_timeout":       &cfg.HTTP.RequestTimeout,
	}
	for name, dst := range durations {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %q is not a duration", name, v))
				continue
			}
			*dst = d
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.HTTP.Addr == "" {
		errs = append(errs, "http.addr is required")
	}
	if c.AWS.Region == "" {
		errs = append(errs, "aws.region is required (set aws_region)")
	}
	if (c.AWS.AccessKey == "") != (c.AWS.SecretKey == "") {
		errs = append(errs, "aws.access_key and aws.secret_key must be set together")
	}
	if c.Buckets.Snapshot == "" {
		errs = append(errs, "buckets.snapshot is required (set snapshot_bucket)")
	}
	if c.Buckets.Archive == "" {
		errs = append(errs, "buckets.archive is required (set archive_bucket)")
	}
	if c.Buckets.Concurrency < 1 {
		errs = append(errs, "buckets.concurrency must be at least 1")
	}
	if c.Buckets.PageSize < 0 {
		errs = append(errs, "buckets.page_size must not be negative")
	}
	if c.Buckets.PresignTTL <= 0 || c.Buckets.PresignTTL > maxPresignTTL {
		errs = append(errs, "buckets.presign_ttl must be positive and at most 168h")
	}
	if c.Sensors.Table == "" || c.Sensors.PartitionKey == "" || c.Sensors.SortKey == "" {
		errs = append(errs, "sensors.table, sensors.partition_key and sensors.sort_key are required")
	}
	if c.Backend.MaxRetries < 0 {
		errs = append(errs, "backend.max_retries must not be negative")
	}

	switch c.Publisher.Kind {
	case PublisherIoT:
	case PublisherMQTT:
		if c.Publisher.MQTT.Broker == "" {
			errs = append(errs, "publisher.mqtt.broker is required for the mqtt publisher (set mqtt_broker)")
		}
	default:
		errs = append(errs, fmt.Sprintf("publisher.kind must be %q or %q", PublisherIoT, PublisherMQTT))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RetryPolicy returns the backend retry policy.
func (c *Config) RetryPolicy() storagemodels.RetryPolicy {
	return storagemodels.RetryPolicy{
		MaxRetries: c.Backend.MaxRetries,
		Backoff:    c.Backend.RetryBackoff,
	}
}
