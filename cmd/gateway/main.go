/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command gateway serves the IoT gateway HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iot"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/suparena/iotgateway"
	"github.com/suparena/iotgateway/api"
	"github.com/suparena/iotgateway/config"
	"github.com/suparena/iotgateway/datastore"
	"github.com/suparena/iotgateway/datastore/bucket"
	"github.com/suparena/iotgateway/datastore/ddb"
	"github.com/suparena/iotgateway/datastore/shadow"
	"github.com/suparena/iotgateway/logging"
	"github.com/suparena/iotgateway/publish"
	"github.com/suparena/iotgateway/storagemodels"
	"github.com/suparena/iotgateway/weather"
)

var (
	configFlag  = flag.String("config", "", "Path to an optional YAML configuration file")
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := iotgateway.GetVersionInfo()
		fmt.Printf("iotgateway version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	// Cancel on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging, iotgateway.Version)
	log.Info("starting gateway", "region", cfg.AWS.Region, "publisher", cfg.Publisher.Kind)

	awsCfg, err := datastore.LoadAWSConfig(ctx, datastore.AWSSettings{
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
	})
	if err != nil {
		return err
	}

	s3Client := s3.NewFromConfig(awsCfg)
	presigner := s3.NewPresignClient(s3Client)
	ddbClient := dynamodb.NewFromConfig(awsCfg)
	iotClient := iot.NewFromConfig(awsCfg)
	dataClient := iotdataplane.NewFromConfig(awsCfg, func(o *iotdataplane.Options) {
		if cfg.AWS.IoTDataEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.IoTDataEndpoint)
		}
	})

	retry := cfg.RetryPolicy()
	browseOpts := []storagemodels.BrowseOption{
		storagemodels.WithConcurrency(cfg.Buckets.Concurrency),
		storagemodels.WithPageSize(cfg.Buckets.PageSize),
		storagemodels.WithPresignTTL(cfg.Buckets.PresignTTL),
		storagemodels.WithRetryPolicy(retry),
	}

	buckets := iotgateway.NewCatalog[api.ObjectBrowser]()
	for route, name := range map[string]string{
		"snapshots": cfg.Buckets.Snapshot,
		"archive":   cfg.Buckets.Archive,
	} {
		browser, err := bucket.NewBrowser(s3Client, presigner, name, browseOpts...)
		if err != nil {
			return fmt.Errorf("creating %s browser: %w", route, err)
		}
		if err := buckets.Register(route, browser.WithLogger(log.With("component", "bucket", "route", route).Logger)); err != nil {
			return err
		}
	}

	tables := iotgateway.NewCatalog[api.TableRef]().
		MustRegister("movies", api.TableRef{Table: cfg.Tables.Movies, SortBy: cfg.Tables.MoviesSortBy}).
		MustRegister("triggers", api.TableRef{Table: cfg.Tables.Triggers, SortBy: cfg.Tables.TriggersSortBy})

	scanner, err := ddb.NewTableScanner(ddbClient)
	if err != nil {
		return err
	}
	history, err := ddb.NewHistoryStore(ddbClient, storagemodels.HistoryTable{
		Name:         cfg.Sensors.Table,
		PartitionKey: cfg.Sensors.PartitionKey,
		SortKey:      cfg.Sensors.SortKey,
	})
	if err != nil {
		return err
	}
	fetcher, err := shadow.NewFetcher(dataClient)
	if err != nil {
		return err
	}
	registry, err := shadow.NewRegistry(iotClient)
	if err != nil {
		return err
	}
	weatherClient, err := weather.NewClient(cfg.Weather)
	if err != nil {
		return err
	}

	publisher, err := newPublisher(cfg.Publisher, dataClient)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("closing publisher", "error", err)
		}
	}()

	server, err := api.New(api.Deps{
		Config:    cfg.HTTP,
		Logger:    log,
		Buckets:   buckets,
		Tables:    tables,
		Scanner:   scanner.WithRetryPolicy(retry),
		History:   history.WithRetryPolicy(retry).WithLogger(log.With("component", "history").Logger),
		Shadows:   fetcher.WithRetryPolicy(retry),
		Things:    registry.WithRetryPolicy(retry),
		Publisher: publisher,
		Weather:   weatherClient,
		Version:   iotgateway.Version,
	})
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}

	log.Info("initialisation complete, waiting for shutdown signal", "address", server.Addr())
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return server.Close()
}

// newPublisher connects the configured publish backend.
func newPublisher(cfg config.PublisherConfig, dataClient *iotdataplane.Client) (publish.Publisher, error) {
	switch cfg.Kind {
	case config.PublisherMQTT:
		return publish.ConnectMQTT(cfg.MQTT)
	default:
		return publish.NewIoTPublisher(dataClient)
	}
}
