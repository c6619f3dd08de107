/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AWSSettings selects the region and, optionally, static credentials.
type AWSSettings struct {
	Region    string
	AccessKey string
	SecretKey string
}

// LoadAWSConfig builds the shared AWS configuration used by every backend client.
// Static credentials are used when both keys are set; otherwise the default
// credential chain applies.
func LoadAWSConfig(ctx context.Context, s AWSSettings) (aws.Config, error) {
	if s.Region == "" {
		return aws.Config{}, errors.New("aws region is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s.Region),
	}
	if s.AccessKey != "" && s.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return cfg, nil
}
