package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/alvinp540/edutrack/store"
)

// Options configures Open.
type Options struct {
	// Region is the AWS region. Empty uses the shared config or environment.
	Region string

	// Endpoint overrides the service endpoint (DynamoDB Local, LocalStack).
	Endpoint string

	// Profile selects a shared config profile.
	Profile string

	Store store.Config
}

// Open loads the AWS configuration and returns a Backend over a new client.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return New(client, opts.Store), nil
}
