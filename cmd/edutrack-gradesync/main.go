// Command edutrack-gradesync is an AWS Lambda function subscribed to the
// DynamoDB stream of the results table. It rewrites the grade of every
// result whose stored grade does not match its score.
//
// Configuration comes from the same EDUTRACK_ environment variables as the
// edutrack command; EDUTRACK_STORE_DRIVER must be dynamodb.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/alvinp540/edutrack/internal/config"
	"github.com/alvinp540/edutrack/internal/logging"
	"github.com/alvinp540/edutrack/store"
	"github.com/alvinp540/edutrack/store/dynamo"
	"github.com/alvinp540/edutrack/stream"
)

func main() {
	h, err := newHandler(context.Background())
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	lambda.Start(h.HandleGradeSync)
}

func newHandler(ctx context.Context) (*stream.Handler, error) {
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return nil, err
	}
	if cfg.Driver != config.DriverDynamoDB {
		return nil, fmt.Errorf("store driver is %q, want %s", cfg.Driver, config.DriverDynamoDB)
	}

	// Lambda forwards stdout to CloudWatch Logs.
	logger, err := logging.New(os.Stdout, logging.FormatJSON, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	layout := store.DefaultConfig()
	layout.TablePrefix = cfg.DynamoDB.TablePrefix
	b, err := dynamo.Open(ctx, dynamo.Options{
		Region:   cfg.DynamoDB.Region,
		Endpoint: cfg.DynamoDB.Endpoint,
		Profile:  cfg.DynamoDB.Profile,
		Store:    layout,
	})
	if err != nil {
		return nil, err
	}
	return stream.NewHandler(b, layout.TableName(store.Results), logger), nil
}
