// Package backend opens the store.Backend selected by the configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alvinp540/edutrack/internal/config"
	"github.com/alvinp540/edutrack/internal/logging"
	"github.com/alvinp540/edutrack/store"
	"github.com/alvinp540/edutrack/store/badger"
	"github.com/alvinp540/edutrack/store/dynamo"
	"github.com/alvinp540/edutrack/store/mongo"
)

// Open connects to the backend named by cfg.Driver. The caller closes it.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	layout := store.DefaultConfig()
	layout.TablePrefix = cfg.DynamoDB.TablePrefix

	var (
		b   store.Backend
		err error
	)
	switch cfg.Driver {
	case config.DriverMongoDB:
		var mb *mongo.Backend
		mb, err = mongo.Open(ctx, mongo.Options{
			URI:            cfg.MongoDB.URI,
			Database:       cfg.MongoDB.Database,
			ConnectTimeout: cfg.MongoDB.ConnectTimeout,
			Store:          store.DefaultConfig(),
		})
		if err == nil {
			if ierr := mb.EnsureIndexes(ctx); ierr != nil {
				logger.Warn("failed to create indexes", "error", ierr)
			}
			b = mb
		}
	case config.DriverDynamoDB:
		b, err = dynamo.Open(ctx, dynamo.Options{
			Region:   cfg.DynamoDB.Region,
			Endpoint: cfg.DynamoDB.Endpoint,
			Profile:  cfg.DynamoDB.Profile,
			Store:    layout,
		})
	case config.DriverBadger:
		b, err = badger.Open(badger.Options{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
			Logger:   logging.NewBadgerLogger(logger),
			Store:    store.DefaultConfig(),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	logger.Info("store opened", "backend", b.Name())
	return b, nil
}
