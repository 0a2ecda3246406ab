package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const defaultMongoTimeout = 10 * time.Second

// IndexEnsurer is implemented by Mongo repositories that need indexes created at startup.
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

// OpenMongo connects to MongoDB, verifies the connection with a ping and
// returns the client together with the named database.
func OpenMongo(ctx context.Context, uri, databaseName string, timeout time.Duration, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, nil, fmt.Errorf("mongo uri is required")
	}
	if strings.TrimSpace(databaseName) == "" {
		return nil, nil, fmt.Errorf("mongo database name is required")
	}
	if timeout <= 0 {
		timeout = defaultMongoTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		if disconnectErr := client.Disconnect(disconnectCtx); disconnectErr != nil && logger != nil {
			logger.Warn("mongo disconnect after ping failure", zap.Error(disconnectErr))
		}
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("driver", "mongo"), zap.String("database", databaseName))
	}
	return client, client.Database(databaseName), nil
}

// EnsureIndexes runs every ensurer in order and stops at the first failure.
func EnsureIndexes(ctx context.Context, ensurers ...IndexEnsurer) error {
	for _, ensurer := range ensurers {
		if ensurer == nil {
			continue
		}
		if err := ensurer.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
