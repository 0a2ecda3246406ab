package main

import (
	"context"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/config"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/content"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/currency"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/database"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/push"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type storage struct {
	ranking    ranking.Repository
	rates      currency.Store
	push       push.Repository
	posts      content.Repository
	identities users.IdentityStore
	close      func(ctx context.Context) error
}

func openStorage(ctx context.Context, appConfig config.AppConfig, logger *zap.Logger) (storage, error) {
	if appConfig.DatabaseDriver == config.DriverMongo {
		return openMongoStorage(ctx, appConfig, logger)
	}
	return openSQLiteStorage(appConfig, logger)
}

func openSQLiteStorage(appConfig config.AppConfig, logger *zap.Logger) (storage, error) {
	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return storage{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return storage{}, err
	}
	stores, err := gormStorage(db)
	if err != nil {
		_ = sqlDB.Close()
		return storage{}, err
	}
	stores.close = func(context.Context) error {
		return sqlDB.Close()
	}
	return stores, nil
}

func gormStorage(db *gorm.DB) (storage, error) {
	rankingRepository, err := ranking.NewGormRepository(db)
	if err != nil {
		return storage{}, err
	}
	rateStore, err := currency.NewGormStore(db)
	if err != nil {
		return storage{}, err
	}
	pushRepository, err := push.NewGormRepository(db)
	if err != nil {
		return storage{}, err
	}
	postRepository, err := content.NewGormRepository(db)
	if err != nil {
		return storage{}, err
	}
	identityStore, err := users.NewGormIdentityStore(db)
	if err != nil {
		return storage{}, err
	}
	return storage{
		ranking:    rankingRepository,
		rates:      rateStore,
		push:       pushRepository,
		posts:      postRepository,
		identities: identityStore,
	}, nil
}

func openMongoStorage(ctx context.Context, appConfig config.AppConfig, logger *zap.Logger) (storage, error) {
	client, db, err := database.OpenMongo(ctx, appConfig.MongoURI, appConfig.MongoDatabase, appConfig.MongoTimeout, logger)
	if err != nil {
		return storage{}, err
	}
	closeClient := func(ctx context.Context) error {
		return client.Disconnect(ctx)
	}

	rankingRepository, err := ranking.NewMongoRepository(db)
	if err != nil {
		_ = closeClient(ctx)
		return storage{}, err
	}
	rateStore, err := currency.NewMongoStore(db)
	if err != nil {
		_ = closeClient(ctx)
		return storage{}, err
	}
	pushRepository, err := push.NewMongoRepository(db)
	if err != nil {
		_ = closeClient(ctx)
		return storage{}, err
	}
	postRepository, err := content.NewMongoRepository(db)
	if err != nil {
		_ = closeClient(ctx)
		return storage{}, err
	}
	identityStore, err := users.NewMongoIdentityStore(db)
	if err != nil {
		_ = closeClient(ctx)
		return storage{}, err
	}

	indexCtx, cancel := context.WithTimeout(ctx, appConfig.MongoTimeout)
	defer cancel()
	if err := database.EnsureIndexes(indexCtx, rankingRepository, pushRepository, postRepository, identityStore); err != nil {
		_ = closeClient(ctx)
		return storage{}, err
	}

	return storage{
		ranking:    rankingRepository,
		rates:      rateStore,
		push:       pushRepository,
		posts:      postRepository,
		identities: identityStore,
		close:      closeClient,
	}, nil
}
