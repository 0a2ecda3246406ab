package database

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/content"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/currency"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/push"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"github.com/MarcoPoloResearchLab/pulse/backend/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("driver", "sqlite"), zap.String("path", path))
	}

	return db, nil
}

// Migrate creates or updates every table and applies the named data migrations.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	models, err := schemaModels(db)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	return applyMigrations(db, logger)
}

type schemaProvider interface {
	Models() []any
}

// schemaModels gathers the tables of every gorm-backed store.
func schemaModels(db *gorm.DB) ([]any, error) {
	rankingRepository, err := ranking.NewGormRepository(db)
	if err != nil {
		return nil, err
	}
	currencyStore, err := currency.NewGormStore(db)
	if err != nil {
		return nil, err
	}
	pushRepository, err := push.NewGormRepository(db)
	if err != nil {
		return nil, err
	}
	contentRepository, err := content.NewGormRepository(db)
	if err != nil {
		return nil, err
	}
	identityStore, err := users.NewGormIdentityStore(db)
	if err != nil {
		return nil, err
	}

	models := []any{&migrationRecord{}}
	for _, provider := range []schemaProvider{rankingRepository, currencyStore, pushRepository, contentRepository, identityStore} {
		models = append(models, provider.Models()...)
	}
	return models, nil
}
