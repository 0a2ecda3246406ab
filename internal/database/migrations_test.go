package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsNormalizesLegacyRows(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	models, err := schemaModels(database)
	if err != nil {
		testContext.Fatalf("failed to collect models: %v", err)
	}
	if err := database.AutoMigrate(models...); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	now := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	legacyDJ := ranking.DJ{ID: "dj-1", Name: "Hernan  Cattaneo", NameKey: "", Country: "ar", CreatedAt: now, UpdatedAt: now}
	if err := database.Create(&legacyDJ).Error; err != nil {
		testContext.Fatalf("failed to insert dj: %v", err)
	}
	legacyVote := ranking.Vote{ID: "google:42_AR_2025", UserID: "google:42", Country: "AR", Year: 2025, DJIDs: []string{"dj-1"}, CreatedAt: now, UpdatedAt: now}
	if err := database.Create(&legacyVote).Error; err != nil {
		testContext.Fatalf("failed to insert vote: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var storedDJ ranking.DJ
	if err := database.Where("id = ?", "dj-1").Take(&storedDJ).Error; err != nil {
		testContext.Fatalf("failed to reload dj: %v", err)
	}
	if storedDJ.NameKey != "hernan cattaneo" || storedDJ.Country != "AR" {
		testContext.Fatalf("expected normalized dj, got %+v", storedDJ)
	}

	var storedVote ranking.Vote
	if err := database.Where("user_id = ?", "42").Take(&storedVote).Error; err != nil {
		testContext.Fatalf("failed to reload vote: %v", err)
	}
	if storedVote.ID != "42_AR_2025" {
		testContext.Fatalf("expected vote id without provider prefix, got %q", storedVote.ID)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationStripVoteProviderPrefix).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("expected re-run to be a no-op: %v", err)
	}
}

func TestOpenSQLiteCreatesSchema(testContext *testing.T) {
	databasePath := filepath.Join(testContext.TempDir(), "pulse.db")
	database, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}
	models, err := schemaModels(database)
	if err != nil {
		testContext.Fatalf("failed to collect models: %v", err)
	}
	if len(models) != 11 {
		testContext.Fatalf("expected eleven models, got %d", len(models))
	}
	for _, model := range models {
		if !database.Migrator().HasTable(model) {
			testContext.Fatalf("expected table for %T", model)
		}
	}
	if _, err := OpenSQLite("", nil); err == nil {
		testContext.Fatalf("expected empty path to be rejected")
	}
}
