package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ranking"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationBackfillNameKeys        = "2025-02-10_backfill_name_keys"
	migrationUppercaseCountries      = "2025-02-24_uppercase_countries"
	migrationStripVoteProviderPrefix = "2025-03-03_strip_vote_provider_prefix"

	providerPrefix = "google:"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillNameKeys, apply: backfillNameKeys},
		{name: migrationUppercaseCountries, apply: uppercaseCountries},
		{name: migrationStripVoteProviderPrefix, apply: stripVoteProviderPrefix},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Transaction(migration.apply); err != nil {
			return fmt.Errorf("migration %s: %w", migration.name, err)
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillNameKeys fills lookup keys for rows imported before keys existed.
func backfillNameKeys(db *gorm.DB) error {
	var djs []ranking.DJ
	if err := db.Where("name_key = ''").Find(&djs).Error; err != nil {
		return err
	}
	for _, dj := range djs {
		if err := db.Model(&ranking.DJ{}).Where("id = ?", dj.ID).Update("name_key", ranking.NameKey(dj.Name)).Error; err != nil {
			return err
		}
	}
	var suggestions []ranking.Suggestion
	if err := db.Where("name_key = ''").Find(&suggestions).Error; err != nil {
		return err
	}
	for _, suggestion := range suggestions {
		if err := db.Model(&ranking.Suggestion{}).Where("id = ?", suggestion.ID).Update("name_key", ranking.NameKey(suggestion.Name)).Error; err != nil {
			return err
		}
	}
	return nil
}

func uppercaseCountries(db *gorm.DB) error {
	for _, table := range []string{"djs", "suggestions", "votes", "voting_periods", "rankings"} {
		statement := fmt.Sprintf("UPDATE %s SET country = upper(trim(country)) WHERE country <> upper(trim(country));", table)
		if err := db.Exec(statement).Error; err != nil {
			return err
		}
	}
	return nil
}

func stripVoteProviderPrefix(db *gorm.DB) error {
	start := len(providerPrefix) + 1
	statement := fmt.Sprintf(
		"UPDATE votes SET user_id = substr(user_id, %d), id = substr(id, %d) WHERE user_id LIKE '%s%%';",
		start, start, providerPrefix,
	)
	return db.Exec(statement).Error
}
