package ranking

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ids"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const (
	testCountry = "AR"
	testYear    = 2025
	testAdminID = "admin-1"
)

type fixture struct {
	service    *Service
	repository *GormRepository
	now        time.Time
	events     *recordingPublisher
}

type recordingPublisher struct {
	events []Event
}

func (p *recordingPublisher) PublishEvent(event Event) {
	p.events = append(p.events, event)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	databaseName := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", databaseName)), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	repository, err := NewGormRepository(db)
	if err != nil {
		t.Fatalf("failed to build repository: %v", err)
	}
	if err := db.AutoMigrate(repository.Models()...); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		repository: repository,
		now:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		events:     &recordingPublisher{},
	}
	service, err := NewService(ServiceConfig{
		Repository: repository,
		Clock:      func() time.Time { return f.now },
		IDProvider: ids.NewUUIDProvider(),
		Events:     f.events,
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	f.service = service
	return f
}

func (f *fixture) seedDJ(t *testing.T, id, name, country string, approved bool) DJ {
	t.Helper()
	dj := DJ{
		ID:        id,
		Name:      name,
		NameKey:   NameKey(name),
		Instagram: strings.ToLower(strings.ReplaceAll(name, " ", "")),
		Country:   country,
		PhotoURL:  "https://cdn.example.com/" + id + ".jpg",
		Approved:  approved,
		CreatedBy: testAdminID,
		CreatedAt: f.now,
		UpdatedBy: testAdminID,
		UpdatedAt: f.now,
	}
	if err := f.repository.CreateDJ(context.Background(), &dj); err != nil {
		t.Fatalf("failed to seed dj %s: %v", id, err)
	}
	return dj
}

func (f *fixture) openPeriod(t *testing.T, patch VotingPeriodPatch) VotingPeriod {
	t.Helper()
	period, err := f.service.SetVotingPeriod(context.Background(), testCountry, testYear, patch, testAdminID)
	if err != nil {
		t.Fatalf("failed to set voting period: %v", err)
	}
	return period
}

func (f *fixture) castVote(t *testing.T, userID string, djIDs ...string) {
	t.Helper()
	if _, err := f.service.CastVote(context.Background(), userID, testCountry, testYear, djIDs); err != nil {
		t.Fatalf("failed to cast vote for %s: %v", userID, err)
	}
}

func boolPointer(value bool) *bool {
	return &value
}

func intPointer(value int) *int {
	return &value
}

func stringPointer(value string) *string {
	return &value
}
