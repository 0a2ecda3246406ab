package ranking

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ids"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTestURIEnv = "PULSE_TEST_MONGO_URI"

func newMongoTestRepository(t *testing.T) *MongoRepository {
	t.Helper()
	uri := os.Getenv(mongoTestURIEnv)
	if uri == "" {
		t.Skipf("%s not set", mongoTestURIEnv)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	databaseName := "pulse_test_" + strings.ToLower(strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db := client.Database(databaseName)
	require.NoError(t, db.Drop(ctx))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	repository, err := NewMongoRepository(db)
	require.NoError(t, err)
	require.NoError(t, repository.EnsureIndexes(ctx))
	return repository
}

func TestMongoRepositoryVotingFlow(t *testing.T) {
	repository := newMongoTestRepository(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	service, err := NewService(ServiceConfig{
		Repository: repository,
		Clock:      func() time.Time { return now },
		IDProvider: ids.NewUUIDProvider(),
	})
	require.NoError(t, err)

	_, err = service.SetVotingPeriod(ctx, testCountry, testYear, VotingPeriodPatch{SuggestionsOpen: boolPointer(true)}, testAdminID)
	require.NoError(t, err)

	first, err := service.SubmitSuggestion(ctx, SuggestionInput{Name: "Anna Tur", Instagram: "@annatur", Country: testCountry, Year: testYear, SubmitterID: "visitor:1"})
	require.NoError(t, err)
	again, err := service.SubmitSuggestion(ctx, SuggestionInput{Name: "anna  tur", Country: testCountry, Year: testYear, SubmitterID: "visitor:2"})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.EqualValues(t, 2, again.Popularity)
	require.ElementsMatch(t, []string{"visitor:1", "visitor:2"}, again.SuggestedBy)

	repeat, err := service.SubmitSuggestion(ctx, SuggestionInput{Name: "Anna Tur", Country: testCountry, Year: testYear, SubmitterID: "visitor:2"})
	require.NoError(t, err)
	require.EqualValues(t, 2, repeat.Popularity)

	_, dj, err := service.ApproveSuggestion(ctx, first.ID, testAdminID)
	require.NoError(t, err)
	require.True(t, dj.Approved)

	_, err = service.SetVotingPeriod(ctx, testCountry, testYear, VotingPeriodPatch{VotingOpen: boolPointer(true)}, testAdminID)
	require.NoError(t, err)
	_, err = service.CastVote(ctx, "member-1", testCountry, testYear, []string{dj.ID})
	require.NoError(t, err)
	now = now.Add(time.Hour)
	_, err = service.CastVote(ctx, "member-1", testCountry, testYear, []string{dj.ID})
	require.NoError(t, err)

	votes, err := repository.ListVotes(ctx, testCountry, testYear)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.True(t, votes[0].CreatedAt.Before(votes[0].UpdatedAt))

	ranking, err := service.PublishRanking(ctx, testCountry, testYear, testAdminID)
	require.NoError(t, err)
	require.Len(t, ranking.DJs, 1)
	require.Equal(t, "Anna Tur", ranking.DJs[0].Name)

	stored, err := service.GetRanking(ctx, testCountry, testYear)
	require.NoError(t, err)
	require.Equal(t, ranking.DJs, stored.DJs)
}

func TestMongoRepositoryTranslatesMissingDocuments(t *testing.T) {
	repository := newMongoTestRepository(t)
	_, err := repository.GetDJ(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repository.AddSuggestionSubmitter(context.Background(), "missing", "visitor:1", time.Now())
	require.ErrorIs(t, err, ErrNotFound)
}
