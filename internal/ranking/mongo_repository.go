package ranking

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	djCollectionName           = "djs"
	suggestionCollectionName   = "suggestions"
	votingPeriodCollectionName = "voting_periods"
	voteCollectionName         = "votes"
	rankingCollectionName      = "rankings"
)

// MongoRepository stores ranking records as documents in MongoDB.
type MongoRepository struct {
	djs           *mongo.Collection
	suggestions   *mongo.Collection
	votingPeriods *mongo.Collection
	votes         *mongo.Collection
	rankings      *mongo.Collection
}

// NewMongoRepository binds the ranking collections of db.
func NewMongoRepository(db *mongo.Database) (*MongoRepository, error) {
	if db == nil {
		return nil, errors.New("ranking: mongo database is required")
	}
	return &MongoRepository{
		djs:           db.Collection(djCollectionName),
		suggestions:   db.Collection(suggestionCollectionName),
		votingPeriods: db.Collection(votingPeriodCollectionName),
		votes:         db.Collection(voteCollectionName),
		rankings:      db.Collection(rankingCollectionName),
	}, nil
}

// EnsureIndexes creates the lookup and uniqueness indexes the repository relies on.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection *mongo.Collection
		model      mongo.IndexModel
	}{
		{r.djs, mongo.IndexModel{Keys: bson.D{{Key: "nameKey", Value: 1}, {Key: "country", Value: 1}}}},
		{r.djs, mongo.IndexModel{Keys: bson.D{{Key: "country", Value: 1}, {Key: "approved", Value: 1}}}},
		{r.suggestions, mongo.IndexModel{
			Keys:    bson.D{{Key: "nameKey", Value: 1}, {Key: "country", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{r.suggestions, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "popularity", Value: -1}}}},
		{r.votingPeriods, mongo.IndexModel{
			Keys:    bson.D{{Key: "country", Value: 1}, {Key: "year", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{r.votes, mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "country", Value: 1}, {Key: "year", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{r.votes, mongo.IndexModel{Keys: bson.D{{Key: "country", Value: 1}, {Key: "year", Value: 1}}}},
	}
	for _, index := range indexes {
		if _, err := index.collection.Indexes().CreateOne(ctx, index.model); err != nil {
			return err
		}
	}
	return nil
}

func (r *MongoRepository) CreateDJ(ctx context.Context, dj *DJ) error {
	if err := validateRecord(dj); err != nil {
		return err
	}
	_, err := r.djs.InsertOne(ctx, dj)
	return translateMongoError(err)
}

func (r *MongoRepository) SaveDJ(ctx context.Context, dj *DJ) error {
	if err := validateRecord(dj); err != nil {
		return err
	}
	return replaceByID(ctx, r.djs, dj.ID, dj)
}

func (r *MongoRepository) GetDJ(ctx context.Context, id string) (DJ, error) {
	var dj DJ
	if err := r.djs.FindOne(ctx, bson.M{"_id": id}).Decode(&dj); err != nil {
		return DJ{}, translateMongoError(err)
	}
	return dj, validateRecord(&dj)
}

func (r *MongoRepository) FindDJByKey(ctx context.Context, nameKey, country string) (DJ, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "approved", Value: -1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	var dj DJ
	if err := r.djs.FindOne(ctx, bson.M{"nameKey": nameKey, "country": country}, opts).Decode(&dj); err != nil {
		return DJ{}, translateMongoError(err)
	}
	return dj, validateRecord(&dj)
}

func (r *MongoRepository) ListDJs(ctx context.Context, filter DJFilter) ([]DJ, error) {
	query := bson.M{}
	if filter.Country != "" {
		query["country"] = filter.Country
	}
	if filter.ApprovedOnly {
		query["approved"] = true
	}
	return findAll[DJ](ctx, r.djs, query, bson.D{{Key: "nameKey", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *MongoRepository) GetDJsByIDs(ctx context.Context, ids []string) ([]DJ, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return findAll[DJ](ctx, r.djs, bson.M{"_id": bson.M{"$in": ids}}, bson.D{{Key: "nameKey", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *MongoRepository) CreateSuggestion(ctx context.Context, suggestion *Suggestion) error {
	if err := validateRecord(suggestion); err != nil {
		return err
	}
	_, err := r.suggestions.InsertOne(ctx, suggestion)
	return translateMongoError(err)
}

func (r *MongoRepository) GetSuggestion(ctx context.Context, id string) (Suggestion, error) {
	return r.findSuggestion(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) FindSuggestionByKey(ctx context.Context, nameKey, country string) (Suggestion, error) {
	return r.findSuggestion(ctx, bson.M{"nameKey": nameKey, "country": country})
}

func (r *MongoRepository) AddSuggestionSubmitter(ctx context.Context, id, submitterID string, at time.Time) (bool, error) {
	filter := bson.M{"_id": id, "suggestedBy": bson.M{"$ne": submitterID}}
	update := bson.M{
		"$addToSet": bson.M{"suggestedBy": submitterID},
		"$inc":      bson.M{"popularity": 1},
		"$set":      bson.M{"updatedAt": at},
	}
	result, err := r.suggestions.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, translateMongoError(err)
	}
	if result.ModifiedCount == 1 {
		return true, nil
	}
	count, err := r.suggestions.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, translateMongoError(err)
	}
	if count == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *MongoRepository) UpdateSuggestionReview(ctx context.Context, id string, review SuggestionReview) error {
	update := bson.M{"$set": bson.M{
		"djId":       review.DJID,
		"approved":   review.Approved,
		"status":     review.Status,
		"reviewedBy": review.ReviewedBy,
		"updatedAt":  review.UpdatedAt,
	}}
	result, err := r.suggestions.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListSuggestions(ctx context.Context, filter SuggestionFilter) ([]Suggestion, error) {
	query := bson.M{}
	if filter.Country != "" {
		query["country"] = filter.Country
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	sort := bson.D{{Key: "popularity", Value: -1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	suggestions, err := findAll[Suggestion](ctx, r.suggestions, query, sort)
	if err != nil {
		return nil, err
	}
	for index := range suggestions {
		if suggestions[index].SuggestedBy == nil {
			suggestions[index].SuggestedBy = []string{}
		}
	}
	return suggestions, nil
}

func (r *MongoRepository) GetVotingPeriod(ctx context.Context, country string, year int) (VotingPeriod, error) {
	var period VotingPeriod
	if err := r.votingPeriods.FindOne(ctx, bson.M{"_id": periodID(country, year)}).Decode(&period); err != nil {
		return VotingPeriod{}, translateMongoError(err)
	}
	return period, validateRecord(&period)
}

func (r *MongoRepository) SaveVotingPeriod(ctx context.Context, period *VotingPeriod) error {
	if err := validateRecord(period); err != nil {
		return err
	}
	return replaceByID(ctx, r.votingPeriods, period.ID, period)
}

func (r *MongoRepository) GetVote(ctx context.Context, userID, country string, year int) (Vote, error) {
	var vote Vote
	if err := r.votes.FindOne(ctx, voterFilter(userID, country, year)).Decode(&vote); err != nil {
		return Vote{}, translateMongoError(err)
	}
	return vote, validateRecord(&vote)
}

func (r *MongoRepository) UpsertVote(ctx context.Context, vote *Vote) error {
	if err := validateRecord(vote); err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{
			"votes":     vote.DJIDs,
			"updatedAt": vote.UpdatedAt,
		},
		"$setOnInsert": bson.M{"_id": vote.ID, "createdAt": vote.CreatedAt},
	}
	filter := voterFilter(vote.UserID, vote.Country, vote.Year)
	_, err := r.votes.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return translateMongoError(err)
}

func voterFilter(userID, country string, year int) bson.M {
	return bson.M{"userId": userID, "country": country, "year": year}
}

func (r *MongoRepository) ListVotes(ctx context.Context, country string, year int) ([]Vote, error) {
	return findAll[Vote](ctx, r.votes, bson.M{"country": country, "year": year}, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *MongoRepository) GetRanking(ctx context.Context, country string, year int) (Ranking, error) {
	var ranking Ranking
	if err := r.rankings.FindOne(ctx, bson.M{"_id": periodID(country, year)}).Decode(&ranking); err != nil {
		return Ranking{}, translateMongoError(err)
	}
	return ranking, validateRecord(&ranking)
}

func (r *MongoRepository) ReplaceRanking(ctx context.Context, ranking *Ranking) error {
	if err := validateRecord(ranking); err != nil {
		return err
	}
	return replaceByID(ctx, r.rankings, ranking.ID, ranking)
}

func (r *MongoRepository) findSuggestion(ctx context.Context, filter bson.M) (Suggestion, error) {
	var suggestion Suggestion
	if err := r.suggestions.FindOne(ctx, filter).Decode(&suggestion); err != nil {
		return Suggestion{}, translateMongoError(err)
	}
	if suggestion.SuggestedBy == nil {
		suggestion.SuggestedBy = []string{}
	}
	return suggestion, validateRecord(&suggestion)
}

func replaceByID(ctx context.Context, collection *mongo.Collection, id string, document any) error {
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": id}, document, options.Replace().SetUpsert(true))
	return translateMongoError(err)
}

func findAll[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, sort bson.D) ([]T, error) {
	cursor, err := collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cursor.Close(ctx)

	records := []T{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, translateMongoError(err)
	}
	return records, validateRecords(records)
}

func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}
