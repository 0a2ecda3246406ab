package currency

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ratesCollectionName = "exchange_rates"

// Store persists the rate cache. GetRates returns ErrNotFound when nothing is cached.
type Store interface {
	GetRates(ctx context.Context, base string) (CachedRates, error)
	SaveRates(ctx context.Context, rates *CachedRates) error
}

// GormStore keeps cached rates in a relational table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("currency: gorm database is required")
	}
	return &GormStore{db: db}, nil
}

// Models lists the tables the store needs migrated.
func (s *GormStore) Models() []any {
	return []any{&CachedRates{}}
}

func (s *GormStore) GetRates(ctx context.Context, base string) (CachedRates, error) {
	var rates CachedRates
	err := s.db.WithContext(ctx).Where("base = ?", base).Take(&rates).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CachedRates{}, ErrNotFound
	}
	return rates, err
}

func (s *GormStore) SaveRates(ctx context.Context, rates *CachedRates) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "base"}},
			DoUpdates: clause.AssignmentColumns([]string{"rates", "fetched_at"}),
		}).
		Create(rates).Error
}

// MongoStore keeps cached rates as one document per base currency.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore binds the rate collection of db.
func NewMongoStore(db *mongo.Database) (*MongoStore, error) {
	if db == nil {
		return nil, errors.New("currency: mongo database is required")
	}
	return &MongoStore{collection: db.Collection(ratesCollectionName)}, nil
}

func (s *MongoStore) GetRates(ctx context.Context, base string) (CachedRates, error) {
	var rates CachedRates
	err := s.collection.FindOne(ctx, bson.M{"_id": base}).Decode(&rates)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return CachedRates{}, ErrNotFound
	}
	return rates, err
}

func (s *MongoStore) SaveRates(ctx context.Context, rates *CachedRates) error {
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": rates.Base}, rates, options.Replace().SetUpsert(true))
	return err
}
