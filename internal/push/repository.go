package push

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

const subscriptionCollectionName = "push_subscriptions"

// Repository persists subscriptions keyed by endpoint.
type Repository interface {
	FindByEndpoint(ctx context.Context, endpoint string) (Subscription, error)
	Save(ctx context.Context, subscription *Subscription) error
}

// GormRepository stores subscriptions in a relational table.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wraps db.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, errors.New("push: gorm database is required")
	}
	return &GormRepository{db: db}, nil
}

// Models lists the tables the repository needs migrated.
func (r *GormRepository) Models() []any {
	return []any{&Subscription{}}
}

func (r *GormRepository) FindByEndpoint(ctx context.Context, endpoint string) (Subscription, error) {
	var subscription Subscription
	err := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Take(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Subscription{}, ErrNotFound
	}
	return subscription, err
}

func (r *GormRepository) Save(ctx context.Context, subscription *Subscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

// MongoRepository stores subscriptions as documents.
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository binds the subscription collection of db.
func NewMongoRepository(db *mongo.Database) (*MongoRepository, error) {
	if db == nil {
		return nil, errors.New("push: mongo database is required")
	}
	return &MongoRepository{collection: db.Collection(subscriptionCollectionName)}, nil
}

// EnsureIndexes creates the unique endpoint index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "endpoint", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRepository) FindByEndpoint(ctx context.Context, endpoint string) (Subscription, error) {
	var subscription Subscription
	err := r.collection.FindOne(ctx, bson.M{"endpoint": endpoint}).Decode(&subscription)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Subscription{}, ErrNotFound
	}
	return subscription, err
}

func (r *MongoRepository) Save(ctx context.Context, subscription *Subscription) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": subscription.ID}, subscription, options.Replace().SetUpsert(true))
	return err
}
