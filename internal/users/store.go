package users

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// ErrIdentityNotFound is returned by stores for unknown provider/subject pairs.
var ErrIdentityNotFound = errors.New("users: identity not found")

const identityCollectionName = "user_identities"

// IdentityStore persists identities keyed by provider and subject.
type IdentityStore interface {
	FindIdentity(ctx context.Context, provider, subject string) (Identity, error)
	CreateIdentity(ctx context.Context, identity *Identity) error
	TouchIdentity(ctx context.Context, provider, subject string, profile IdentityProfile) error
}

// GormIdentityStore keeps identities in the user_identities table.
type GormIdentityStore struct {
	db *gorm.DB
}

// NewGormIdentityStore wraps db.
func NewGormIdentityStore(db *gorm.DB) (*GormIdentityStore, error) {
	if db == nil {
		return nil, errors.New("users: database connection required")
	}
	return &GormIdentityStore{db: db}, nil
}

// Models lists the tables the store needs migrated.
func (s *GormIdentityStore) Models() []any {
	return []any{&Identity{}}
}

func (s *GormIdentityStore) FindIdentity(ctx context.Context, provider, subject string) (Identity, error) {
	var identity Identity
	err := s.db.WithContext(ctx).
		Where("provider = ? AND subject = ?", provider, subject).
		First(&identity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, ErrIdentityNotFound
	}
	return identity, err
}

func (s *GormIdentityStore) CreateIdentity(ctx context.Context, identity *Identity) error {
	return s.db.WithContext(ctx).Create(identity).Error
}

func (s *GormIdentityStore) TouchIdentity(ctx context.Context, provider, subject string, profile IdentityProfile) error {
	updates := map[string]interface{}{
		"last_seen_at": profile.SeenAt,
		"updated_at":   profile.SeenAt,
	}
	if profile.Email != "" {
		updates["user_email"] = profile.Email
	}
	if profile.DisplayName != "" {
		updates["user_display_name"] = profile.DisplayName
	}
	if profile.AvatarURL != "" {
		updates["user_avatar_url"] = profile.AvatarURL
	}
	return s.db.WithContext(ctx).
		Model(&Identity{}).
		Where("provider = ? AND subject = ?", provider, subject).
		Updates(updates).
		Error
}

// MongoIdentityStore keeps identities as documents.
type MongoIdentityStore struct {
	collection *mongo.Collection
}

// NewMongoIdentityStore binds the identity collection of db.
func NewMongoIdentityStore(db *mongo.Database) (*MongoIdentityStore, error) {
	if db == nil {
		return nil, errors.New("users: mongo database is required")
	}
	return &MongoIdentityStore{collection: db.Collection(identityCollectionName)}, nil
}

// EnsureIndexes creates the unique provider/subject index.
func (s *MongoIdentityStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "subject", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoIdentityStore) FindIdentity(ctx context.Context, provider, subject string) (Identity, error) {
	var identity Identity
	err := s.collection.FindOne(ctx, bson.M{"provider": provider, "subject": subject}).Decode(&identity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Identity{}, ErrIdentityNotFound
	}
	return identity, err
}

func (s *MongoIdentityStore) CreateIdentity(ctx context.Context, identity *Identity) error {
	_, err := s.collection.InsertOne(ctx, identity)
	return err
}

func (s *MongoIdentityStore) TouchIdentity(ctx context.Context, provider, subject string, profile IdentityProfile) error {
	set := bson.M{"lastSeenAt": profile.SeenAt, "updatedAt": profile.SeenAt}
	if profile.Email != "" {
		set["email"] = profile.Email
	}
	if profile.DisplayName != "" {
		set["displayName"] = profile.DisplayName
	}
	if profile.AvatarURL != "" {
		set["avatarUrl"] = profile.AvatarURL
	}
	_, err := s.collection.UpdateOne(ctx, bson.M{"provider": provider, "subject": subject}, bson.M{"$set": set})
	return err
}
