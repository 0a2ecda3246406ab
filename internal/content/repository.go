package content

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

const postCollectionName = "posts"

// Repository persists posts.
type Repository interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id string) (Post, error)
	FindPosts(ctx context.Context, query PostQuery) ([]Post, error)
}

// GormRepository stores posts in a relational table.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wraps db.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, errors.New("content: gorm database is required")
	}
	return &GormRepository{db: db}, nil
}

// Models lists the tables the repository needs migrated.
func (r *GormRepository) Models() []any {
	return []any{&Post{}}
}

func (r *GormRepository) CreatePost(ctx context.Context, post *Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) || (err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func (r *GormRepository) GetPost(ctx context.Context, id string) (Post, error) {
	var post Post
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Post{}, ErrNotFound
	}
	return post, err
}

func (r *GormRepository) FindPosts(ctx context.Context, query PostQuery) ([]Post, error) {
	statement := r.db.WithContext(ctx).Model(&Post{})
	if query.CategoryID != "" {
		statement = statement.Where("category_id = ?", query.CategoryID)
	}
	if query.ExcludeCategoryID != "" {
		statement = statement.Where("category_id <> ?", query.ExcludeCategoryID)
	}
	if len(query.ExcludeIDs) > 0 {
		statement = statement.Where("id NOT IN ?", query.ExcludeIDs)
	}
	if query.Limit > 0 {
		statement = statement.Limit(query.Limit)
	}
	posts := []Post{}
	if err := statement.Order("published_at DESC").Order("id ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// MongoRepository stores posts as documents.
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository binds the post collection of db.
func NewMongoRepository(db *mongo.Database) (*MongoRepository, error) {
	if db == nil {
		return nil, errors.New("content: mongo database is required")
	}
	return &MongoRepository{collection: db.Collection(postCollectionName)}, nil
}

// EnsureIndexes creates the slug and category indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "categoryId", Value: 1}, {Key: "publishedAt", Value: -1}}},
	})
	return err
}

func (r *MongoRepository) CreatePost(ctx context.Context, post *Post) error {
	_, err := r.collection.InsertOne(ctx, post)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func (r *MongoRepository) GetPost(ctx context.Context, id string) (Post, error) {
	var post Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Post{}, ErrNotFound
	}
	return post, err
}

func (r *MongoRepository) FindPosts(ctx context.Context, query PostQuery) ([]Post, error) {
	filter := bson.M{}
	category := bson.M{}
	if query.CategoryID != "" {
		category["$eq"] = query.CategoryID
	}
	if query.ExcludeCategoryID != "" {
		category["$ne"] = query.ExcludeCategoryID
	}
	if len(category) > 0 {
		filter["categoryId"] = category
	}
	if len(query.ExcludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": query.ExcludeIDs}
	}
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}, {Key: "_id", Value: 1}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	posts := []Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
