package content

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ids"
	"go.uber.org/zap"
)

const (
	// DefaultRecommendationLimit is used when the caller does not ask for a size.
	DefaultRecommendationLimit = 3
	// MaxRecommendationLimit caps the recommendation list.
	MaxRecommendationLimit = 12

	opCreatePost       = "content.create_post"
	opRecommendations  = "content.recommendations"
	reasonInvalidInput = "invalid_input"
	reasonNotFound     = "not_found"
	reasonDuplicate    = "duplicate_slug"

	maxTitleLength = 300
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// ServiceConfig describes the dependencies of the content service.
type ServiceConfig struct {
	Repository Repository
	IDProvider ids.Provider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service manages posts and recommendation lookups.
type Service struct {
	repository Repository
	idProvider ids.Provider
	clock      func() time.Time
	logger     *zap.Logger
}

// PostInput carries the fields of a new post. Slug defaults to the title;
// PublishedAt defaults to now.
type PostInput struct {
	Title       string     `json:"title" binding:"required,max=300"`
	Slug        string     `json:"slug" binding:"omitempty,max=300"`
	CategoryID  string     `json:"categoryId" binding:"required,max=64"`
	Summary     string     `json:"summary"`
	PublishedAt *time.Time `json:"publishedAt"`
}

// NewService constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("content: repository is required")
	}
	if cfg.IDProvider == nil {
		return nil, errors.New("content: id provider is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repository: cfg.Repository, idProvider: cfg.IDProvider, clock: clock, logger: logger}, nil
}

// CreatePost stores a new post.
func (s *Service) CreatePost(ctx context.Context, input PostInput) (Post, error) {
	title := strings.Join(strings.Fields(input.Title), " ")
	if title == "" || len(title) > maxTitleLength {
		return Post{}, newServiceError(opCreatePost, reasonInvalidInput, ErrValidation)
	}
	categoryID := strings.TrimSpace(input.CategoryID)
	if categoryID == "" {
		return Post{}, newServiceError(opCreatePost, reasonInvalidInput, ErrValidation)
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return Post{}, newServiceError(opCreatePost, reasonInvalidInput, ErrValidation)
	}
	id, err := s.idProvider.NewID()
	if err != nil {
		return Post{}, s.fail(opCreatePost, "id_generation_failed", err)
	}
	publishedAt := s.clock().UTC()
	if input.PublishedAt != nil && !input.PublishedAt.IsZero() {
		publishedAt = input.PublishedAt.UTC()
	}
	post := Post{
		ID:          id,
		Title:       title,
		Slug:        slug,
		CategoryID:  categoryID,
		Summary:     strings.TrimSpace(input.Summary),
		PublishedAt: publishedAt,
	}
	if err := s.repository.CreatePost(ctx, &post); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Post{}, newServiceError(opCreatePost, reasonDuplicate, ErrDuplicate)
		}
		return Post{}, s.fail(opCreatePost, "save_failed", err)
	}
	return post, nil
}

// Recommendations lists posts of categoryID newest first, excluding postID,
// and tops the list up with the newest posts of other categories. When only
// postID is given its category is used.
func (s *Service) Recommendations(ctx context.Context, postID, categoryID string, limit int) ([]Post, error) {
	postID = strings.TrimSpace(postID)
	categoryID = strings.TrimSpace(categoryID)
	switch {
	case limit <= 0:
		limit = DefaultRecommendationLimit
	case limit > MaxRecommendationLimit:
		limit = MaxRecommendationLimit
	}

	if categoryID == "" && postID != "" {
		post, err := s.repository.GetPost(ctx, postID)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, newServiceError(opRecommendations, reasonNotFound, ErrNotFound)
		case err != nil:
			return nil, s.fail(opRecommendations, "post_lookup_failed", err)
		}
		categoryID = post.CategoryID
	}

	var excluded []string
	if postID != "" {
		excluded = []string{postID}
	}
	posts := []Post{}
	if categoryID != "" {
		related, err := s.repository.FindPosts(ctx, PostQuery{CategoryID: categoryID, ExcludeIDs: excluded, Limit: limit})
		if err != nil {
			return nil, s.fail(opRecommendations, "lookup_failed", err)
		}
		posts = append(posts, related...)
	}
	if len(posts) < limit {
		others, err := s.repository.FindPosts(ctx, PostQuery{ExcludeCategoryID: categoryID, ExcludeIDs: excluded, Limit: limit - len(posts)})
		if err != nil {
			return nil, s.fail(opRecommendations, "lookup_failed", err)
		}
		posts = append(posts, others...)
	}
	return posts, nil
}

// Slugify lower-cases raw and joins its alphanumeric runs with dashes.
func Slugify(raw string) string {
	return strings.Trim(slugSeparators.ReplaceAllString(strings.ToLower(raw), "-"), "-")
}

func (s *Service) fail(operation, reason string, err error) error {
	s.logger.Error("content service error",
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.Error(err))
	return newServiceError(operation, reason, errors.Join(ErrStore, err))
}
