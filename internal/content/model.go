package content

import "time"

// Post is a published blog entry used for recommendations.
type Post struct {
	ID          string    `gorm:"column:id;primaryKey;size:64" bson:"_id" json:"id"`
	Title       string    `gorm:"column:title;size:300;not null" bson:"title" json:"title"`
	Slug        string    `gorm:"column:slug;size:300;not null;uniqueIndex" bson:"slug" json:"slug"`
	CategoryID  string    `gorm:"column:category_id;size:64;not null;index:idx_posts_category,priority:1" bson:"categoryId" json:"categoryId"`
	Summary     string    `gorm:"column:summary;type:text;not null;default:''" bson:"summary,omitempty" json:"summary,omitempty"`
	PublishedAt time.Time `gorm:"column:published_at;not null;index:idx_posts_category,priority:2" bson:"publishedAt" json:"publishedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Post) TableName() string {
	return "posts"
}

// PostQuery selects posts newest first. An empty CategoryID matches every category.
type PostQuery struct {
	CategoryID        string
	ExcludeCategoryID string
	ExcludeIDs        []string
	Limit             int
}
