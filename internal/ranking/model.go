package ranking

import "time"

// SuggestionStatus tracks the review state of a suggestion.
type SuggestionStatus string

const (
	// SuggestionStatusPending awaits admin review.
	SuggestionStatusPending SuggestionStatus = "pending"
	// SuggestionStatusApproved has been promoted to a DJ record.
	SuggestionStatusApproved SuggestionStatus = "approved"
	// SuggestionStatusRejected was declined; the record is kept.
	SuggestionStatusRejected SuggestionStatus = "rejected"
)

const (
	// TopCountTen publishes the ten most voted DJs.
	TopCountTen = 10
	// TopCountFifty publishes the fifty most voted DJs.
	TopCountFifty = 50
	// TopCountHundred publishes the hundred most voted DJs.
	TopCountHundred = 100
)

// DJ is a rankable artist. Records are deactivated through Approved, never deleted.
type DJ struct {
	ID          string            `gorm:"column:id;primaryKey;size:64" bson:"_id" json:"id" validate:"required,max=64"`
	Name        string            `gorm:"column:name;size:190;not null" bson:"name" json:"name" validate:"required,max=190"`
	NameKey     string            `gorm:"column:name_key;size:190;not null;index:idx_djs_lookup,priority:1" bson:"nameKey" json:"-" validate:"required,max=190"`
	Instagram   string            `gorm:"column:instagram;size:190;not null;default:''" bson:"instagram" json:"instagram" validate:"max=190"`
	Country     string            `gorm:"column:country;size:64;not null;index:idx_djs_lookup,priority:2" bson:"country" json:"country" validate:"required,max=64"`
	Bio         string            `gorm:"column:bio;type:text;not null;default:''" bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoURL    string            `gorm:"column:photo_url;size:512;not null;default:''" bson:"photoUrl,omitempty" json:"photoUrl,omitempty" validate:"max=512"`
	SocialLinks map[string]string `gorm:"column:social_links;serializer:json" bson:"socialLinks,omitempty" json:"socialLinks,omitempty" validate:"omitempty,dive,keys,max=32,endkeys,max=512"`
	Approved    bool              `gorm:"column:approved;not null;default:false;index" bson:"approved" json:"approved"`
	CreatedBy   string            `gorm:"column:created_by;size:190;not null;default:''" bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time         `gorm:"column:created_at;not null" bson:"createdAt" json:"createdAt" validate:"required"`
	UpdatedBy   string            `gorm:"column:updated_by;size:190;not null;default:''" bson:"updatedBy" json:"updatedBy"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;not null" bson:"updatedAt" json:"updatedAt" validate:"required"`
}

// TableName provides the explicit table binding for GORM.
func (DJ) TableName() string {
	return "djs"
}

// Suggestion is a visitor nomination awaiting review.
type Suggestion struct {
	ID          string           `gorm:"column:id;primaryKey;size:64" bson:"_id" json:"id" validate:"required,max=64"`
	Name        string           `gorm:"column:name;size:190;not null" bson:"name" json:"name" validate:"required,max=190"`
	NameKey     string           `gorm:"column:name_key;size:190;not null;uniqueIndex:idx_suggestions_key,priority:1" bson:"nameKey" json:"-" validate:"required,max=190"`
	Instagram   string           `gorm:"column:instagram;size:190;not null;default:''" bson:"instagram" json:"instagram" validate:"max=190"`
	Country     string           `gorm:"column:country;size:64;not null;uniqueIndex:idx_suggestions_key,priority:2" bson:"country" json:"country" validate:"required,max=64"`
	DJID        string           `gorm:"column:dj_id;size:64;not null;default:''" bson:"djId,omitempty" json:"djId,omitempty" validate:"max=64"`
	Popularity  int64            `gorm:"column:popularity;not null;default:0" bson:"popularity" json:"popularity" validate:"min=0"`
	SuggestedBy []string         `gorm:"-" bson:"suggestedBy" json:"suggestedBy" validate:"unique"`
	Approved    bool             `gorm:"column:approved;not null;default:false" bson:"approved" json:"approved"`
	Status      SuggestionStatus `gorm:"column:status;size:16;not null;default:'pending';index" bson:"status" json:"status" validate:"oneof=pending approved rejected"`
	ReviewedBy  string           `gorm:"column:reviewed_by;size:190;not null;default:''" bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at;not null" bson:"createdAt" json:"createdAt" validate:"required"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;not null" bson:"updatedAt" json:"updatedAt" validate:"required"`
}

// TableName provides the explicit table binding for GORM.
func (Suggestion) TableName() string {
	return "suggestions"
}

// SuggestionSubmitter records one submitter of a suggestion. The relational
// store keeps the suggestedBy set in this table.
type SuggestionSubmitter struct {
	SuggestionID string    `gorm:"column:suggestion_id;primaryKey;size:64"`
	SubmitterID  string    `gorm:"column:submitter_id;primaryKey;size:190"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (SuggestionSubmitter) TableName() string {
	return "suggestion_submitters"
}

// SuggestionReview holds the fields an admin decision writes.
type SuggestionReview struct {
	DJID       string
	Approved   bool
	Status     SuggestionStatus
	ReviewedBy string
	UpdatedAt  time.Time
}

// VotingPeriod gates suggestions, voting and result visibility for one country and year.
type VotingPeriod struct {
	ID               string    `gorm:"column:id;primaryKey;size:80" bson:"_id" json:"-" validate:"required"`
	Country          string    `gorm:"column:country;size:64;not null;uniqueIndex:idx_voting_periods_key,priority:1" bson:"country" json:"country" validate:"required,max=64"`
	Year             int       `gorm:"column:year;not null;uniqueIndex:idx_voting_periods_key,priority:2" bson:"year" json:"year" validate:"min=2000,max=2100"`
	SuggestionsOpen  bool      `gorm:"column:suggestions_open;not null;default:false" bson:"suggestionsOpen" json:"suggestionsOpen"`
	VotingOpen       bool      `gorm:"column:voting_open;not null;default:false" bson:"votingOpen" json:"votingOpen"`
	ResultsPublished bool      `gorm:"column:results_published;not null;default:false" bson:"resultsPublished" json:"resultsPublished"`
	TopCount         int       `gorm:"column:top_count;not null;default:10" bson:"topCount" json:"topCount" validate:"oneof=10 50 100"`
	UpdatedBy        string    `gorm:"column:updated_by;size:190;not null;default:''" bson:"updatedBy" json:"updatedBy"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null" bson:"updatedAt" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (VotingPeriod) TableName() string {
	return "voting_periods"
}

// Vote is a single user's ballot for a country and year.
type Vote struct {
	ID        string    `gorm:"column:id;primaryKey;size:300" bson:"_id" json:"-" validate:"required"`
	UserID    string    `gorm:"column:user_id;size:190;not null;uniqueIndex:idx_votes_voter,priority:1" bson:"userId" json:"userId" validate:"required,max=190"`
	Country   string    `gorm:"column:country;size:64;not null;uniqueIndex:idx_votes_voter,priority:2;index:idx_votes_period,priority:1" bson:"country" json:"country" validate:"required,max=64"`
	Year      int       `gorm:"column:year;not null;uniqueIndex:idx_votes_voter,priority:3;index:idx_votes_period,priority:2" bson:"year" json:"year" validate:"min=2000,max=2100"`
	DJIDs     []string  `gorm:"column:dj_ids;serializer:json;not null" bson:"votes" json:"votes" validate:"required,min=1,max=5,unique,dive,required,max=64"`
	CreatedAt time.Time `gorm:"column:created_at;not null" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" bson:"updatedAt" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Vote) TableName() string {
	return "votes"
}

// RankedDJ is one published ranking entry with display fields captured at publish time.
type RankedDJ struct {
	DJID      string `bson:"djId" json:"djId" validate:"required"`
	Position  int    `bson:"position" json:"position" validate:"min=1"`
	VoteCount int    `bson:"voteCount" json:"voteCount" validate:"min=1"`
	Name      string `bson:"name" json:"name"`
	Instagram string `bson:"instagram" json:"instagram"`
	PhotoURL  string `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
}

// Ranking is the published result for a country and year. It is replaced wholesale on republish.
type Ranking struct {
	ID           string     `gorm:"column:id;primaryKey;size:80" bson:"_id" json:"-" validate:"required"`
	Country      string     `gorm:"column:country;size:64;not null" bson:"country" json:"country" validate:"required,max=64"`
	Year         int        `gorm:"column:year;not null" bson:"year" json:"year" validate:"min=2000,max=2100"`
	TopCount     int        `gorm:"column:top_count;not null" bson:"topCount" json:"topCount" validate:"oneof=10 50 100"`
	TotalBallots int        `gorm:"column:total_ballots;not null;default:0" bson:"totalBallots" json:"totalBallots" validate:"min=0"`
	DJs          []RankedDJ `gorm:"column:djs;serializer:json;not null" bson:"djs" json:"djs" validate:"dive"`
	PublishedAt  time.Time  `gorm:"column:published_at;not null" bson:"publishedAt" json:"publishedAt" validate:"required"`
	PublishedBy  string     `gorm:"column:published_by;size:190;not null;default:''" bson:"publishedBy" json:"publishedBy"`
}

// TableName provides the explicit table binding for GORM.
func (Ranking) TableName() string {
	return "rankings"
}

// DJFilter narrows DJ listings.
type DJFilter struct {
	Country      string
	ApprovedOnly bool
}

// SuggestionFilter narrows suggestion listings.
type SuggestionFilter struct {
	Country string
	Status  SuggestionStatus
}
