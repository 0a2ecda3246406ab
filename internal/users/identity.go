package users

import (
	"strings"
	"time"
)

// Identity maps a provider-specific login to the canonical member id used for ballots.
type Identity struct {
	Provider    string    `gorm:"column:provider;primaryKey;size:32;not null" bson:"provider"`
	Subject     string    `gorm:"column:subject;primaryKey;size:190;not null" bson:"subject"`
	UserID      string    `gorm:"column:user_id;size:190;not null;index" bson:"userId"`
	Email       string    `gorm:"column:user_email;size:320" bson:"email,omitempty"`
	DisplayName string    `gorm:"column:user_display_name;size:320" bson:"displayName,omitempty"`
	AvatarURL   string    `gorm:"column:user_avatar_url;size:512" bson:"avatarUrl,omitempty"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at" bson:"lastSeenAt"`
	CreatedAt   time.Time `gorm:"column:created_at" bson:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" bson:"updatedAt"`
}

// TableName exposes the table backing user identities.
func (Identity) TableName() string {
	return "user_identities"
}

// IdentityProfile carries the profile fields refreshed on every sign-in.
type IdentityProfile struct {
	Email       string
	DisplayName string
	AvatarURL   string
	SeenAt      time.Time
}

// Member is the resolved caller of a member or admin route.
type Member struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	AvatarURL   string   `json:"avatarUrl,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Admin       bool     `json:"admin"`
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}
