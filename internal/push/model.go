package push

import "time"

// RawJSON holds a JSON document verbatim. It is stored as text and emitted unquoted.
type RawJSON string

// MarshalJSON emits the stored document as-is.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// Subscription is a stored Web Push subscription. The payload is kept verbatim.
type Subscription struct {
	ID           string    `gorm:"column:id;primaryKey;size:64" bson:"_id" json:"id"`
	Endpoint     string    `gorm:"column:endpoint;size:1024;not null;uniqueIndex" bson:"endpoint" json:"endpoint"`
	Subscription RawJSON   `gorm:"column:subscription;type:text;not null" bson:"subscription" json:"subscription"`
	UserID       string    `gorm:"column:user_id;size:190;not null;default:'';index" bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null" bson:"updatedAt" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Subscription) TableName() string {
	return "push_subscriptions"
}
