package currency

import "time"

// CachedRates is the persisted rate table for one base currency.
type CachedRates struct {
	Base      string             `gorm:"column:base;primaryKey;size:3" bson:"_id" json:"base"`
	Rates     map[string]float64 `gorm:"column:rates;serializer:json;not null" bson:"rates" json:"rates"`
	FetchedAt time.Time          `gorm:"column:fetched_at;not null" bson:"fetchedAt" json:"fetchedAt"`
}

// TableName provides the explicit table binding for GORM.
func (CachedRates) TableName() string {
	return "exchange_rates"
}

// ExchangeRates is the served rate table. Stale is set when the provider
// failed and an expired cache entry was returned instead.
type ExchangeRates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Stale     bool               `json:"stale"`
}

// Conversion is the result of converting an amount between two currencies.
type Conversion struct {
	Amount    float64   `json:"amount"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Rate      float64   `json:"rate"`
	Result    float64   `json:"result"`
	FetchedAt time.Time `json:"fetchedAt"`
	Stale     bool      `json:"stale"`
}
