package model

import "time"

// ProviderAPIUsage tracks daily call counts against an external provider
// endpoint. Date is a UTC day in YYYY-MM-DD form; (date, endpoint) is unique
// so increments always land on one row.
type ProviderAPIUsage struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Date          string    `json:"date" gorm:"not null;size:10;uniqueIndex:idx_usage_date_endpoint"`
	Endpoint      string    `json:"endpoint" gorm:"not null;size:50;uniqueIndex:idx_usage_date_endpoint"`
	CallsMade     int       `json:"calls_made" gorm:"default:0;not null"`
	DailyLimitHit bool      `json:"daily_limit_hit" gorm:"default:false;not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"not null"`
}
