package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Schedule is a stored job template fired on a cron
// expression. DeviceIDs and Commands are JSON arrays of
// strings.
type Schedule struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Alias       string         `gorm:"uniqueIndex;not null" json:"alias"`
	Expression  string         `gorm:"not null" json:"expression"`
	DeviceIDs   datatypes.JSON `gorm:"type:json;not null" json:"device_ids"`
	Commands    datatypes.JSON `gorm:"type:json;not null" json:"commands"`
	BatchSize   int            `gorm:"not null" json:"batch_size"`
	RatePerHour int            `gorm:"not null;default:0" json:"rate_per_hour"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

type Schedules []*Schedule
