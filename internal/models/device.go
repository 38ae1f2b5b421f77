package models

import (
	"time"

	"github.com/google/uuid"
)

// Protocol enumerates the remote session protocols a
// device can be reached over.
type Protocol string

const (
	ProtocolSSH    Protocol = "ssh"
	ProtocolTelnet Protocol = "telnet"
)

// Device is one inventory record. The engine treats the
// inventory as read-only and copies the fields it needs
// into the job at creation time, so later edits never
// alter a running or historical job.
type Device struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"uniqueIndex;not null" json:"name"`
	Address        string    `gorm:"not null" json:"address"`
	Protocol       Protocol  `gorm:"type:text;not null" json:"protocol"`
	Port           int       `gorm:"not null" json:"port"`
	CredentialsRef string    `gorm:"type:text" json:"credentials_ref"`
	Country        string    `gorm:"type:text;index" json:"country"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

type Devices []*Device
